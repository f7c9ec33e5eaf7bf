package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/dealscout/internal/criteria"
	"github.com/ppiankov/dealscout/internal/logger"
	"github.com/ppiankov/dealscout/internal/metrics"
	"github.com/ppiankov/dealscout/internal/model"
	"github.com/ppiankov/dealscout/internal/pipeline"
	"github.com/ppiankov/dealscout/internal/store"
	"github.com/ppiankov/dealscout/internal/worker"
)

var (
	criteriaFile string
	seedsFile    string
	outJSON      string
	runTimeout   time.Duration
	noCache      bool
	noRobots     bool
	showTop      int
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Enrich and score candidate companies against a criteria profile",
	Long: `Run crawls each seed company's website, extracts cited evidence, applies the
criteria profile's hard rules and scores every remaining candidate.

Seeds are read one per line as "website[, name]". Duplicate companies are
merged before any page is fetched.

Example:
  dealscout run --criteria criteria.yaml --seeds seeds.txt
  dealscout run --criteria criteria.yaml --seeds seeds.txt --out results.json --workers 16
  dealscout run --criteria criteria.yaml --seeds seeds.txt --llm-provider openai --llm-model gpt-4o-mini`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&criteriaFile, "criteria", "", "criteria profile (YAML or JSON)")
	runCmd.Flags().StringVar(&seedsFile, "seeds", "", "seed list, one \"website[, name]\" per line")
	runCmd.Flags().StringVar(&outJSON, "out", "results.json", "output JSON path (empty to skip)")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "overall run timeout (0 for none)")
	runCmd.Flags().IntVar(&showTop, "top", 25, "rows shown in the ranked table (0 for all)")

	runCmd.Flags().Int("workers", 0, "number of concurrent candidate workers")
	runCmd.Flags().StringSlice("pages", nil, "site paths crawled per candidate (default: home, about, product, pricing, careers)")
	runCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the content cache (force fresh fetch)")
	runCmd.Flags().BoolVar(&noRobots, "no-robots", false, "ignore robots.txt policies")
	runCmd.Flags().String("llm-provider", "", "LLM fallback provider (openai, anthropic, ollama, gemini)")
	runCmd.Flags().String("llm-model", "", "LLM model name")
	runCmd.Flags().String("database-url", "", "Postgres URL to store the run")
	runCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address during the run")
	runCmd.Flags().String("http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	runCmd.Flags().String("https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")

	_ = runCmd.MarkFlagRequired("criteria")
	_ = runCmd.MarkFlagRequired("seeds")

	// Bind flags to viper
	for key, flag := range map[string]string{
		"concurrency.workers": "workers",
		"fetch.pages":         "pages",
		"llm.provider":        "llm-provider",
		"llm.model":           "llm-model",
		"store.database_url":  "database-url",
		"metrics.addr":        "metrics-addr",
		"http.http_proxy":     "http-proxy",
		"http.https_proxy":    "https-proxy",
	} {
		_ = viper.BindPFlag(key, runCmd.Flags().Lookup(flag))
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if noRobots {
		cfg.Fetch.RespectRobots = false
	}

	log, err := logger.New(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	// Profile and seeds are checked before anything touches the network
	profile, err := criteria.Load(criteriaFile)
	if err != nil {
		return err
	}
	seeds, err := worker.ReadSeedsFromFile(seedsFile)
	if err != nil {
		return fmt.Errorf("read seeds: %w", err)
	}
	if len(seeds) == 0 {
		return fmt.Errorf("no seeds in %s", seedsFile)
	}

	sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := pipeline.NewPipeline(sigCtx, cfg, log)
	if err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}
	coord := worker.NewCoordinator(p.EnricherFactory(), cfg.Concurrency.Workers, log.Named("run"))

	fmt.Fprintf(os.Stderr, "Scoring %d seeds with %d workers", len(seeds), cfg.Concurrency.Workers)
	if provider := p.LLMProvider(); provider != "" {
		fmt.Fprintf(os.Stderr, " (LLM fallback: %s)", provider)
	}
	fmt.Fprintln(os.Stderr)

	run, err := execute(sigCtx, coord, profile, seeds, cfg.Metrics.Addr, log)
	if err != nil {
		return err
	}

	printRanking(cmd.OutOrStdout(), run, showTop)

	if outJSON != "" {
		if err := writeJSON(outJSON, run); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", outJSON)
	}

	if cfg.Store.DatabaseURL != "" {
		if err := saveRun(context.Background(), cfg.Store, run, log); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "✓ Stored run %s\n", run.RunID)
	}
	return nil
}

// execute runs the coordinator next to the optional metrics server and the
// interrupt watcher. An interrupt or timeout cancels the run; whatever was
// scored by then is still returned.
func execute(sigCtx context.Context, coord *worker.Coordinator, profile *model.CriteriaProfile,
	seeds []model.CandidateCompany, metricsAddr string, log *zap.Logger) (*model.RunResult, error) {

	runCtx := context.Background()
	if runTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, runTimeout)
		defer cancel()
	}

	done, finish := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(done)

	var run *model.RunResult
	g.Go(func() error {
		defer finish()
		r, err := coord.Run(runCtx, profile, seeds)
		if err != nil {
			return err
		}
		run = r
		return nil
	})

	g.Go(func() error {
		select {
		case <-sigCtx.Done():
			log.Warn("interrupt received, cancelling run")
			coord.Cancel()
		case <-gctx.Done():
			// a failed metrics server also stops the run
			coord.Cancel()
		}
		return nil
	})

	if metricsAddr != "" {
		g.Go(func() error {
			return metrics.Serve(gctx, metricsAddr, coord, log.Named("metrics"))
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return run, nil
}

func writeJSON(path string, run *model.RunResult) error {
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}

func saveRun(ctx context.Context, cfg model.StoreConfig, run *model.RunResult, log *zap.Logger) error {
	if cfg.Migrate {
		if err := store.RunMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
	}
	s, err := store.New(ctx, cfg.DatabaseURL, log.Named("store"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer s.Close()

	if err := s.SaveRun(ctx, run); err != nil {
		return fmt.Errorf("store run: %w", err)
	}
	return nil
}
