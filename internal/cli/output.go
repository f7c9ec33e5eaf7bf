package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/ppiankov/dealscout/internal/logger"
	"github.com/ppiankov/dealscout/internal/model"
)

const nameWidth = 32

// printRanking writes the ranked table and the run summary.
// top limits the table rows; 0 prints every candidate.
func printRanking(w io.Writer, run *model.RunResult, top int) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	fmt.Fprintf(w, "  Ranked Candidates (run %s, %s)\n", run.RunID, run.State)
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tCOMPANY\tDOMAIN\tFIT\tCONFIDENCE\tSTATUS")
	for i := range run.Candidates {
		if top > 0 && i >= top {
			break
		}
		sc := &run.Candidates[i]
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.1f\t%.2f\t%s\n",
			sc.Rank,
			logger.TruncateForLog(sc.Name(), nameWidth),
			sc.Candidate.Domain,
			sc.FitScore,
			sc.Confidence,
			candidateStatus(sc))
	}
	_ = tw.Flush()

	if top > 0 && len(run.Candidates) > top {
		fmt.Fprintf(w, "  ... %d more in the JSON output\n", len(run.Candidates)-top)
	}

	if len(run.Failures) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Failed candidates:")
		for _, f := range run.Failures {
			fmt.Fprintf(w, "  ✗ %s: %s\n", f.Name, f.Error)
		}
	}

	s := run.Stats
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Found:      %d\n", s.Found)
	fmt.Fprintf(w, "  Enriched:   %d\n", s.Enriched)
	fmt.Fprintf(w, "  Scored:     %d\n", s.Scored)
	fmt.Fprintf(w, "  Pages:      %d fetched, %d cached, %d excluded by robots, %d failed\n",
		s.PagesFetched, s.PagesCached, s.PolicyExcluded, s.FetchFailures)
	if !run.FinishedAt.IsZero() {
		fmt.Fprintf(w, "  Duration:   %s\n", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	}
	if run.State == model.RunCancelled {
		fmt.Fprintln(w, "  ⚠ Run cancelled: the ranking covers the candidates scored before the interrupt")
	}
	fmt.Fprintln(w)
}

func candidateStatus(sc *model.ScoredCandidate) string {
	if sc.IsDisqualified {
		return "disqualified: " + strings.Join(sc.DisqualificationReasons, "; ")
	}
	if len(sc.MatchSummary) > 0 {
		return sc.MatchSummary[0]
	}
	return "qualified"
}
