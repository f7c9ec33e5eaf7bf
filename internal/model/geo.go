package model

import "strings"

// countryCodes maps lowercase country names and common aliases to ISO 3166 alpha-2
var countryCodes = map[string]string{
	"united states":            "US",
	"united states of america": "US",
	"usa":                      "US",
	"u.s.":                     "US",
	"u.s.a.":                   "US",
	"america":                  "US",
	"canada":                   "CA",
	"mexico":                   "MX",
	"brazil":                   "BR",
	"argentina":                "AR",
	"chile":                    "CL",
	"colombia":                 "CO",
	"united kingdom":           "GB",
	"uk":                       "GB",
	"u.k.":                     "GB",
	"great britain":            "GB",
	"england":                  "GB",
	"scotland":                 "GB",
	"wales":                    "GB",
	"ireland":                  "IE",
	"germany":                  "DE",
	"france":                   "FR",
	"spain":                    "ES",
	"portugal":                 "PT",
	"italy":                    "IT",
	"netherlands":              "NL",
	"the netherlands":          "NL",
	"belgium":                  "BE",
	"luxembourg":               "LU",
	"switzerland":              "CH",
	"austria":                  "AT",
	"denmark":                  "DK",
	"sweden":                   "SE",
	"norway":                   "NO",
	"finland":                  "FI",
	"iceland":                  "IS",
	"poland":                   "PL",
	"czech republic":           "CZ",
	"czechia":                  "CZ",
	"estonia":                  "EE",
	"latvia":                   "LV",
	"lithuania":                "LT",
	"romania":                  "RO",
	"greece":                   "GR",
	"ukraine":                  "UA",
	"russia":                   "RU",
	"turkey":                   "TR",
	"israel":                   "IL",
	"united arab emirates":     "AE",
	"uae":                      "AE",
	"saudi arabia":             "SA",
	"egypt":                    "EG",
	"nigeria":                  "NG",
	"kenya":                    "KE",
	"south africa":             "ZA",
	"india":                    "IN",
	"pakistan":                 "PK",
	"china":                    "CN",
	"hong kong":                "HK",
	"taiwan":                   "TW",
	"japan":                    "JP",
	"south korea":              "KR",
	"korea":                    "KR",
	"singapore":                "SG",
	"malaysia":                 "MY",
	"indonesia":                "ID",
	"vietnam":                  "VN",
	"thailand":                 "TH",
	"philippines":              "PH",
	"australia":                "AU",
	"new zealand":              "NZ",
}

// usStates lets "Austin, TX" style locations resolve to the United States
var usStates = map[string]bool{
	"al": true, "ak": true, "az": true, "ar": true, "ca": true, "co": true, "ct": true,
	"de": true, "fl": true, "ga": true, "hi": true, "id": true, "il": true, "in": true,
	"ia": true, "ks": true, "ky": true, "la": true, "me": true, "md": true, "ma": true,
	"mi": true, "mn": true, "ms": true, "mo": true, "mt": true, "ne": true, "nv": true,
	"nh": true, "nj": true, "nm": true, "ny": true, "nc": true, "nd": true, "oh": true,
	"ok": true, "or": true, "pa": true, "ri": true, "sc": true, "sd": true, "tn": true,
	"tx": true, "ut": true, "vt": true, "va": true, "wa": true, "wv": true, "wi": true,
	"wy": true, "dc": true,
	"california": true, "new york": true, "texas": true, "massachusetts": true,
	"washington": true, "colorado": true, "illinois": true, "florida": true,
}

// CountryCode resolves a country name, alias or alpha-2 code to an upper-case
// alpha-2 code. Unknown input returns "".
func CountryCode(s string) string {
	s = strings.ToLower(strings.TrimSpace(strings.Trim(s, " .,;")))
	if s == "" {
		return ""
	}
	if code, ok := countryCodes[s]; ok {
		return code
	}
	if len(s) == 2 {
		up := strings.ToUpper(s)
		for _, code := range countryCodes {
			if code == up {
				return code
			}
		}
	}
	return ""
}

// LocationCountry resolves a free-text location ("Austin, TX", "Berlin, Germany")
// by trying its comma-separated parts from the most general end
func LocationCountry(location string) string {
	parts := strings.Split(location, ",")
	for i := len(parts) - 1; i >= 0; i-- {
		part := strings.ToLower(strings.TrimSpace(strings.Trim(parts[i], " .;")))
		if part == "" {
			continue
		}
		if code, ok := countryCodes[part]; ok {
			return code
		}
		if i > 0 && usStates[part] {
			return "US"
		}
	}
	if len(parts) == 1 {
		return CountryCode(location)
	}
	return ""
}

// SameCountry compares two country references after resolving names to codes
func SameCountry(a, b string) bool {
	ca, cb := CountryCode(a), CountryCode(b)
	if ca != "" && cb != "" {
		return ca == cb
	}
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
