package extractor

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"fleetdocs/internal/domain"
)

// Known issuing organisations, keyed by normalized full name.
var issuerAbbreviations = map[string]string{
	"panama maritime authority":                               "PMA",
	"autoridad maritima de panama":                            "PMA",
	"lloyds register":                                         "LR",
	"lloyds register of shipping":                             "LR",
	"det norske veritas":                                      "DNV",
	"dnv gl":                                                  "DNV",
	"american bureau of shipping":                             "ABS",
	"bureau veritas":                                          "BV",
	"nippon kaiji kyokai":                                     "NK",
	"classnk":                                                 "NK",
	"registro italiano navale":                                "RINA",
	"korean register of shipping":                             "KR",
	"korean register":                                         "KR",
	"china classification society":                            "CCS",
	"indian register of shipping":                             "IRClass",
	"russian maritime register of shipping":                   "RS",
	"croatian register of shipping":                           "CRS",
	"polish register of shipping":                             "PRS",
	"hellenic register of shipping":                           "HRS",
	"vietnam register":                                        "VR",
	"turk loydu":                                              "TL",
	"liberia maritime authority":                              "LiMA",
	"liberian international ship and corporate registry":      "LISCR",
	"republic of the marshall islands maritime administrator": "RMI",
	"maritime and port authority of singapore":                "MPA",
	"marine department hong kong":                             "HKMD",
	"malta transport authority":                               "TM",
	"bahamas maritime authority":                              "BMA",
	"cyprus shipping deputy ministry":                         "SDM",
}

// issuerKeys holds the table keys longest first, so the most specific name
// wins when matching inside a longer string.
var issuerKeys = func() []string {
	keys := make([]string, 0, len(issuerAbbreviations))
	for k := range issuerAbbreviations {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}()

var nonAlnum = regexp.MustCompile(`[^a-z0-9 ]+`)

func normalizeName(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "&", " and ")
	s = strings.ReplaceAll(s, "'", "")
	s = strings.ReplaceAll(s, "’", "")
	s = nonAlnum.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// AbbreviateIssuer maps a known organisation name to its abbreviation.
// Unknown names are returned unchanged.
func AbbreviateIssuer(name string) string {
	n := normalizeName(name)
	if n == "" {
		return name
	}
	if abbr, ok := issuerAbbreviations[n]; ok {
		return abbr
	}
	padded := " " + n + " "
	for _, k := range issuerKeys {
		if strings.Contains(padded, " "+k+" ") {
			return issuerAbbreviations[k]
		}
	}
	return name
}

var (
	bracketedDate = regexp.MustCompile(`[(\[]\s*(\d{1,2})\s*/\s*(\d{1,2})\s*/\s*(\d{4})\s*[)\]]`)
	numericDate   = regexp.MustCompile(`^(\d{1,2})[/.\-](\d{1,2})[/.\-](\d{4})$`)
	isoDate       = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})(?:[T ].*)?$`)
	dayMonthYear  = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?(?:\s+of)?[\s\-/]+([a-z]{3,9})\.?,?[\s\-/]+(\d{4})\b`)
	monthDayYear  = regexp.MustCompile(`(?i)\b([a-z]{3,9})\.?\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})\b`)
	embeddedDate  = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`)
)

var monthNames = []string{
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
}

func monthNumber(token string) (int, bool) {
	t := strings.ToLower(token)
	if t == "sept" {
		t = "sep"
	}
	if len(t) < 3 {
		return 0, false
	}
	for i, m := range monthNames {
		if strings.HasPrefix(m, t) {
			return i + 1, true
		}
	}
	return 0, false
}

func formatDate(day, month, year int) (string, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return "", false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return "", false
	}
	return fmt.Sprintf("%02d/%02d/%04d", day, month, year), true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// NormalizeDate converts a date value to zero-padded DD/MM/YYYY. A bracketed
// numeric date takes precedence over any verbose form in the same value.
// It reports false, returning the input unchanged, when no date is found.
func NormalizeDate(value string) (string, bool) {
	s := strings.TrimSpace(value)
	if s == "" {
		return value, false
	}

	if m := bracketedDate.FindStringSubmatch(s); m != nil {
		if out, ok := formatDate(atoi(m[1]), atoi(m[2]), atoi(m[3])); ok {
			return out, true
		}
	}
	if m := numericDate.FindStringSubmatch(s); m != nil {
		if out, ok := formatDate(atoi(m[1]), atoi(m[2]), atoi(m[3])); ok {
			return out, true
		}
		return value, false
	}
	if m := isoDate.FindStringSubmatch(s); m != nil {
		if out, ok := formatDate(atoi(m[3]), atoi(m[2]), atoi(m[1])); ok {
			return out, true
		}
	}
	for _, m := range dayMonthYear.FindAllStringSubmatch(s, -1) {
		if month, ok := monthNumber(m[2]); ok {
			if out, ok := formatDate(atoi(m[1]), month, atoi(m[3])); ok {
				return out, true
			}
		}
	}
	for _, m := range monthDayYear.FindAllStringSubmatch(s, -1) {
		if month, ok := monthNumber(m[1]); ok {
			if out, ok := formatDate(atoi(m[2]), month, atoi(m[3])); ok {
				return out, true
			}
		}
	}
	if m := embeddedDate.FindStringSubmatch(s); m != nil {
		if out, ok := formatDate(atoi(m[1]), atoi(m[2]), atoi(m[3])); ok {
			return out, true
		}
	}
	return value, false
}

// Normalize abbreviates issuer fields and converts date fields of fm in
// place. It returns the names of non-empty date fields that could not be
// parsed; their values are left as extracted.
func Normalize(schema domain.Schema, fm *domain.FieldMap) ([]string, error) {
	if fm == nil {
		return nil, nil
	}
	rec, err := domain.DecodeRecord(schema.Category, fm)
	if err != nil {
		return nil, err
	}

	if ih, ok := rec.(domain.IssuerHolder); ok {
		for _, p := range ih.IssuerFields() {
			if *p != "" {
				*p = AbbreviateIssuer(*p)
			}
		}
	}
	if dh, ok := rec.(domain.DateHolder); ok {
		for _, p := range dh.DateFields() {
			if *p == "" {
				continue
			}
			if out, ok := NormalizeDate(*p); ok {
				*p = out
			}
		}
	}

	if err := domain.ApplyRecord(rec, fm); err != nil {
		return nil, err
	}

	var unparsed []string
	for _, name := range schema.FieldsOfKind(domain.FieldDate) {
		v := fm.Get(name)
		if v == "" {
			continue
		}
		if _, ok := NormalizeDate(v); !ok {
			unparsed = append(unparsed, name)
		}
	}
	return unparsed, nil
}
