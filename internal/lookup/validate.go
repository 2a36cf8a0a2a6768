package lookup

import (
	"fmt"
	"strings"
)

// Warning describes a suspicious lookup row. Warnings never stop a load;
// the row is used as it is.
type Warning struct {
	Line    int
	Name    string
	Field   string
	Value   string
	Message string
}

func (w Warning) String() string {
	if w.Field == "" {
		return fmt.Sprintf("row %d (%s): %s", w.Line, w.Name, w.Message)
	}
	return fmt.Sprintf("row %d (%s): %s %q: %s", w.Line, w.Name, w.Field, w.Value, w.Message)
}

// Validate checks lookup rows for duplicate names, blank identifiers and
// identifiers that are not valid GS1 numbers.
func Validate(rows []Row) []Warning {
	var warnings []Warning
	seen := make(map[string]int, len(rows))

	for _, r := range rows {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			continue
		}

		if first, ok := seen[name]; ok {
			warnings = append(warnings, Warning{
				Line:    r.Line,
				Name:    name,
				Message: fmt.Sprintf("duplicate product name, overrides row %d", first),
			})
		}
		seen[name] = r.Line

		gtin := strings.TrimSpace(r.GTIN)
		ntin := strings.TrimSpace(r.NTIN)
		if gtin == "" && ntin == "" {
			warnings = append(warnings, Warning{Line: r.Line, Name: name, Message: "both identifiers are empty"})
			continue
		}

		for _, f := range []struct{ field, value string }{{"gtin", gtin}, {"ntin", ntin}} {
			if f.value == "" {
				continue
			}
			if msg := checkGS1(f.value); msg != "" {
				warnings = append(warnings, Warning{
					Line:    r.Line,
					Name:    name,
					Field:   f.field,
					Value:   f.value,
					Message: msg,
				})
			}
		}
	}

	return warnings
}

// checkGS1 returns a problem description, or "" for a valid GTIN-8/12/13/14.
func checkGS1(value string) string {
	for _, r := range value {
		if r < '0' || r > '9' {
			return "contains non-digit characters"
		}
	}
	switch len(value) {
	case 8, 12, 13, 14:
	default:
		return fmt.Sprintf("has %d digits, expected 8, 12, 13 or 14", len(value))
	}
	if want := checkDigit(value[:len(value)-1]); want != value[len(value)-1] {
		return fmt.Sprintf("check digit should be %c", want)
	}
	return ""
}

// checkDigit computes the GS1 mod-10 check digit for the body digits.
// Weights alternate 3,1,... starting from the rightmost body digit.
func checkDigit(body string) byte {
	sum := 0
	weight := 3
	for i := len(body) - 1; i >= 0; i-- {
		sum += int(body[i]-'0') * weight
		weight = 4 - weight
	}
	return byte('0' + (10-sum%10)%10)
}
