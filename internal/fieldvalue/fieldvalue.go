// Package fieldvalue normalizes and compares extracted values according to
// the declared type of their field definition. The merge policy and the
// evaluation engine both rely on these canonical forms, so "2024-01-01" and
// "01/01/2024" count as the same date regardless of which extractor
// produced them.
package fieldvalue

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"tabrev/internal/models"
)

const isoDate = "2006-01-02"

var dateLayouts = []string{
	isoDate,
	"01/02/2006",
	"1/2/2006",
	"02/01/2006",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2006/01/02",
}

var (
	currencyAmountRe = regexp.MustCompile(`([0-9][0-9,]*(?:\.[0-9]+)?)`)
	currencyCodeRe   = regexp.MustCompile(`\b(USD|EUR|GBP|CAD|AUD|JPY|CHF)\b`)
	spacesRe         = regexp.MustCompile(`\s+`)
)

var currencySymbols = map[string]string{"$": "USD", "€": "EUR", "£": "GBP", "¥": "JPY"}

// Normalize returns the canonical form of raw for the given field type. The
// second return is false when raw cannot be interpreted as the declared
// type; callers keep the raw value but treat it as unnormalized.
func Normalize(def models.FieldDefinition, raw string) (string, bool) {
	v := strings.TrimSpace(spacesRe.ReplaceAllString(raw, " "))
	if v == "" {
		return "", false
	}
	switch def.Type {
	case models.FieldDate:
		return normalizeDate(v)
	case models.FieldCurrency:
		return normalizeCurrency(v)
	case models.FieldBoolean:
		return normalizeBoolean(v)
	case models.FieldEnum:
		for _, allowed := range def.EnumValues {
			if strings.EqualFold(strings.TrimSpace(allowed), v) {
				return allowed, true
			}
		}
		return v, false
	default:
		return v, true
	}
}

// Equal reports type-aware equality of two raw values. Both sides are
// normalized first; comparison of the canonical forms is case-insensitive.
func Equal(def models.FieldDefinition, a, b string) bool {
	na, _ := Normalize(def, a)
	nb, _ := Normalize(def, b)
	return strings.EqualFold(na, nb)
}

func normalizeDate(v string) (string, bool) {
	trimmed := strings.TrimRight(v, ".,;")
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.Format(isoDate), true
		}
	}
	// Dates embedded in longer phrases ("effective as of March 1, 2024").
	if m := regexp.MustCompile(`\d{4}-\d{2}-\d{2}`).FindString(trimmed); m != "" {
		if t, err := time.Parse(isoDate, m); err == nil {
			return t.Format(isoDate), true
		}
	}
	if m := regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{4}`).FindString(trimmed); m != "" {
		if t, err := time.Parse("1/2/2006", m); err == nil {
			return t.Format(isoDate), true
		}
	}
	return v, false
}

func normalizeCurrency(v string) (string, bool) {
	code := ""
	if m := currencyCodeRe.FindString(strings.ToUpper(v)); m != "" {
		code = m
	}
	if code == "" {
		for sym, c := range currencySymbols {
			if strings.Contains(v, sym) {
				code = c
				break
			}
		}
	}
	if code == "" {
		code = "USD"
	}
	m := currencyAmountRe.FindString(v)
	if m == "" {
		return v, false
	}
	amount := strings.ReplaceAll(m, ",", "")
	if !strings.Contains(amount, ".") {
		amount += ".00"
	}
	return fmt.Sprintf("%s %s", code, amount), true
}

var (
	booleanTrueRe  = regexp.MustCompile(`\b(yes|true|agreed|confirmed)\b`)
	booleanFalseRe = regexp.MustCompile(`\b(no|false|denied|rejected|none)\b`)
)

func normalizeBoolean(v string) (string, bool) {
	lower := strings.ToLower(v)
	// Negation wins over affirmation ("shall not be liable").
	if strings.Contains(lower, "not") || booleanFalseRe.MatchString(lower) {
		return "false", true
	}
	if booleanTrueRe.MatchString(lower) {
		return "true", true
	}
	return v, false
}
