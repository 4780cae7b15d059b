// Package similarity computes pairwise similarity scores for invoice
// identity fields and combines them into a weighted overall score.
// Pure functions only; all results are clamped to [0,1].
package similarity

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/apflow/resolve/internal/hashing"
)

// Score factor keys used in breakdowns and weight maps.
const (
	FactorVendorName    = "vendor_name"
	FactorInvoiceNumber = "invoice_number"
	FactorInvoiceDate   = "invoice_date"
	FactorTotalAmount   = "total_amount"
)

// VendorSimilarity scores two vendor names. Exact case-insensitive match is
// 1.0; otherwise normalized Levenshtein distance. Empty input on either
// side scores 0.
func VendorSimilarity(a, b string) float64 {
	a = hashing.NormalizeVendorName(a)
	b = hashing.NormalizeVendorName(b)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	// Levenshtein counts rune edits, so the denominator must count runes
	// too; byte lengths overstate similarity for non-ASCII names.
	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxLen {
		maxLen = n
	}
	score := 1 - float64(Levenshtein(a, b))/float64(maxLen)
	return clamp01(score)
}

// DateProximity scores how close two dates are, in bands of toleranceDays.
// Same day is 1.0, within tolerance 0.9, within twice the tolerance 0.7,
// within a week's worth of tolerances 0.5, else 0. Missing or unparseable
// dates score 0.
func DateProximity(a, b string, toleranceDays int) float64 {
	if toleranceDays <= 0 {
		toleranceDays = 1
	}
	da, okA := parseDay(a)
	db, okB := parseDay(b)
	if !okA || !okB {
		return 0
	}
	days := int(math.Abs(da.Sub(db).Hours()) / 24)
	switch {
	case days == 0:
		return 1
	case days <= toleranceDays:
		return 0.9
	case days <= 2*toleranceDays:
		return 0.7
	case days <= 7*toleranceDays:
		return 0.5
	default:
		return 0
	}
}

func parseDay(s string) (time.Time, bool) {
	norm := hashing.NormalizeDate(s)
	if norm == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", norm)
	return t, err == nil
}

// AmountMatch scores two monetary amounts. Exact match is 1.0; a difference
// within the absolute tolerance (rounding artifacts) is 0.95; within 1%
// relative is 0.9; within 5% is 0.7; else 0. A missing amount on either
// side scores 0.
func AmountMatch(a, b *float64, tolerance float64) float64 {
	if a == nil || b == nil {
		return 0
	}
	if tolerance <= 0 {
		tolerance = 0.01
	}
	av, bv := *a, *b
	if av == bv {
		return 1
	}
	// Slack for float64 representation error: 24.60-24.59 is a hair over
	// 0.01 in binary, but a penny apart is a penny apart.
	diff := math.Abs(av - bv)
	if diff <= tolerance+1e-9 {
		return 0.95
	}
	base := math.Max(math.Abs(av), math.Abs(bv))
	if base == 0 {
		return 0
	}
	rel := diff / base
	switch {
	case rel <= 0.01:
		return 0.9
	case rel <= 0.05:
		return 0.7
	default:
		return 0
	}
}

// InvoiceNumberMatch scores two invoice numbers after trim+uppercase
// normalization. Exact is 1.0; one containing the other (prefix/suffix
// artifacts from OCR or numbering schemes) is 0.8; else 0.
func InvoiceNumberMatch(a, b string) float64 {
	a = hashing.NormalizeInvoiceNumber(a)
	b = hashing.NormalizeInvoiceNumber(b)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return 0.8
	}
	return 0
}

// OverallScore combines per-factor scores into a weighted average. Weights
// are renormalized by their sum, so a partial weight set still yields a
// valid [0,1] score. Factors absent from scores contribute nothing.
func OverallScore(scores, weights map[string]float64) float64 {
	var sum, weightSum float64
	for factor, w := range weights {
		if w <= 0 {
			continue
		}
		s, ok := scores[factor]
		if !ok {
			continue
		}
		sum += clamp01(s) * w
		weightSum += w
	}
	if weightSum == 0 {
		return 0
	}
	return clamp01(sum / weightSum)
}

// Levenshtein computes edit distance with the classic dynamic-programming
// table. Input sizes here are vendor names and invoice numbers, so no
// early-exit optimization is needed.
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
