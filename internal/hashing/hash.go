// Package hashing computes content hashes and composite fingerprints.
// Everything here is pure: no I/O, no clock, deterministic output.
package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
	"time"
)

// SHA256 returns the lowercase hex SHA-256 digest of b.
func SHA256(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// SHA256String returns the lowercase hex SHA-256 digest of s.
func SHA256String(s string) string {
	return SHA256([]byte(s))
}

// CompositeHash hashes a named field set into a content-derived key.
// Keys are sorted lexicographically and each value is normalized before
// joining with "|", so identical logical content always hashes identically
// regardless of key insertion order or incidental whitespace and case.
func CompositeHash(fields map[string]any) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+normalizeValue(fields[k]))
	}
	return SHA256String(strings.Join(parts, "|"))
}

// normalizeValue renders a field value in its canonical string form.
// Strings are trimmed and lowercased, dates become ISO-8601 days, numbers
// are stringified minimally, nil becomes the empty string.
func normalizeValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.ToLower(strings.TrimSpace(t))
	case time.Time:
		return t.Format("2006-01-02")
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return strings.ToLower(strings.TrimSpace(stringify(t)))
	}
}

func stringify(v any) string {
	if s, ok := v.(interface{ String() string }); ok {
		return s.String()
	}
	return ""
}

// fingerprintDateLayouts are the date shapes extraction output is known to
// emit. First match wins.
var fingerprintDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"02/01/2006",
	"02-01-2006",
	"2 January 2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// NormalizeDate canonicalizes a date string to YYYY-MM-DD, or "" when the
// input is empty or unparseable.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, layout := range fingerprintDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return ""
}

// NormalizeVendorName trims, lowercases and collapses internal whitespace.
func NormalizeVendorName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// NormalizeInvoiceNumber trims and uppercases.
func NormalizeInvoiceNumber(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// NormalizeAmount renders an amount as a 2-decimal fixed string.
func NormalizeAmount(a float64) string {
	return strconv.FormatFloat(a, 'f', 2, 64)
}

// NormalizeCurrency uppercases a 3-letter currency code, defaulting to GBP
// when empty.
func NormalizeCurrency(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return "GBP"
	}
	return s
}

// InvoiceFingerprint derives the identity hash for an invoice from its five
// identity fields. Missing fields normalize to the empty string, so a
// partial extraction still fingerprints deterministically.
func InvoiceFingerprint(vendorName, invoiceNumber, date string, amount *float64, currency string) string {
	amt := ""
	if amount != nil {
		amt = NormalizeAmount(*amount)
	}
	return CompositeHash(map[string]any{
		"vendor_name":    NormalizeVendorName(vendorName),
		"invoice_number": NormalizeInvoiceNumber(invoiceNumber),
		"date":           NormalizeDate(date),
		"amount":         amt,
		"currency":       NormalizeCurrency(currency),
	})
}

// AttributeHash derives the dedup key for one supplier attribute value.
// The caller passes the canonical structured form; the type tag keeps
// identical payloads of different attribute types from colliding.
func AttributeHash(attributeType string, canonical map[string]any) string {
	fields := make(map[string]any, len(canonical)+1)
	for k, v := range canonical {
		fields[k] = v
	}
	fields["_type"] = attributeType
	return CompositeHash(fields)
}
