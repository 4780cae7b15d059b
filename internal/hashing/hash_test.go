package hashing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSHA256_KnownVector(t *testing.T) {
	// sha256("") and sha256("abc") are fixed vectors.
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", SHA256(nil))
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", SHA256String("abc"))
}

func TestCompositeHash_KeyOrderIndependent(t *testing.T) {
	a := CompositeHash(map[string]any{"vendor": "Adobe", "number": "INV-100", "amount": 24.59})
	b := CompositeHash(map[string]any{"amount": 24.59, "number": "INV-100", "vendor": "Adobe"})
	assert.Equal(t, a, b)
}

func TestCompositeHash_NormalizesCaseAndWhitespace(t *testing.T) {
	a := CompositeHash(map[string]any{"vendor": "  Adobe Systems "})
	b := CompositeHash(map[string]any{"vendor": "adobe systems"})
	assert.Equal(t, a, b)
}

func TestCompositeHash_NilIsEmpty(t *testing.T) {
	a := CompositeHash(map[string]any{"x": nil})
	b := CompositeHash(map[string]any{"x": ""})
	assert.Equal(t, a, b)
}

func TestCompositeHash_DistinguishesValues(t *testing.T) {
	a := CompositeHash(map[string]any{"amount": 24.59})
	b := CompositeHash(map[string]any{"amount": 24.60})
	assert.NotEqual(t, a, b)
}

func TestCompositeHash_TimeAsISODate(t *testing.T) {
	ts := time.Date(2024, 1, 15, 13, 45, 0, 0, time.UTC)
	a := CompositeHash(map[string]any{"date": ts})
	b := CompositeHash(map[string]any{"date": "2024-01-15"})
	assert.Equal(t, a, b)
}

func TestNormalizeDate(t *testing.T) {
	cases := map[string]string{
		"2024-01-15":           "2024-01-15",
		"2024-01-15T10:30:00Z": "2024-01-15",
		"15/01/2024":           "2024-01-15",
		"15 January 2024":      "2024-01-15",
		"January 15, 2024":     "2024-01-15",
		"not a date":           "",
		"":                     "",
		"  2024-01-15  ":       "2024-01-15",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeDate(in), "input %q", in)
	}
}

func TestNormalizeVendorName(t *testing.T) {
	assert.Equal(t, "adobe systems", NormalizeVendorName("  Adobe   SYSTEMS "))
	assert.Equal(t, "", NormalizeVendorName("   "))
}

func TestNormalizeCurrency_DefaultsGBP(t *testing.T) {
	assert.Equal(t, "GBP", NormalizeCurrency(""))
	assert.Equal(t, "EUR", NormalizeCurrency(" eur "))
}

func TestInvoiceFingerprint_StableUnderRepresentation(t *testing.T) {
	amt := 24.59
	a := InvoiceFingerprint("Adobe Systems", "inv-100", "2024-01-15", &amt, "gbp")
	b := InvoiceFingerprint("  adobe   systems ", "INV-100", "15/01/2024", &amt, "GBP")
	assert.Equal(t, a, b)
}

func TestInvoiceFingerprint_MissingFields(t *testing.T) {
	a := InvoiceFingerprint("", "", "", nil, "")
	b := InvoiceFingerprint("", "", "", nil, "")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestInvoiceFingerprint_AmountMatters(t *testing.T) {
	a1, a2 := 24.59, 24.60
	assert.NotEqual(t,
		InvoiceFingerprint("Adobe", "INV-100", "2024-01-15", &a1, "GBP"),
		InvoiceFingerprint("Adobe", "INV-100", "2024-01-15", &a2, "GBP"),
	)
}

func TestAttributeHash_TypeTagPreventsCollision(t *testing.T) {
	v := map[string]any{"value": "020 7946 0000"}
	assert.NotEqual(t, AttributeHash("phone", v), AttributeHash("fax", v))
}

func TestAttributeHash_DoesNotMutateInput(t *testing.T) {
	v := map[string]any{"value": "x"}
	AttributeHash("phone", v)
	_, ok := v["_type"]
	assert.False(t, ok)
}
