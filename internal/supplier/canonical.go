package supplier

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/apflow/resolve/internal/hashing"
	"github.com/apflow/resolve/internal/model"
)

// ErrValidation marks malformed ingestion input. A validation failure
// rejects the specific item only; it never aborts a batch.
var ErrValidation = eris.New("supplier: validation failed")

// CanonicalAddress normalizes an observed address into its canonical
// structured form. Empty components are dropped so that incidental blanks
// do not change the dedup hash.
func CanonicalAddress(a model.AddressFields) map[string]any {
	out := map[string]any{}
	put := func(k, v string) {
		if s := strings.Join(strings.Fields(strings.ToLower(v)), " "); s != "" {
			out[k] = s
		}
	}
	put("line1", a.Line1)
	put("line2", a.Line2)
	put("city", a.City)
	put("region", a.Region)
	put("country", a.Country)
	if pc := strings.ToUpper(strings.Join(strings.Fields(a.PostalCode), " ")); pc != "" {
		out["postal_code"] = pc
	}
	return out
}

// CanonicalContact normalizes a contact point. Emails lowercase; phones
// keep digits and a leading +; websites drop protocol and trailing slash.
func CanonicalContact(c model.ContactFields) (string, map[string]any, error) {
	v := strings.TrimSpace(c.Value)
	if v == "" {
		return "", nil, eris.Wrap(ErrValidation, "contact value is empty")
	}
	switch c.Kind {
	case "email":
		v = strings.ToLower(v)
		if !strings.Contains(v, "@") {
			return "", nil, eris.Wrapf(ErrValidation, "not an email address: %q", v)
		}
		return AttrEmail, map[string]any{"email": v}, nil
	case "phone":
		digits := normalizePhone(v)
		if len(strings.TrimPrefix(digits, "+")) < 7 {
			return "", nil, eris.Wrapf(ErrValidation, "phone number too short: %q", v)
		}
		return AttrPhone, map[string]any{"phone": digits}, nil
	case "website":
		return AttrWebsite, map[string]any{"url": normalizeURL(v)}, nil
	default:
		return "", nil, eris.Wrapf(ErrValidation, "unknown contact kind %q", c.Kind)
	}
}

func normalizePhone(v string) string {
	var b strings.Builder
	for i, r := range v {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func normalizeURL(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	v = strings.TrimPrefix(v, "https://")
	v = strings.TrimPrefix(v, "http://")
	v = strings.TrimPrefix(v, "www.")
	return strings.TrimSuffix(v, "/")
}

// CanonicalBankAccount normalizes a bank account. Sort code and account
// number keep digits only; IBAN uppercases and strips spaces. An account
// needs either an IBAN or a sort code + account number pair.
func CanonicalBankAccount(b model.BankAccountFields) (map[string]any, error) {
	out := map[string]any{}
	if name := strings.Join(strings.Fields(strings.ToLower(b.AccountName)), " "); name != "" {
		out["account_name"] = name
	}
	sortCode := digitsOnly(b.SortCode)
	accountNumber := digitsOnly(b.AccountNumber)
	iban := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(b.IBAN), " ", ""))

	if iban != "" {
		if len(iban) < 15 || len(iban) > 34 {
			return nil, eris.Wrapf(ErrValidation, "IBAN length %d out of range", len(iban))
		}
		out["iban"] = iban
	}
	if sortCode != "" || accountNumber != "" {
		if len(sortCode) != 6 {
			return nil, eris.Wrapf(ErrValidation, "sort code must be 6 digits, got %q", b.SortCode)
		}
		if len(accountNumber) != 8 {
			return nil, eris.Wrapf(ErrValidation, "account number must be 8 digits, got %q", b.AccountNumber)
		}
		out["sort_code"] = sortCode
		out["account_number"] = accountNumber
	}
	if out["iban"] == nil && out["account_number"] == nil {
		return nil, eris.Wrap(ErrValidation, "bank account needs an IBAN or sort code and account number")
	}
	return out, nil
}

func digitsOnly(v string) string {
	var b strings.Builder
	for _, r := range v {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CanonicalIdentifier normalizes a registered identifier (company number
// or VAT number): uppercase, alphanumeric only.
func CanonicalIdentifier(value string) (string, error) {
	var b strings.Builder
	for _, r := range strings.ToUpper(strings.TrimSpace(value)) {
		if (r >= '0' && r <= '9') || (r >= 'A' && r <= 'Z') {
			b.WriteRune(r)
		}
	}
	id := b.String()
	if len(id) < 4 {
		return "", eris.Wrapf(ErrValidation, "identifier too short: %q", value)
	}
	return id, nil
}

// HashValue derives the ledger dedup hash for a canonical attribute value.
func HashValue(attributeType string, canonical map[string]any) string {
	return hashing.AttributeHash(attributeType, canonical)
}
