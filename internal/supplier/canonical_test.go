package supplier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apflow/resolve/internal/model"
)

func TestCanonicalAddress_NormalizesAndDropsBlanks(t *testing.T) {
	got := CanonicalAddress(model.AddressFields{
		Line1:      "  1 High   Street ",
		Line2:      "",
		City:       "LONDON",
		PostalCode: " sw1a 1aa ",
	})
	assert.Equal(t, map[string]any{
		"line1":       "1 high street",
		"city":        "london",
		"postal_code": "SW1A 1AA",
	}, got)
}

func TestCanonicalAddress_HashStableUnderCase(t *testing.T) {
	a := CanonicalAddress(model.AddressFields{Line1: "1 High Street", City: "London"})
	b := CanonicalAddress(model.AddressFields{Line1: " 1  HIGH STREET", City: "LONDON "})
	assert.Equal(t, HashValue(AttrAddress, a), HashValue(AttrAddress, b))
}

func TestCanonicalContact_Email(t *testing.T) {
	attrType, v, err := CanonicalContact(model.ContactFields{Kind: "email", Value: " Billing@Acme.COM "})
	require.NoError(t, err)
	assert.Equal(t, AttrEmail, attrType)
	assert.Equal(t, map[string]any{"email": "billing@acme.com"}, v)
}

func TestCanonicalContact_EmailInvalid(t *testing.T) {
	_, _, err := CanonicalContact(model.ContactFields{Kind: "email", Value: "not-an-email"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCanonicalContact_Phone(t *testing.T) {
	attrType, v, err := CanonicalContact(model.ContactFields{Kind: "phone", Value: "+44 (0)20 7946-0123"})
	require.NoError(t, err)
	assert.Equal(t, AttrPhone, attrType)
	assert.Equal(t, map[string]any{"phone": "+4402079460123"}, v)
}

func TestCanonicalContact_PhoneTooShort(t *testing.T) {
	_, _, err := CanonicalContact(model.ContactFields{Kind: "phone", Value: "12345"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCanonicalContact_Website(t *testing.T) {
	attrType, v, err := CanonicalContact(model.ContactFields{Kind: "website", Value: "https://www.Acme.com/"})
	require.NoError(t, err)
	assert.Equal(t, AttrWebsite, attrType)
	assert.Equal(t, map[string]any{"url": "acme.com"}, v)
}

func TestCanonicalContact_UnknownKind(t *testing.T) {
	_, _, err := CanonicalContact(model.ContactFields{Kind: "fax", Value: "x"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCanonicalBankAccount_SortCodePair(t *testing.T) {
	v, err := CanonicalBankAccount(model.BankAccountFields{
		AccountName:   " Acme  Ltd ",
		SortCode:      "20-00-00",
		AccountNumber: "1234 5678",
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"account_name":   "acme ltd",
		"sort_code":      "200000",
		"account_number": "12345678",
	}, v)
}

func TestCanonicalBankAccount_IBAN(t *testing.T) {
	v, err := CanonicalBankAccount(model.BankAccountFields{IBAN: "gb82 west 1234 5698 7654 32"})
	require.NoError(t, err)
	assert.Equal(t, "GB82WEST12345698765432", v["iban"])
}

func TestCanonicalBankAccount_Invalid(t *testing.T) {
	_, err := CanonicalBankAccount(model.BankAccountFields{})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = CanonicalBankAccount(model.BankAccountFields{SortCode: "12-34", AccountNumber: "12345678"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = CanonicalBankAccount(model.BankAccountFields{IBAN: "SHORT"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCanonicalIdentifier(t *testing.T) {
	v, err := CanonicalIdentifier(" gb 123-456-789 ")
	require.NoError(t, err)
	assert.Equal(t, "GB123456789", v)

	_, err = CanonicalIdentifier("ab1")
	assert.ErrorIs(t, err, ErrValidation)
}
