package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apflow/resolve/internal/similarity"
)

func validMatching() MatchingConfig {
	return MatchingConfig{
		CertainThreshold:          0.95,
		LikelyThreshold:           0.80,
		PossibleThreshold:         0.60,
		VendorNameWeight:          0.3,
		InvoiceNumberWeight:       0.3,
		InvoiceDateWeight:         0.2,
		TotalAmountWeight:         0.2,
		DateToleranceDays:         1,
		AmountTolerance:           0.01,
		SupplierFloor:             0.75,
		SupplierMatchedConfidence: 0.9,
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 0.95, cfg.Matching.CertainThreshold)
	assert.Equal(t, 0.80, cfg.Matching.LikelyThreshold)
	assert.Equal(t, 0.60, cfg.Matching.PossibleThreshold)
	assert.Equal(t, 1, cfg.Matching.DateToleranceDays)
	assert.Equal(t, 0.01, cfg.Matching.AmountTolerance)
	assert.Equal(t, 5, cfg.Ingest.MaxConcurrent)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestMatchingConfig_Weights(t *testing.T) {
	w := validMatching().Weights()
	assert.Equal(t, 0.3, w[similarity.FactorVendorName])
	assert.Equal(t, 0.3, w[similarity.FactorInvoiceNumber])
	assert.Equal(t, 0.2, w[similarity.FactorInvoiceDate])
	assert.Equal(t, 0.2, w[similarity.FactorTotalAmount])
}

func TestMatchingConfig_Validate_OK(t *testing.T) {
	assert.NoError(t, validMatching().Validate())
}

func TestMatchingConfig_Validate_NegativeWeight(t *testing.T) {
	m := validMatching()
	m.VendorNameWeight = -0.1
	err := m.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vendor_name_weight")
}

func TestMatchingConfig_Validate_ZeroWeightSum(t *testing.T) {
	m := validMatching()
	m.VendorNameWeight = 0
	m.InvoiceNumberWeight = 0
	m.InvoiceDateWeight = 0
	m.TotalAmountWeight = 0
	require.Error(t, m.Validate())
}

func TestMatchingConfig_Validate_ThresholdOrder(t *testing.T) {
	m := validMatching()
	m.LikelyThreshold = 0.96
	err := m.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "strictly descending")
}

func TestMatchingConfig_Validate_ThresholdRange(t *testing.T) {
	m := validMatching()
	m.PossibleThreshold = 0
	require.Error(t, m.Validate())
}
