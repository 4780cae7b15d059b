package dedup

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/apflow/resolve/internal/config"
	"github.com/apflow/resolve/internal/hashing"
	"github.com/apflow/resolve/internal/model"
	"github.com/apflow/resolve/internal/similarity"
)

// InvoiceDetector classifies a newly extracted invoice against the
// tenant's prior extractions: an identical fingerprint short-circuits to
// an exact duplicate, otherwise the best-scoring candidate from a bounded
// recency/amount window is classified against the configured thresholds.
type InvoiceDetector struct {
	store ExtractionStore
	cfg   config.MatchingConfig
}

// NewInvoiceDetector creates an InvoiceDetector over store.
func NewInvoiceDetector(store ExtractionStore, cfg config.MatchingConfig) *InvoiceDetector {
	return &InvoiceDetector{store: store, cfg: cfg}
}

// invoiceKey is the scored subset of an extraction.
type invoiceKey struct {
	vendorName    string
	invoiceNumber string
	documentDate  string
	totalAmount   *float64
	currency      string
}

func keyFromFields(f model.ExtractedFields) invoiceKey {
	k := invoiceKey{
		vendorName:    f.VendorName.StringValue(),
		invoiceNumber: f.InvoiceNumber.StringValue(),
		documentDate:  f.DocumentDate.StringValue(),
		currency:      f.Currency.StringValue(),
	}
	if v, ok := f.TotalAmount.FloatValue(); ok {
		amount := v
		k.totalAmount = &amount
	}
	return k
}

func (k invoiceKey) fingerprint() string {
	return hashing.InvoiceFingerprint(k.vendorName, k.invoiceNumber, k.documentDate, k.totalAmount, k.currency)
}

// Check classifies fields against prior extractions in the tenant.
// A missing factor scores 0 on that factor; it never fails the check.
func (d *InvoiceDetector) Check(ctx context.Context, tenantID string, fields model.ExtractedFields) (InvoiceVerdict, error) {
	if strings.TrimSpace(tenantID) == "" {
		return InvoiceVerdict{}, eris.Wrap(ErrValidation, "tenant_id is required")
	}

	key := keyFromFields(fields)
	fingerprint := key.fingerprint()
	log := zap.L().With(
		zap.String("component", "dedup.invoice"),
		zap.String("tenant_id", tenantID),
	)

	exact, err := d.store.FindByFingerprint(ctx, tenantID, fingerprint)
	if err != nil {
		return InvoiceVerdict{}, err
	}
	if exact != nil {
		log.Debug("exact fingerprint match", zap.String("duplicate_extraction_id", exact.ID))
		return InvoiceVerdict{
			IsDuplicate:           true,
			DuplicateExtractionID: exact.ID,
			Fingerprint:           fingerprint,
			DuplicateType:         DuplicateExact,
			Confidence:            1.0,
			Breakdown: ScoreBreakdown{
				VendorMatch: 1, InvoiceNumberMatch: 1, DateProximity: 1, AmountMatch: 1,
				OverallScore: 1,
			},
		}, nil
	}

	candidates, err := d.store.FindCandidates(ctx, tenantID, key.totalAmount)
	if err != nil {
		return InvoiceVerdict{}, err
	}

	var best ScoreBreakdown
	var bestID string
	for i := range candidates {
		breakdown := d.score(key, keyFromFields(candidates[i].Fields))
		if breakdown.OverallScore > best.OverallScore {
			best = breakdown
			bestID = candidates[i].ID
		}
	}

	verdict := InvoiceVerdict{
		Fingerprint: fingerprint,
		Confidence:  best.OverallScore,
		Breakdown:   best,
	}
	switch {
	case bestID != "" && best.OverallScore >= d.cfg.CertainThreshold:
		verdict.DuplicateType = DuplicateExact
	case bestID != "" && best.OverallScore >= d.cfg.LikelyThreshold:
		verdict.DuplicateType = DuplicateLikely
	case bestID != "" && best.OverallScore >= d.cfg.PossibleThreshold:
		verdict.DuplicateType = DuplicatePossible
	default:
		verdict.DuplicateType = DuplicateUnique
	}
	if verdict.DuplicateType != DuplicateUnique {
		verdict.IsDuplicate = true
		verdict.DuplicateExtractionID = bestID
		log.Debug("fuzzy duplicate candidate",
			zap.String("duplicate_extraction_id", bestID),
			zap.String("duplicate_type", verdict.DuplicateType),
			zap.Float64("score", best.OverallScore),
		)
	}
	return verdict, nil
}

func (d *InvoiceDetector) score(a, b invoiceKey) ScoreBreakdown {
	breakdown := ScoreBreakdown{
		VendorMatch:        similarity.VendorSimilarity(a.vendorName, b.vendorName),
		InvoiceNumberMatch: similarity.InvoiceNumberMatch(a.invoiceNumber, b.invoiceNumber),
		DateProximity:      similarity.DateProximity(a.documentDate, b.documentDate, d.cfg.DateToleranceDays),
		AmountMatch:        similarity.AmountMatch(a.totalAmount, b.totalAmount, d.cfg.AmountTolerance),
	}
	breakdown.OverallScore = similarity.OverallScore(map[string]float64{
		similarity.FactorVendorName:    breakdown.VendorMatch,
		similarity.FactorInvoiceNumber: breakdown.InvoiceNumberMatch,
		similarity.FactorInvoiceDate:   breakdown.DateProximity,
		similarity.FactorTotalAmount:   breakdown.AmountMatch,
	}, d.cfg.Weights())
	return breakdown
}

// RegisterExtraction persists fields as a new extraction row carrying the
// verdict's fingerprint, stamped with duplicate_of when the verdict found
// a duplicate.
func (d *InvoiceDetector) RegisterExtraction(ctx context.Context, tenantID, fileID string, fields model.ExtractedFields, verdict InvoiceVerdict) (*model.Extraction, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, eris.Wrap(ErrValidation, "tenant_id is required")
	}
	e := &model.Extraction{
		TenantID:    tenantID,
		FileID:      fileID,
		Fingerprint: verdict.Fingerprint,
		Fields:      fields,
	}
	if e.Fingerprint == "" {
		e.Fingerprint = keyFromFields(fields).fingerprint()
	}
	if verdict.IsDuplicate && verdict.DuplicateExtractionID != "" {
		id := verdict.DuplicateExtractionID
		e.DuplicateOf = &id
	}
	if err := d.store.CreateExtraction(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}
