package supplier

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/apflow/resolve/internal/config"
	"github.com/apflow/resolve/internal/db"
	"github.com/apflow/resolve/internal/model"
	"github.com/apflow/resolve/internal/resilience"
)

// Ingestion result actions.
const (
	ActionCreated = "created"
	ActionMatched = "matched"
	ActionSkipped = "skipped"
	ActionFailed  = "failed"
)

// IngestionRequest is one supplier observation from an ingestion channel.
type IngestionRequest struct {
	TenantID string `json:"tenant_id"`
	Source   string `json:"source"`
	SourceID string `json:"source_id,omitempty"`

	Name          string                    `json:"name"`
	CompanyNumber string                    `json:"company_number,omitempty"`
	VATNumber     string                    `json:"vat_number,omitempty"`
	Addresses     []model.AddressFields     `json:"addresses,omitempty"`
	Contacts      []model.ContactFields     `json:"contacts,omitempty"`
	BankAccounts  []model.BankAccountFields `json:"bank_accounts,omitempty"`
}

// IngestResult reports what one ingestion did. Skipped and failed are
// distinct so operators can tell "needs human judgment" from "system
// error".
type IngestResult struct {
	Success    bool    `json:"success"`
	Action     string  `json:"action"`
	SupplierID string  `json:"supplier_id,omitempty"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// Orchestrator is the top-level supplier ingestion entry point. Each
// request runs as one database transaction: match, create-or-reuse,
// record every observed attribute, commit. A failure anywhere rolls the
// whole ingestion back so a supplier is never left with a half-applied
// attribute set.
type Orchestrator struct {
	pool   db.Pool
	cfg    config.MatchingConfig
	policy PrimaryPolicy
	retry  resilience.RetryConfig
}

// NewOrchestrator creates an Orchestrator over pool.
func NewOrchestrator(pool db.Pool, cfg config.MatchingConfig) *Orchestrator {
	retry := resilience.DefaultRetryConfig()
	retry.ShouldRetry = retryableIngestErr
	return &Orchestrator{
		pool:   pool,
		cfg:    cfg,
		policy: DefaultPrimaryPolicy(),
		retry:  retry,
	}
}

// retryableIngestErr marks an ingest attempt worth rerunning. Besides
// transient storage failures, unique-constraint races (a concurrent
// ingestion winning a supplier row, or a primary flip colliding) are
// retryable: the rolled-back attempt reruns and re-matches onto the
// winner's row.
func retryableIngestErr(err error) bool {
	return resilience.IsTransient(err) || resilience.IsUniqueViolation(err)
}

// Ingest resolves and records one supplier observation. Transient storage
// failures are retried whole; every attempt is idempotent given the same
// input.
func (o *Orchestrator) Ingest(ctx context.Context, req IngestionRequest) IngestResult {
	if err := validateRequest(req); err != nil {
		return IngestResult{Success: false, Action: ActionFailed, Error: err.Error()}
	}

	var result IngestResult
	err := resilience.Do(ctx, o.retry, func(ctx context.Context) error {
		r, err := o.ingestOnce(ctx, req)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		fields := []zap.Field{
			zap.String("component", "supplier.orchestrator"),
			zap.String("tenant_id", req.TenantID),
			zap.String("source", req.Source),
			zap.Error(err),
		}
		if name := resilience.ConstraintName(err); name != "" {
			fields = append(fields, zap.String("constraint", name))
		}
		zap.L().Error("supplier ingestion failed", fields...)
		return IngestResult{Success: false, Action: ActionFailed, Error: err.Error()}
	}
	return result
}

func validateRequest(req IngestionRequest) error {
	if strings.TrimSpace(req.TenantID) == "" {
		return eris.Wrap(ErrValidation, "tenant_id is required")
	}
	if !model.ValidSource(req.Source) {
		return eris.Wrapf(ErrValidation, "unknown source %q", req.Source)
	}
	return nil
}

func (o *Orchestrator) ingestOnce(ctx context.Context, req IngestionRequest) (IngestResult, error) {
	tx, err := o.pool.Begin(ctx)
	if err != nil {
		return IngestResult{}, eris.Wrap(err, "supplier: begin ingest")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := NewPostgresStore(tx)
	matcher := NewMatcher(store, o.cfg)
	ledger := NewLedger(store, o.policy)

	match, err := matcher.Match(ctx, MatchRequest{
		TenantID:      req.TenantID,
		Name:          req.Name,
		CompanyNumber: req.CompanyNumber,
		VATNumber:     req.VATNumber,
	})
	if err != nil {
		return IngestResult{}, err
	}

	result := IngestResult{Success: true, Confidence: match.Confidence, Reason: match.Reason}

	var sup *Supplier
	switch {
	case match.Outcome == OutcomeMatched:
		sup = match.Supplier
		result.Action = ActionMatched

	case match.Outcome == OutcomeInsufficient || match.Reason == ReasonAmbiguous:
		// Queue for manual review; commit no supplier mutation.
		result.Action = ActionSkipped
		return result, nil

	default:
		sup, result.Action, err = o.createSupplier(ctx, store, req)
		if err != nil {
			return IngestResult{}, err
		}
		if result.Action == ActionCreated {
			result.Confidence = 1.0
			result.Reason = "created"
		}
	}
	result.SupplierID = sup.ID

	if err := o.recordAttributes(ctx, ledger, sup.ID, req); err != nil {
		return IngestResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return IngestResult{}, eris.Wrap(err, "supplier: commit ingest")
	}
	return result, nil
}

// createSupplier inserts a new supplier with a collision-avoiding slug.
// The unique index on (tenant_id, normalized_name) is the serialization
// point for concurrent create-new races: the loser re-reads and falls back
// to the matched path.
func (o *Orchestrator) createSupplier(ctx context.Context, store Store, req IngestionRequest) (*Supplier, string, error) {
	name := strings.TrimSpace(req.Name)
	sup := &Supplier{
		TenantID:       req.TenantID,
		LegalName:      name,
		DisplayName:    name,
		NormalizedName: NormalizeName(name),
		Status:         StatusActive,
	}
	if v, err := CanonicalIdentifier(req.CompanyNumber); req.CompanyNumber != "" && err == nil {
		sup.CompanyNumber = &v
	}
	if v, err := CanonicalIdentifier(req.VATNumber); req.VATNumber != "" && err == nil {
		sup.VATNumber = &v
	}

	base := Slugify(name)
	if base == "" {
		base = "supplier"
	}
	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		sup.Slug = slugCandidate(base, attempt)

		taken, err := store.SlugExists(ctx, req.TenantID, sup.Slug)
		if err != nil {
			return nil, "", err
		}
		if taken {
			continue
		}

		created, err := store.CreateSupplier(ctx, sup)
		if err != nil {
			return nil, "", err
		}
		if created {
			zap.L().Info("supplier created",
				zap.String("component", "supplier.orchestrator"),
				zap.String("tenant_id", req.TenantID),
				zap.String("supplier_id", sup.ID),
				zap.String("slug", sup.Slug),
			)
			return sup, ActionCreated, nil
		}

		// Conflict: either a concurrent ingestion created this vendor
		// (normalized name) or the slug raced. Re-read by name first.
		existing, err := store.GetByNormalizedName(ctx, req.TenantID, sup.NormalizedName)
		if err != nil {
			return nil, "", err
		}
		if existing != nil {
			zap.L().Info("lost creation race, matched existing supplier",
				zap.String("component", "supplier.orchestrator"),
				zap.String("tenant_id", req.TenantID),
				zap.String("supplier_id", existing.ID),
			)
			return existing, ActionMatched, nil
		}
		// Slug collision with a differently named supplier: next candidate.
	}
	return nil, "", eris.Errorf("supplier: no free slug for %q after %d attempts", base, maxSlugAttempts)
}

// recordAttributes merges every observed attribute from the request.
// A value that fails canonical validation rejects that value only; the
// rest of the ingestion proceeds.
func (o *Orchestrator) recordAttributes(ctx context.Context, ledger *Ledger, supplierID string, req IngestionRequest) error {
	log := zap.L().With(
		zap.String("component", "supplier.orchestrator"),
		zap.String("supplier_id", supplierID),
	)

	record := func(obs Observation) error {
		_, err := ledger.RecordAttribute(ctx, supplierID, obs)
		if err != nil && eris.Is(err, ErrValidation) {
			log.Warn("dropping invalid attribute",
				zap.String("attribute_type", obs.AttributeType),
				zap.Error(err),
			)
			return nil
		}
		return err
	}

	for _, ident := range []struct {
		attrType, raw string
	}{
		{AttrCompanyNumber, req.CompanyNumber},
		{AttrVATNumber, req.VATNumber},
	} {
		if ident.raw == "" {
			continue
		}
		value, err := CanonicalIdentifier(ident.raw)
		if err != nil {
			log.Warn("dropping invalid identifier", zap.String("attribute_type", ident.attrType), zap.Error(err))
			continue
		}
		obs := Observation{
			AttributeType: ident.attrType,
			Value:         map[string]any{"value": value},
			Source:        req.Source,
			SourceID:      req.SourceID,
			Confidence:    100,
		}
		if err := record(obs); err != nil {
			return err
		}
	}

	for _, a := range req.Addresses {
		value := CanonicalAddress(a)
		if len(value) == 0 {
			continue
		}
		if err := record(Observation{
			AttributeType: AttrAddress,
			Value:         value,
			Source:        req.Source,
			SourceID:      req.SourceID,
			Confidence:    toConfidence(a.Confidence),
		}); err != nil {
			return err
		}
	}

	for _, c := range req.Contacts {
		attrType, value, err := CanonicalContact(c)
		if err != nil {
			log.Warn("dropping invalid contact", zap.String("kind", c.Kind), zap.Error(err))
			continue
		}
		if err := record(Observation{
			AttributeType: attrType,
			Value:         value,
			Source:        req.Source,
			SourceID:      req.SourceID,
			Confidence:    toConfidence(c.Confidence),
		}); err != nil {
			return err
		}
	}

	for _, b := range req.BankAccounts {
		value, err := CanonicalBankAccount(b)
		if err != nil {
			log.Warn("dropping invalid bank account", zap.Error(err))
			continue
		}
		if err := record(Observation{
			AttributeType: AttrBankAccount,
			Value:         value,
			Source:        req.Source,
			SourceID:      req.SourceID,
			Confidence:    toConfidence(b.Confidence),
		}); err != nil {
			return err
		}
	}

	return nil
}

// toConfidence converts an extraction confidence in [0,1] to the ledger's
// 0-100 scale, defaulting absent values to a mid confidence.
func toConfidence(v float64) int {
	if v <= 0 {
		return 50
	}
	if v > 1 {
		return 100
	}
	return int(v*100 + 0.5)
}
