package supplier

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Ledger merges observed attribute values into a supplier's versioned
// history, with provenance and primary arbitration.
type Ledger struct {
	store  Store
	policy PrimaryPolicy
}

// NewLedger creates a Ledger with the given primary arbitration policy.
func NewLedger(store Store, policy PrimaryPolicy) *Ledger {
	if policy.Outranks == nil {
		policy = DefaultPrimaryPolicy()
	}
	return &Ledger{store: store, policy: policy}
}

// Observation is one attribute sighting to merge.
type Observation struct {
	AttributeType string
	Value         map[string]any // canonical form; see canonical.go
	Source        string
	SourceID      string
	Confidence    int // 0-100
}

// RecordAttribute merges one observation into the ledger. The upsert is a
// single insert-or-increment statement, so concurrent observers of the
// same fact cannot lose updates. If the merged row outranks the current
// primary under the arbitration policy, the primary flag moves to it in
// the same transaction the caller runs this in.
func (l *Ledger) RecordAttribute(ctx context.Context, supplierID string, obs Observation) (*Attribute, error) {
	if obs.AttributeType == "" {
		return nil, eris.Wrap(ErrValidation, "attribute type is required")
	}
	if len(obs.Value) == 0 {
		return nil, eris.Wrap(ErrValidation, "attribute value is empty")
	}
	if obs.Confidence < 0 || obs.Confidence > 100 {
		return nil, eris.Wrapf(ErrValidation, "confidence %d out of range", obs.Confidence)
	}

	attr := &Attribute{
		SupplierID:    supplierID,
		AttributeType: obs.AttributeType,
		Value:         obs.Value,
		Hash:          HashValue(obs.AttributeType, obs.Value),
		Source:        obs.Source,
		Confidence:    obs.Confidence,
	}
	if obs.SourceID != "" {
		attr.SourceID = &obs.SourceID
	}

	created, err := l.store.UpsertAttribute(ctx, attr)
	if err != nil {
		return nil, err
	}

	if AllowsSinglePrimary(obs.AttributeType) {
		if err := l.arbitratePrimary(ctx, attr); err != nil {
			return nil, err
		}
	}

	zap.L().Debug("attribute recorded",
		zap.String("component", "supplier.ledger"),
		zap.String("supplier_id", supplierID),
		zap.String("attribute_type", obs.AttributeType),
		zap.Bool("created", created),
		zap.Int("seen_count", attr.SeenCount),
	)
	return attr, nil
}

// arbitratePrimary promotes attr to primary when no primary exists or attr
// outranks the incumbent.
func (l *Ledger) arbitratePrimary(ctx context.Context, attr *Attribute) error {
	if attr.IsPrimary {
		return nil
	}
	current, err := l.store.GetPrimaryAttribute(ctx, attr.SupplierID, attr.AttributeType)
	if err != nil {
		return err
	}
	if current != nil && !l.policy.Outranks(attr, current) {
		return nil
	}
	if err := l.store.PromotePrimary(ctx, attr.SupplierID, attr.AttributeType, attr.ID); err != nil {
		return err
	}
	attr.IsPrimary = true
	return nil
}
