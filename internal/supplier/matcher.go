package supplier

import (
	"context"

	"go.uber.org/zap"

	"github.com/apflow/resolve/internal/config"
	"github.com/apflow/resolve/internal/similarity"
)

// Match outcomes.
const (
	OutcomeMatched      = "matched"
	OutcomeNoMatch      = "no_match"
	OutcomeInsufficient = "insufficient_data"
)

// Match reasons.
const (
	ReasonCompanyNumber = "identifier:company_number"
	ReasonVATNumber     = "identifier:vat_number"
	ReasonFuzzyName     = "fuzzy_name"
	ReasonBelowFloor    = "below_floor"
	ReasonAmbiguous     = "ambiguous_candidates"
	ReasonEmptyName     = "empty_name"
)

// MatchRequest is a vendor reference to resolve against existing suppliers.
type MatchRequest struct {
	TenantID      string
	Name          string
	CompanyNumber string
	VATNumber     string
}

// Match is the resolution result. Supplier is set only for OutcomeMatched.
type Match struct {
	Outcome    string
	Supplier   *Supplier
	Confidence float64
	Reason     string
}

// Matcher resolves vendor references to canonical supplier records.
// A false auto-match merges two distinct vendors, which is worse than a
// deferred decision, so anything ambiguous resolves to no match.
type Matcher struct {
	store Store
	cfg   config.MatchingConfig
}

// NewMatcher creates a Matcher over store.
func NewMatcher(store Store, cfg config.MatchingConfig) *Matcher {
	return &Matcher{store: store, cfg: cfg}
}

// Match resolves a vendor reference. Resolution order, first hit
// authoritative: exact company number, exact VAT number, fuzzy name above
// the configured floor with no near-tied runner-up.
func (m *Matcher) Match(ctx context.Context, req MatchRequest) (Match, error) {
	log := zap.L().With(
		zap.String("component", "supplier.matcher"),
		zap.String("tenant_id", req.TenantID),
	)

	// Pass 1: registered identifiers.
	for _, ident := range []struct {
		kind, raw, reason string
	}{
		{IdentifierCompanyNumber, req.CompanyNumber, ReasonCompanyNumber},
		{IdentifierVATNumber, req.VATNumber, ReasonVATNumber},
	} {
		if ident.raw == "" {
			continue
		}
		value, err := CanonicalIdentifier(ident.raw)
		if err != nil {
			return Match{}, err
		}
		existing, err := m.store.FindByIdentifier(ctx, req.TenantID, ident.kind, value)
		if err != nil {
			return Match{}, err
		}
		if existing != nil {
			log.Debug("matched by identifier",
				zap.String("kind", ident.kind),
				zap.String("supplier_id", existing.ID),
			)
			return Match{
				Outcome:    OutcomeMatched,
				Supplier:   existing,
				Confidence: m.cfg.SupplierMatchedConfidence,
				Reason:     ident.reason,
			}, nil
		}
	}

	// Pass 2: fuzzy name.
	name := NormalizeName(req.Name)
	if name == "" {
		if req.CompanyNumber != "" || req.VATNumber != "" {
			// Identifiers were present but unknown: creation can proceed.
			return Match{Outcome: OutcomeNoMatch, Reason: ReasonBelowFloor}, nil
		}
		return Match{Outcome: OutcomeInsufficient, Reason: ReasonEmptyName}, nil
	}

	candidates, err := m.store.SearchByName(ctx, req.TenantID, req.Name, m.cfg.CandidateLimit)
	if err != nil {
		return Match{}, err
	}

	var best *Supplier
	var bestScore, secondScore float64
	for i := range candidates {
		c := &candidates[i]
		score := similarity.VendorSimilarity(req.Name, c.LegalName)
		if d := similarity.VendorSimilarity(req.Name, c.DisplayName); d > score {
			score = d
		}
		switch {
		case score > bestScore:
			secondScore = bestScore
			bestScore = score
			best = c
		case score > secondScore:
			secondScore = score
		}
	}

	if best == nil || bestScore < m.cfg.SupplierFloor {
		return Match{Outcome: OutcomeNoMatch, Confidence: bestScore, Reason: ReasonBelowFloor}, nil
	}
	if secondScore >= m.cfg.SupplierFloor && bestScore-secondScore < m.cfg.AmbiguityMargin {
		// Multiple near-tied high scorers: do not guess.
		log.Info("ambiguous fuzzy match, deferring",
			zap.String("name", req.Name),
			zap.Float64("best", bestScore),
			zap.Float64("second", secondScore),
		)
		return Match{Outcome: OutcomeNoMatch, Confidence: bestScore, Reason: ReasonAmbiguous}, nil
	}

	log.Debug("matched by fuzzy name",
		zap.String("supplier_id", best.ID),
		zap.Float64("score", bestScore),
	)
	return Match{
		Outcome:    OutcomeMatched,
		Supplier:   best,
		Confidence: bestScore,
		Reason:     ReasonFuzzyName,
	}, nil
}
