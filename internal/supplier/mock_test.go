package supplier

import (
	"context"
	"time"
)

// mockStore is an in-memory Store for matcher and ledger tests.
type mockStore struct {
	suppliers  []Supplier
	attributes map[string]*Attribute // keyed by supplier|type|hash
	primaries  map[string]string     // supplier|type -> attribute id
	slugs      map[string]bool       // tenant|slug
	names      map[string]bool       // tenant|normalized_name

	searchErr error
	createErr error
	upsertErr error

	// forceCreateConflict makes the next CreateSupplier return created=false.
	forceCreateConflict int
	now                 time.Time
}

func newMockStore() *mockStore {
	return &mockStore{
		attributes: map[string]*Attribute{},
		primaries:  map[string]string{},
		slugs:      map[string]bool{},
		names:      map[string]bool{},
		now:        time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (m *mockStore) addSupplier(s Supplier) {
	if s.Status == "" {
		s.Status = StatusActive
	}
	m.suppliers = append(m.suppliers, s)
	m.slugs[s.TenantID+"|"+s.Slug] = true
	m.names[s.TenantID+"|"+s.NormalizedName] = true
}

func (m *mockStore) CreateSupplier(_ context.Context, s *Supplier) (bool, error) {
	if m.createErr != nil {
		return false, m.createErr
	}
	if m.forceCreateConflict > 0 {
		m.forceCreateConflict--
		return false, nil
	}
	if m.names[s.TenantID+"|"+s.NormalizedName] || m.slugs[s.TenantID+"|"+s.Slug] {
		return false, nil
	}
	if s.ID == "" {
		s.ID = "sup-" + s.Slug
	}
	s.CreatedAt, s.UpdatedAt = m.now, m.now
	m.addSupplier(*s)
	return true, nil
}

func (m *mockStore) GetSupplier(_ context.Context, tenantID, id string) (*Supplier, error) {
	for i := range m.suppliers {
		if m.suppliers[i].TenantID == tenantID && m.suppliers[i].ID == id {
			s := m.suppliers[i]
			return &s, nil
		}
	}
	return nil, nil
}

func (m *mockStore) GetByNormalizedName(_ context.Context, tenantID, name string) (*Supplier, error) {
	for i := range m.suppliers {
		s := m.suppliers[i]
		if s.TenantID == tenantID && s.NormalizedName == name && s.Status != StatusDeleted {
			return &s, nil
		}
	}
	return nil, nil
}

func (m *mockStore) FindByIdentifier(_ context.Context, tenantID, kind, value string) (*Supplier, error) {
	for i := range m.suppliers {
		s := m.suppliers[i]
		if s.TenantID != tenantID || s.Status != StatusActive {
			continue
		}
		switch kind {
		case IdentifierCompanyNumber:
			if s.CompanyNumber != nil && *s.CompanyNumber == value {
				return &s, nil
			}
		case IdentifierVATNumber:
			if s.VATNumber != nil && *s.VATNumber == value {
				return &s, nil
			}
		}
	}
	return nil, nil
}

func (m *mockStore) SearchByName(_ context.Context, tenantID, _ string, _ int) ([]Supplier, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	var out []Supplier
	for _, s := range m.suppliers {
		if s.TenantID == tenantID && s.Status == StatusActive {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockStore) SlugExists(_ context.Context, tenantID, slug string) (bool, error) {
	return m.slugs[tenantID+"|"+slug], nil
}

func (m *mockStore) UpsertAttribute(_ context.Context, a *Attribute) (bool, error) {
	if m.upsertErr != nil {
		return false, m.upsertErr
	}
	key := a.SupplierID + "|" + a.AttributeType + "|" + a.Hash
	if existing, ok := m.attributes[key]; ok {
		existing.SeenCount++
		existing.LastSeenAt = m.now
		if a.Confidence > existing.Confidence {
			existing.Confidence = a.Confidence
		}
		existing.IsActive = true
		*a = *existing
		return false, nil
	}
	if a.ID == "" {
		a.ID = "attr-" + key
	}
	a.SeenCount = 1
	a.IsActive = true
	a.FirstSeenAt, a.LastSeenAt = m.now, m.now
	stored := *a
	m.attributes[key] = &stored
	return true, nil
}

func (m *mockStore) GetPrimaryAttribute(_ context.Context, supplierID, attributeType string) (*Attribute, error) {
	id, ok := m.primaries[supplierID+"|"+attributeType]
	if !ok {
		return nil, nil
	}
	for _, a := range m.attributes {
		if a.ID == id {
			out := *a
			return &out, nil
		}
	}
	return nil, nil
}

func (m *mockStore) PromotePrimary(_ context.Context, supplierID, attributeType, attributeID string) error {
	for _, a := range m.attributes {
		if a.SupplierID == supplierID && a.AttributeType == attributeType {
			a.IsPrimary = a.ID == attributeID
		}
	}
	m.primaries[supplierID+"|"+attributeType] = attributeID
	return nil
}
