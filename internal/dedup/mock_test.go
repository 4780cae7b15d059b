package dedup

import (
	"context"
	"time"

	"github.com/apflow/resolve/internal/model"
)

type fileKey struct {
	tenantID    string
	contentHash string
	fileSize    int64
	source      string
	sourceID    string
}

// mockFileStore is an in-memory FileStore.
type mockFileStore struct {
	files map[fileKey]model.File

	findErr error
	// forceCreateConflict makes the next CreateFile lose the insert race
	// against raceWinner.
	forceCreateConflict bool
	raceWinner          *model.File

	now time.Time
}

func newMockFileStore() *mockFileStore {
	return &mockFileStore{
		files: map[fileKey]model.File{},
		now:   time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (m *mockFileStore) key(tenantID, hash string, size int64, source, sourceID string) fileKey {
	return fileKey{tenantID, hash, size, source, sourceID}
}

func (m *mockFileStore) FindByDedupKey(_ context.Context, tenantID, contentHash string, fileSize int64, source, sourceID string) (*model.File, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	if f, ok := m.files[m.key(tenantID, contentHash, fileSize, source, sourceID)]; ok {
		return &f, nil
	}
	return nil, nil
}

func (m *mockFileStore) CreateFile(_ context.Context, f *model.File) (bool, error) {
	if m.forceCreateConflict {
		m.forceCreateConflict = false
		if m.raceWinner != nil {
			sourceID := ""
			if m.raceWinner.SourceID != nil {
				sourceID = *m.raceWinner.SourceID
			}
			m.files[m.key(m.raceWinner.TenantID, m.raceWinner.ContentHash, m.raceWinner.FileSize, m.raceWinner.Source, sourceID)] = *m.raceWinner
		}
		return false, nil
	}
	sourceID := ""
	if f.SourceID != nil {
		sourceID = *f.SourceID
	}
	k := m.key(f.TenantID, f.ContentHash, f.FileSize, f.Source, sourceID)
	if _, ok := m.files[k]; ok {
		return false, nil
	}
	if f.ID == "" {
		f.ID = "file-" + f.ContentHash[:8]
	}
	f.CreatedAt = m.now
	m.files[k] = *f
	return true, nil
}

// mockExtractionStore is an in-memory ExtractionStore.
type mockExtractionStore struct {
	extractions []model.Extraction

	candidatesErr error
	// lastAmount records the amount passed to FindCandidates.
	lastAmount *float64

	now time.Time
}

func newMockExtractionStore() *mockExtractionStore {
	return &mockExtractionStore{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (m *mockExtractionStore) FindByFingerprint(_ context.Context, tenantID, fingerprint string) (*model.Extraction, error) {
	for i := range m.extractions {
		e := m.extractions[i]
		if e.TenantID == tenantID && e.Fingerprint == fingerprint {
			return &e, nil
		}
	}
	return nil, nil
}

func (m *mockExtractionStore) FindCandidates(_ context.Context, tenantID string, amount *float64) ([]model.Extraction, error) {
	if m.candidatesErr != nil {
		return nil, m.candidatesErr
	}
	m.lastAmount = amount
	var out []model.Extraction
	for _, e := range m.extractions {
		if e.TenantID == tenantID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockExtractionStore) CreateExtraction(_ context.Context, e *model.Extraction) error {
	if e.ID == "" {
		e.ID = "ext-" + e.Fingerprint[:8]
	}
	e.CreatedAt = m.now
	m.extractions = append(m.extractions, *e)
	return nil
}
