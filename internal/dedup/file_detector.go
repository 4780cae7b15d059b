package dedup

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/apflow/resolve/internal/hashing"
	"github.com/apflow/resolve/internal/model"
)

// FileDetector performs exact, tenant-scoped file deduplication. Two
// files are duplicates only when byte-identical and arriving through the
// same channel: the dedup key is (content hash, size, source, source id),
// so the same invoice uploaded manually and synced from an integration
// stays two distinct file records.
type FileDetector struct {
	store FileStore
}

// NewFileDetector creates a FileDetector over store.
func NewFileDetector(store FileStore) *FileDetector {
	return &FileDetector{store: store}
}

// Check classifies a file against the tenant's prior files and registers
// it when new. No fuzzy fallback: byte-identity is the only meaningful
// definition of a duplicate file.
func (d *FileDetector) Check(ctx context.Context, req FileIngestionRequest) (FileVerdict, error) {
	if strings.TrimSpace(req.TenantID) == "" {
		return FileVerdict{}, eris.Wrap(ErrValidation, "tenant_id is required")
	}
	if !model.ValidSource(req.Source) {
		return FileVerdict{}, eris.Wrapf(ErrValidation, "unknown source %q", req.Source)
	}

	hash := strings.ToLower(strings.TrimSpace(req.ContentHash))
	if hash == "" {
		if len(req.Content) == 0 {
			return FileVerdict{}, eris.Wrap(ErrValidation, "content or content_hash is required")
		}
		hash = hashing.SHA256(req.Content)
	}
	if req.FileSize == 0 && len(req.Content) > 0 {
		req.FileSize = int64(len(req.Content))
	}

	existing, err := d.store.FindByDedupKey(ctx, req.TenantID, hash, req.FileSize, req.Source, req.SourceID)
	if err != nil {
		return FileVerdict{}, err
	}
	if existing != nil {
		zap.L().Debug("duplicate file detected",
			zap.String("component", "dedup.file"),
			zap.String("tenant_id", req.TenantID),
			zap.String("duplicate_file_id", existing.ID),
		)
		return FileVerdict{
			IsDuplicate:     true,
			DuplicateFileID: existing.ID,
			ContentHash:     hash,
			Confidence:      1.0,
		}, nil
	}

	file := &model.File{
		TenantID:    req.TenantID,
		ContentHash: hash,
		FileSize:    req.FileSize,
		Source:      req.Source,
	}
	if req.SourceID != "" {
		file.SourceID = &req.SourceID
	}

	created, err := d.store.CreateFile(ctx, file)
	if err != nil {
		return FileVerdict{}, err
	}
	if !created {
		// Lost the insert race: the concurrent row is the duplicate.
		winner, err := d.store.FindByDedupKey(ctx, req.TenantID, hash, req.FileSize, req.Source, req.SourceID)
		if err != nil {
			return FileVerdict{}, err
		}
		if winner == nil {
			return FileVerdict{}, eris.Errorf("dedup: file conflict for hash %s but no row found", hash)
		}
		return FileVerdict{
			IsDuplicate:     true,
			DuplicateFileID: winner.ID,
			ContentHash:     hash,
			Confidence:      1.0,
		}, nil
	}

	return FileVerdict{
		IsDuplicate: false,
		FileID:      file.ID,
		ContentHash: hash,
		Confidence:  0.0,
	}, nil
}
