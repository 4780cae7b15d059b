package dedup

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apflow/resolve/internal/hashing"
	"github.com/apflow/resolve/internal/model"
)

const testTenant = "11111111-1111-1111-1111-111111111111"

func TestFileCheck_NewFileRegistered(t *testing.T) {
	store := newMockFileStore()
	d := NewFileDetector(store)

	content := []byte("invoice pdf bytes")
	got, err := d.Check(context.Background(), FileIngestionRequest{
		TenantID: testTenant,
		Content:  content,
		Source:   model.SourceUserUpload,
	})
	require.NoError(t, err)
	assert.False(t, got.IsDuplicate)
	assert.Equal(t, 0.0, got.Confidence)
	assert.Equal(t, hashing.SHA256(content), got.ContentHash)
	assert.NotEmpty(t, got.FileID)
	assert.Empty(t, got.DuplicateFileID)
	assert.Len(t, store.files, 1)
}

func TestFileCheck_ExactDuplicate(t *testing.T) {
	store := newMockFileStore()
	d := NewFileDetector(store)
	ctx := context.Background()
	content := []byte("invoice pdf bytes")

	first, err := d.Check(ctx, FileIngestionRequest{
		TenantID: testTenant, Content: content, Source: model.SourceUserUpload,
	})
	require.NoError(t, err)

	second, err := d.Check(ctx, FileIngestionRequest{
		TenantID: testTenant, Content: content, Source: model.SourceUserUpload,
	})
	require.NoError(t, err)
	assert.True(t, second.IsDuplicate)
	assert.Equal(t, first.FileID, second.DuplicateFileID)
	assert.Equal(t, 1.0, second.Confidence)
	assert.Len(t, store.files, 1)
}

func TestFileCheck_SameBytesDifferentSourceNotDuplicate(t *testing.T) {
	store := newMockFileStore()
	d := NewFileDetector(store)
	ctx := context.Background()
	content := []byte("invoice pdf bytes")

	_, err := d.Check(ctx, FileIngestionRequest{
		TenantID: testTenant, Content: content, Source: model.SourceUserUpload,
	})
	require.NoError(t, err)

	got, err := d.Check(ctx, FileIngestionRequest{
		TenantID: testTenant, Content: content, Source: model.SourceIntegration, SourceID: "xero:1",
	})
	require.NoError(t, err)
	assert.False(t, got.IsDuplicate)
	assert.Len(t, store.files, 2)
}

func TestFileCheck_TenantIsolation(t *testing.T) {
	store := newMockFileStore()
	d := NewFileDetector(store)
	ctx := context.Background()
	content := []byte("invoice pdf bytes")

	_, err := d.Check(ctx, FileIngestionRequest{
		TenantID: testTenant, Content: content, Source: model.SourceUserUpload,
	})
	require.NoError(t, err)

	got, err := d.Check(ctx, FileIngestionRequest{
		TenantID: "22222222-2222-2222-2222-222222222222",
		Content:  content,
		Source:   model.SourceUserUpload,
	})
	require.NoError(t, err)
	assert.False(t, got.IsDuplicate)
}

func TestFileCheck_PrecomputedHash(t *testing.T) {
	store := newMockFileStore()
	d := NewFileDetector(store)

	hash := hashing.SHA256String("known content")
	got, err := d.Check(context.Background(), FileIngestionRequest{
		TenantID:    testTenant,
		ContentHash: "  " + hash + "  ",
		FileSize:    1234,
		Source:      model.SourceIntegration,
		SourceID:    "drive:abc",
	})
	require.NoError(t, err)
	assert.False(t, got.IsDuplicate)
	assert.Equal(t, hash, got.ContentHash)
}

func TestFileCheck_LostInsertRace(t *testing.T) {
	store := newMockFileStore()
	content := []byte("invoice pdf bytes")
	hash := hashing.SHA256(content)
	store.forceCreateConflict = true
	store.raceWinner = &model.File{
		ID: "file-winner", TenantID: testTenant, ContentHash: hash,
		FileSize: int64(len(content)), Source: model.SourceUserUpload,
	}

	d := NewFileDetector(store)
	got, err := d.Check(context.Background(), FileIngestionRequest{
		TenantID: testTenant, Content: content, Source: model.SourceUserUpload,
	})
	require.NoError(t, err)
	assert.True(t, got.IsDuplicate)
	assert.Equal(t, "file-winner", got.DuplicateFileID)
	assert.Equal(t, 1.0, got.Confidence)
}

func TestFileCheck_Validation(t *testing.T) {
	d := NewFileDetector(newMockFileStore())
	ctx := context.Background()

	_, err := d.Check(ctx, FileIngestionRequest{Content: []byte("x"), Source: model.SourceSlack})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = d.Check(ctx, FileIngestionRequest{TenantID: testTenant, Content: []byte("x"), Source: "ftp"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = d.Check(ctx, FileIngestionRequest{TenantID: testTenant, Source: model.SourceSlack})
	assert.ErrorIs(t, err, ErrValidation)
}
