package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "wastelens/internal/errors"
	"wastelens/pkg/contracts/domain"
)

func storedDataset(id, fingerprint string, loadedAt time.Time) domain.Dataset {
	return domain.Dataset{
		ID:          id,
		Fingerprint: fingerprint,
		Currency:    "$",
		LoadedAt:    loadedAt,
		Records: []domain.WasteRecord{
			{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Cost: 10, Weight: 1},
		},
	}
}

func TestDatasetStore_PutAndGet(t *testing.T) {
	store := NewDatasetStore(4, nil, nil)
	ds := storedDataset("ds-1", "fp-1", time.Now())

	stored, created := store.Put(ds)
	assert.True(t, created)
	assert.Equal(t, ds.ID, stored.ID)

	got, err := store.Get("ds-1")
	require.NoError(t, err)
	assert.Equal(t, ds.Fingerprint, got.Fingerprint)
}

func TestDatasetStore_GetUnknown(t *testing.T) {
	store := NewDatasetStore(4, nil, nil)

	_, err := store.Get("missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
}

func TestDatasetStore_DeduplicatesByFingerprint(t *testing.T) {
	store := NewDatasetStore(4, nil, nil)
	now := time.Now()

	first, created := store.Put(storedDataset("ds-1", "fp-same", now))
	assert.True(t, created)

	second, created := store.Put(storedDataset("ds-2", "fp-same", now.Add(time.Minute)))
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, store.Len())
}

func TestDatasetStore_EvictsOldestWhenFull(t *testing.T) {
	evicted := make([]string, 0)
	store := NewDatasetStore(2, nil, func(fp string) { evicted = append(evicted, fp) })
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	store.Put(storedDataset("ds-1", "fp-1", base))
	store.Put(storedDataset("ds-2", "fp-2", base.Add(time.Hour)))
	store.Put(storedDataset("ds-3", "fp-3", base.Add(2*time.Hour)))

	assert.Equal(t, 2, store.Len())
	assert.Equal(t, []string{"fp-1"}, evicted)

	_, err := store.Get("ds-1")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
	_, err = store.Get("ds-3")
	assert.NoError(t, err)
}

func TestDatasetStore_ListNewestFirst(t *testing.T) {
	store := NewDatasetStore(4, nil, nil)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	store.Put(storedDataset("ds-old", "fp-1", base))
	store.Put(storedDataset("ds-new", "fp-2", base.Add(time.Hour)))

	held := store.List()
	require.Len(t, held, 2)
	assert.Equal(t, "ds-new", held[0].ID)
	assert.Equal(t, "ds-old", held[1].ID)
}

func TestDatasetStore_DeleteNotifiesEviction(t *testing.T) {
	evicted := make([]string, 0)
	store := NewDatasetStore(4, nil, func(fp string) { evicted = append(evicted, fp) })

	store.Put(storedDataset("ds-1", "fp-1", time.Now()))
	require.NoError(t, store.Delete("ds-1"))

	assert.Equal(t, []string{"fp-1"}, evicted)
	assert.Equal(t, 0, store.Len())

	err := store.Delete("ds-1")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
}
