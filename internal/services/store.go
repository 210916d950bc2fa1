package services

import (
	"log/slog"
	"sort"
	"sync"

	apperrors "wastelens/internal/errors"
	"wastelens/pkg/contracts/domain"
)

// EvictFunc is notified with the fingerprint of every dataset dropped
// from the store, so dependent caches can release their entries.
type EvictFunc func(fingerprint string)

// DatasetStore keeps loaded datasets in memory, bounded by a maximum
// count. Uploading bytes with a fingerprint already present returns the
// existing dataset instead of storing a duplicate. Safe for concurrent
// use.
type DatasetStore struct {
	logger  *slog.Logger
	max     int
	onEvict EvictFunc

	mu            sync.RWMutex
	byID          map[string]domain.Dataset
	byFingerprint map[string]string
}

// NewDatasetStore creates a store holding at most max datasets.
func NewDatasetStore(max int, logger *slog.Logger, onEvict EvictFunc) *DatasetStore {
	if logger == nil {
		logger = slog.Default()
	}
	if max < 1 {
		max = 1
	}
	return &DatasetStore{
		logger:        logger.With(slog.String("component", "dataset_store")),
		max:           max,
		onEvict:       onEvict,
		byID:          make(map[string]domain.Dataset),
		byFingerprint: make(map[string]string),
	}
}

// Put stores a dataset and returns the stored copy. When a dataset with
// the same content fingerprint already exists the existing one is
// returned and the argument is discarded. The oldest dataset is evicted
// once the store is full.
func (s *DatasetStore) Put(ds domain.Dataset) (domain.Dataset, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existingID, ok := s.byFingerprint[ds.Fingerprint]; ok {
		s.logger.Debug("duplicate dataset upload deduplicated",
			slog.String("dataset_id", existingID),
			slog.String("fingerprint", ds.Fingerprint))
		return s.byID[existingID], false
	}

	for len(s.byID) >= s.max {
		s.evictOldestLocked()
	}

	s.byID[ds.ID] = ds
	s.byFingerprint[ds.Fingerprint] = ds.ID
	s.logger.Info("dataset stored",
		slog.String("dataset_id", ds.ID),
		slog.Int("records", ds.Len()),
		slog.Int("held", len(s.byID)))
	return ds, true
}

// Get returns the dataset with the given id.
func (s *DatasetStore) Get(id string) (domain.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ds, ok := s.byID[id]
	if !ok {
		return domain.Dataset{}, apperrors.NewNotFoundError("dataset").WithContext("dataset_id", id)
	}
	return ds, nil
}

// List returns summaries of every held dataset, newest first.
func (s *DatasetStore) List() []domain.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Dataset, 0, len(s.byID))
	for _, ds := range s.byID {
		out = append(out, ds)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LoadedAt.After(out[j].LoadedAt) })
	return out
}

// Delete removes a dataset by id.
func (s *DatasetStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ds, ok := s.byID[id]
	if !ok {
		return apperrors.NewNotFoundError("dataset").WithContext("dataset_id", id)
	}
	s.removeLocked(ds)
	return nil
}

// Len reports how many datasets are currently held.
func (s *DatasetStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

func (s *DatasetStore) evictOldestLocked() {
	var oldest domain.Dataset
	first := true
	for _, ds := range s.byID {
		if first || ds.LoadedAt.Before(oldest.LoadedAt) {
			oldest = ds
			first = false
		}
	}
	if first {
		return
	}
	s.logger.Info("evicting oldest dataset",
		slog.String("dataset_id", oldest.ID),
		slog.Time("loaded_at", oldest.LoadedAt))
	s.removeLocked(oldest)
}

func (s *DatasetStore) removeLocked(ds domain.Dataset) {
	delete(s.byID, ds.ID)
	delete(s.byFingerprint, ds.Fingerprint)
	if s.onEvict != nil {
		s.onEvict(ds.Fingerprint)
	}
}
