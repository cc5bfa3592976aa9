package db

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/A-Akhil/BluePrint/pkg/model"
)

// MemStore holds everything in process memory. Useful for tests and for
// one-shot runs where nothing needs to outlive the process.
type MemStore struct {
	mu          sync.RWMutex
	samples     map[string]model.Sample
	assignments map[string]map[string]model.TaxonomicAssignment
	metrics     map[string]model.BiodiversityMetrics
}

func NewMemStore() *MemStore {
	return &MemStore{
		samples:     make(map[string]model.Sample),
		assignments: make(map[string]map[string]model.TaxonomicAssignment),
		metrics:     make(map[string]model.BiodiversityMetrics),
	}
}

func (s *MemStore) UpsertSample(_ context.Context, sample model.Sample) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples[sample.SampleID] = sample
	return nil
}

func (s *MemStore) GetSample(_ context.Context, sampleID string) (model.Sample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sample, ok := s.samples[sampleID]
	if !ok {
		return model.Sample{}, fmt.Errorf("%w: %s", ErrSampleNotFound, sampleID)
	}
	return sample, nil
}

func (s *MemStore) UpsertAssignment(_ context.Context, sampleID string, a model.TaxonomicAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byID, ok := s.assignments[sampleID]
	if !ok {
		byID = make(map[string]model.TaxonomicAssignment)
		s.assignments[sampleID] = byID
	}
	byID[a.SequenceID] = a
	return nil
}

func (s *MemStore) GetAssignments(_ context.Context, sampleID string) ([]model.TaxonomicAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byID := s.assignments[sampleID]
	if len(byID) == 0 {
		return nil, nil
	}
	out := make([]model.TaxonomicAssignment, 0, len(byID))
	for _, a := range byID {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SequenceID < out[j].SequenceID })
	return out, nil
}

func (s *MemStore) UpsertMetrics(_ context.Context, sampleID string, m model.BiodiversityMetrics) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.GroupPercentages != nil {
		groups := make(map[string]float64, len(m.GroupPercentages))
		for k, v := range m.GroupPercentages {
			groups[k] = v
		}
		m.GroupPercentages = groups
	}
	s.metrics[sampleID] = m
	return nil
}

func (s *MemStore) GetMetrics(_ context.Context, sampleID string) (model.BiodiversityMetrics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.metrics[sampleID]
	if !ok {
		return model.BiodiversityMetrics{}, fmt.Errorf("%w: %s", ErrMetricsNotFound, sampleID)
	}
	if m.GroupPercentages != nil {
		groups := make(map[string]float64, len(m.GroupPercentages))
		for k, v := range m.GroupPercentages {
			groups[k] = v
		}
		m.GroupPercentages = groups
	}
	return m, nil
}
