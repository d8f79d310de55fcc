// File path: internal/graph/memory/service.go
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/arclight-qa/weldcheck/internal/graph"
)

// Service provides an in-memory implementation of graph.Client seeded with a
// baseline set of ASME Section IX clauses. It backs the comparison annotator
// when no Neo4j endpoint is configured.
type Service struct {
	mu        sync.RWMutex
	bySection map[string][]graph.Requirement
	byID      map[string]graph.Requirement
}

// NewService constructs a service pre-loaded with the baseline clauses.
func NewService() *Service {
	svc := &Service{
		bySection: make(map[string][]graph.Requirement),
		byID:      make(map[string]graph.Requirement),
	}
	for _, req := range baselineRequirements {
		svc.put(req)
	}
	return svc
}

func (s *Service) Available() bool { return s != nil }

func (s *Service) EnsureSchema(context.Context) error { return nil }

// UpsertRequirement inserts or replaces a requirement keyed by id.
func (s *Service) UpsertRequirement(_ context.Context, req graph.Requirement) error {
	if strings.TrimSpace(req.ID) == "" {
		return errors.New("requirement id required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(req)
	return nil
}

// RequirementsForSection returns the clauses for one comparison section,
// ordered by category then id.
func (s *Service) RequirementsForSection(_ context.Context, section string) ([]graph.Requirement, error) {
	key := strings.TrimSpace(strings.ToLower(section))
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.bySection[key]
	if len(stored) == 0 {
		return nil, nil
	}
	out := make([]graph.Requirement, len(stored))
	copy(out, stored)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Service) Close(context.Context) error { return nil }

// Baseline returns a copy of the seeded ASME IX clause set. Callers use it to
// populate external requirement backends with the same starting data.
func Baseline() []graph.Requirement {
	out := make([]graph.Requirement, len(baselineRequirements))
	copy(out, baselineRequirements)
	return out
}

// put assumes the caller holds the write lock (or exclusive access during
// construction).
func (s *Service) put(req graph.Requirement) {
	key := strings.TrimSpace(strings.ToLower(req.Section))
	if previous, ok := s.byID[req.ID]; ok {
		prevKey := strings.TrimSpace(strings.ToLower(previous.Section))
		stored := s.bySection[prevKey]
		for i := range stored {
			if stored[i].ID == req.ID {
				s.bySection[prevKey] = append(stored[:i], stored[i+1:]...)
				break
			}
		}
	}
	s.byID[req.ID] = req
	s.bySection[key] = append(s.bySection[key], req)
}

func req(id, category, section, text string, severity graph.Severity) graph.Requirement {
	return graph.Requirement{
		ID:       fmt.Sprintf("asme-ix-%s", id),
		Category: category,
		Section:  section,
		Text:     text,
		Severity: severity,
	}
}

// baselineRequirements carries the clauses most often cited when a WPS/PQR
// comparison flags a section. Text is paraphrased guidance, not code text.
var baselineRequirements = []graph.Requirement{
	req("qw402-1", "QW-402", "joints", "Joint design and backing are essential variables for groove welds; a change in joint type between WPS and PQR requires requalification review.", graph.SeverityMajor),
	req("qw402-4", "QW-402", "joints", "Deletion of backing in single-sided welds is an essential variable for most processes.", graph.SeverityMajor),
	req("qw403-6", "QW-403", "base_metals", "The minimum base metal thickness qualified is constrained by the test coupon thickness recorded on the PQR.", graph.SeverityCritical),
	req("qw403-8", "QW-403", "base_metals", "A change in base metal P-Number requires requalification; compare P-Number and Group Number between documents.", graph.SeverityCritical),
	req("qw404-4", "QW-404", "filler_metals", "A change in filler metal F-Number or A-Number is an essential variable and must match the qualified range.", graph.SeverityCritical),
	req("qw404-12", "QW-404", "filler_metals", "Filler metal classification changes within the same F-Number are nonessential but must still be documented.", graph.SeverityAdvisory),
	req("qw405-1", "QW-405", "position", "The addition of welding positions beyond those qualified is permitted for most processes unless impact testing applies.", graph.SeverityAdvisory),
	req("qw405-2", "QW-405", "position", "A change from vertical uphill to downhill progression is an essential variable.", graph.SeverityMajor),
	req("qw406-1", "QW-406", "preheat", "A decrease of more than 55 C (100 F) in preheat temperature below that qualified is an essential variable.", graph.SeverityCritical),
	req("qw406-3", "QW-406", "preheat", "An increase of more than 55 C (100 F) in maximum interpass temperature is an essential variable when impact testing applies.", graph.SeverityMajor),
	req("qw407-1", "QW-407", "pwht", "A separate PQR is required for each postweld heat treatment condition; compare holding temperature and time ranges.", graph.SeverityCritical),
	req("qw408-2", "QW-408", "gas", "A change from a single shielding gas to a mixture, or a change in nominal composition, is an essential variable.", graph.SeverityMajor),
	req("qw408-10", "QW-408", "gas", "Deletion of trailing or backing gas where specified is an essential variable for root passes without backing.", graph.SeverityMajor),
	req("qw409-1", "QW-409", "electrical_characteristics", "An increase in heat input beyond that qualified is an essential variable when impact testing applies; verify amperage and voltage ranges.", graph.SeverityCritical),
	req("qw409-4", "QW-409", "electrical_characteristics", "A change in current type or polarity is an essential variable for most processes.", graph.SeverityMajor),
	req("qw410-1", "QW-410", "technique", "A change from stringer to weave technique is a nonessential variable but must be reflected in the WPS.", graph.SeverityAdvisory),
	req("qw410-9", "QW-410", "technique", "A change from multipass to single pass per side is an essential variable when impact testing applies.", graph.SeverityMajor),
}
