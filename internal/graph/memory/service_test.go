// File path: internal/graph/memory/service_test.go
package memory

import (
	"context"
	"testing"

	"github.com/arclight-qa/weldcheck/internal/graph"
)

func TestRequirementsForSectionSeeded(t *testing.T) {
	svc := NewService()
	reqs, err := svc.RequirementsForSection(context.Background(), "preheat")
	if err != nil {
		t.Fatalf("requirements: %v", err)
	}
	if len(reqs) == 0 {
		t.Fatalf("expected seeded preheat requirements")
	}
	for i := 1; i < len(reqs); i++ {
		if reqs[i-1].Category > reqs[i].Category {
			t.Fatalf("requirements not ordered by category: %q before %q", reqs[i-1].Category, reqs[i].Category)
		}
	}
	for _, r := range reqs {
		if r.Category != "QW-406" {
			t.Fatalf("unexpected category %q for preheat", r.Category)
		}
	}
}

func TestRequirementsForSectionUnknown(t *testing.T) {
	svc := NewService()
	reqs, err := svc.RequirementsForSection(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("requirements: %v", err)
	}
	if reqs != nil {
		t.Fatalf("expected nil for unknown section, got %d entries", len(reqs))
	}
}

func TestUpsertRequirementReplacesAndMoves(t *testing.T) {
	svc := NewService()
	ctx := context.Background()
	original := graph.Requirement{ID: "custom-1", Category: "QW-403", Section: "base_metals", Text: "first"}
	if err := svc.UpsertRequirement(ctx, original); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	moved := original
	moved.Section = "joints"
	moved.Text = "second"
	if err := svc.UpsertRequirement(ctx, moved); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	baseMetals, err := svc.RequirementsForSection(ctx, "base_metals")
	if err != nil {
		t.Fatalf("requirements: %v", err)
	}
	for _, r := range baseMetals {
		if r.ID == "custom-1" {
			t.Fatalf("requirement should have moved out of base_metals")
		}
	}
	joints, err := svc.RequirementsForSection(ctx, "joints")
	if err != nil {
		t.Fatalf("requirements: %v", err)
	}
	found := false
	for _, r := range joints {
		if r.ID == "custom-1" {
			found = true
			if r.Text != "second" {
				t.Fatalf("expected updated text, got %q", r.Text)
			}
		}
	}
	if !found {
		t.Fatalf("moved requirement missing from joints")
	}
}

func TestUpsertRequirementRequiresID(t *testing.T) {
	svc := NewService()
	if err := svc.UpsertRequirement(context.Background(), graph.Requirement{Section: "joints"}); err == nil {
		t.Fatalf("expected error for missing id")
	}
}

func TestBaselineSeedsExternalBackend(t *testing.T) {
	baseline := Baseline()
	if len(baseline) == 0 {
		t.Fatalf("baseline clause set is empty")
	}

	target := &Service{
		bySection: make(map[string][]graph.Requirement),
		byID:      make(map[string]graph.Requirement),
	}
	for _, req := range baseline {
		if err := target.UpsertRequirement(context.Background(), req); err != nil {
			t.Fatalf("seed %s: %v", req.ID, err)
		}
	}

	seeded := NewService()
	for _, req := range baseline {
		got, err := target.RequirementsForSection(context.Background(), req.Section)
		if err != nil {
			t.Fatalf("requirements for %s: %v", req.Section, err)
		}
		want, err := seeded.RequirementsForSection(context.Background(), req.Section)
		if err != nil {
			t.Fatalf("requirements for %s: %v", req.Section, err)
		}
		if len(got) != len(want) {
			t.Fatalf("section %s: seeded backend has %d clauses, want %d", req.Section, len(got), len(want))
		}
	}

	baseline[0].Text = "mutated"
	fresh := Baseline()
	if fresh[0].Text == "mutated" {
		t.Fatalf("Baseline must return a copy")
	}
}
