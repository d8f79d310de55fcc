// File path: internal/graph/types.go
package graph

import "context"

// Severity enumerates how strongly a code requirement binds a comparison
// finding.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityMajor    Severity = "major"
	SeverityAdvisory Severity = "advisory"
)

// Requirement describes one welding-code clause attached to a report section.
// Category carries the code paragraph (QW-402, QW-403, ...) and Section the
// comparison section the clause annotates.
type Requirement struct {
	ID       string   `json:"id"`
	Category string   `json:"category"`
	Section  string   `json:"section"`
	Text     string   `json:"text"`
	Severity Severity `json:"severity,omitempty"`
}

// Client defines the minimal operations required for interacting with a
// requirement knowledge graph backend.
type Client interface {
	// Available reports whether the underlying backend is reachable and ready
	// to accept queries.
	Available() bool
	// EnsureSchema guarantees that the required node labels and constraints
	// exist in the backing store.
	EnsureSchema(ctx context.Context) error
	// UpsertRequirement inserts or updates a requirement node.
	UpsertRequirement(ctx context.Context, req Requirement) error
	// RequirementsForSection returns the clauses attached to a comparison
	// section, ordered by category then id.
	RequirementsForSection(ctx context.Context, section string) ([]Requirement, error)
	// Close releases resources associated with the client.
	Close(ctx context.Context) error
}

type noopClient struct{}

// NoopClient returns a Client implementation that always yields empty
// results. It is useful when no graph backend is configured.
func NoopClient() Client { return noopClient{} }

func (noopClient) Available() bool { return false }

func (noopClient) EnsureSchema(context.Context) error { return nil }

func (noopClient) UpsertRequirement(context.Context, Requirement) error { return nil }

func (noopClient) RequirementsForSection(context.Context, string) ([]Requirement, error) {
	return nil, nil
}

func (noopClient) Close(context.Context) error { return nil }
