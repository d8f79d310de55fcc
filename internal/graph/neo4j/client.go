// File path: internal/graph/neo4j/client.go
package neo4j

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	drv "github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/arclight-qa/weldcheck/internal/common"
	"github.com/arclight-qa/weldcheck/internal/common/telemetry"
	"github.com/arclight-qa/weldcheck/internal/graph"
)

// Client implements graph.Client on top of the Bolt driver.
type Client struct {
	cfg    Config
	driver drv.DriverWithContext

	mu        sync.RWMutex
	available bool
}

// NewClient constructs a client from the provided configuration and verifies
// connectivity. A failed verification returns the client marked unavailable
// rather than an error so callers can fall back to the in-memory graph.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if !cfg.Enabled() {
		return nil, errors.New("neo4j disabled")
	}
	logger := common.Logger()
	logger.Info("graph: initializing neo4j client", "uri", cfg.URI, "database", cfg.Database, "pool", cfg.MaxPoolSize)

	driver, err := drv.NewDriverWithContext(cfg.URI, drv.BasicAuth(cfg.Username, cfg.Password, ""), func(c *drv.Config) {
		c.MaxConnectionPoolSize = cfg.MaxPoolSize
		c.SocketConnectTimeout = cfg.Timeout
	})
	if err != nil {
		return nil, fmt.Errorf("init neo4j driver: %w", err)
	}

	client := &Client{cfg: cfg, driver: driver}
	verifyCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := driver.VerifyConnectivity(verifyCtx); err != nil {
		logger.Warn("graph: neo4j connectivity check failed", "error", err)
		client.setAvailable(false)
		return client, nil
	}
	client.setAvailable(true)
	logger.Info("graph: neo4j client ready")
	return client, nil
}

// NewFromEnv loads configuration and constructs a client instance. A nil
// client with nil error means no graph endpoint is configured.
func NewFromEnv(ctx context.Context) (*Client, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.Enabled() {
		return nil, nil
	}
	return NewClient(ctx, cfg)
}

// Available reports whether the client is ready for use.
func (c *Client) Available() bool {
	if c == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.available
}

// Close releases the underlying driver resources.
func (c *Client) Close(ctx context.Context) error {
	if c == nil || c.driver == nil {
		return nil
	}
	c.setAvailable(false)
	return c.driver.Close(ctx)
}

// EnsureSchema creates the uniqueness constraint and lookup index backing the
// requirement nodes.
func (c *Client) EnsureSchema(ctx context.Context) error {
	if c == nil {
		return errors.New("neo4j client not configured")
	}
	statements := []string{
		`CREATE CONSTRAINT requirement_id_unique IF NOT EXISTS FOR (r:Requirement) REQUIRE r.id IS UNIQUE`,
		`CREATE INDEX requirement_section IF NOT EXISTS FOR (r:Requirement) ON (r.section)`,
	}
	session := c.driver.NewSession(ctx, drv.SessionConfig{
		AccessMode:   drv.AccessModeWrite,
		DatabaseName: c.cfg.Database,
	})
	defer session.Close(ctx)
	for _, stmt := range statements {
		res, err := session.Run(ctx, stmt, nil)
		if err != nil {
			c.setAvailable(false)
			return fmt.Errorf("ensure schema: %w", err)
		}
		if _, err := res.Consume(ctx); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	c.setAvailable(true)
	return nil
}

// UpsertRequirement inserts or updates a requirement node keyed by id.
func (c *Client) UpsertRequirement(ctx context.Context, req graph.Requirement) error {
	if c == nil {
		return errors.New("neo4j client not configured")
	}
	if strings.TrimSpace(req.ID) == "" {
		return errors.New("requirement id required")
	}
	start := time.Now()
	session := c.driver.NewSession(ctx, drv.SessionConfig{
		AccessMode:   drv.AccessModeWrite,
		DatabaseName: c.cfg.Database,
	})
	defer session.Close(ctx)

	params := map[string]any{
		"id":       req.ID,
		"category": req.Category,
		"section":  req.Section,
		"text":     req.Text,
		"severity": string(req.Severity),
	}
	_, err := session.ExecuteWrite(ctx, func(tx drv.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MERGE (r:Requirement {id: $id})
SET r.category = $category,
    r.section = $section,
    r.text = $text,
    r.severity = $severity,
    r.updated_at = datetime()
`, params)
		if err != nil {
			return nil, err
		}
		return nil, res.Err()
	})
	telemetry.RecordGraphQuery("upsert_requirement", time.Since(start))
	if err != nil {
		c.setAvailable(false)
		return fmt.Errorf("upsert requirement: %w", err)
	}
	return nil
}

// RequirementsForSection returns the clauses attached to one comparison
// section, ordered by category then id.
func (c *Client) RequirementsForSection(ctx context.Context, section string) ([]graph.Requirement, error) {
	if c == nil {
		return nil, errors.New("neo4j client not configured")
	}
	spanCtx, finish := telemetry.StartSpan(ctx, "graph.neo4j.requirements")
	defer finish()

	start := time.Now()
	session := c.driver.NewSession(spanCtx, drv.SessionConfig{
		AccessMode:   drv.AccessModeRead,
		DatabaseName: c.cfg.Database,
	})
	defer session.Close(spanCtx)

	records, err := session.ExecuteRead(spanCtx, func(tx drv.ManagedTransaction) (any, error) {
		res, err := tx.Run(spanCtx, `
MATCH (r:Requirement {section: $section})
RETURN r.id AS id, r.category AS category, r.section AS section, r.text AS text, r.severity AS severity
`, map[string]any{"section": strings.TrimSpace(section)})
		if err != nil {
			return nil, err
		}
		var out []graph.Requirement
		for res.Next(spanCtx) {
			rec := res.Record()
			out = append(out, graph.Requirement{
				ID:       recordString(rec, "id"),
				Category: recordString(rec, "category"),
				Section:  recordString(rec, "section"),
				Text:     recordString(rec, "text"),
				Severity: graph.Severity(recordString(rec, "severity")),
			})
		}
		return out, res.Err()
	})
	telemetry.RecordGraphQuery("requirements_for_section", time.Since(start))
	if err != nil {
		c.setAvailable(false)
		return nil, fmt.Errorf("requirements for section: %w", err)
	}
	requirements, _ := records.([]graph.Requirement)
	sort.Slice(requirements, func(i, j int) bool {
		if requirements[i].Category != requirements[j].Category {
			return requirements[i].Category < requirements[j].Category
		}
		return requirements[i].ID < requirements[j].ID
	})
	c.setAvailable(true)
	return requirements, nil
}

func recordString(rec *drv.Record, key string) string {
	value, ok := rec.Get(key)
	if !ok || value == nil {
		return ""
	}
	text, _ := value.(string)
	return text
}

func (c *Client) setAvailable(ready bool) {
	c.mu.Lock()
	c.available = ready
	c.mu.Unlock()
}
