// File path: internal/extract/extractor.go
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/arclight-qa/weldcheck/internal/common"
	"github.com/arclight-qa/weldcheck/internal/common/telemetry"
	"github.com/arclight-qa/weldcheck/internal/llm"
	"github.com/arclight-qa/weldcheck/internal/weld"
)

// Config controls how documents are chunked before extraction.
type Config struct {
	ChunkSize    int
	ChunkOverlap int
}

func (c Config) withDefaults() Config {
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.ChunkOverlap <= 0 || c.ChunkOverlap >= c.ChunkSize {
		c.ChunkOverlap = DefaultChunkOverlap
	}
	return c
}

// Extractor turns raw document text into a canonical weld.Document by
// chunking, prompting the chat model per chunk, and reconciling the partial
// results through the merge and normalization engine.
type Extractor struct {
	provider   llm.Provider
	normalizer *weld.Normalizer
	cfg        Config
}

func NewExtractor(provider llm.Provider, cfg Config) *Extractor {
	return &Extractor{
		provider:   provider,
		normalizer: weld.NewNormalizer(),
		cfg:        cfg.withDefaults(),
	}
}

// Extract runs the full chunk-extract-merge-normalize pipeline for one
// document. Individual chunks that fail extraction or produce invalid JSON
// are skipped with a warning; the call fails only when no chunk yields
// structured data.
func (e *Extractor) Extract(ctx context.Context, text string, docType DocType) (weld.Document, error) {
	logger := common.Logger()
	if e.provider == nil {
		return nil, fmt.Errorf("no llm provider configured")
	}
	cleaned := PreprocessText(text)
	if cleaned == "" {
		return nil, fmt.Errorf("document text is empty")
	}
	chunks := SplitTextWithOverlap(cleaned, e.cfg.ChunkSize, e.cfg.ChunkOverlap)
	logger.Info("extract: starting extraction", "doc_type", docType, "chars", len(cleaned), "chunks", len(chunks))

	fragments := make([]weld.Fragment, 0, len(chunks))
	for i, chunk := range chunks {
		started := time.Now()
		fragment, err := e.extractChunk(ctx, chunk, docType, i, len(chunks))
		telemetry.RecordExtractionChunk(err == nil, time.Since(started))
		if err != nil {
			logger.Warn("extract: chunk skipped", "doc_type", docType, "chunk", i, "error", err)
			continue
		}
		fragments = append(fragments, fragment)
	}
	if len(fragments) == 0 {
		return nil, fmt.Errorf("no structured data extracted from %d chunks", len(chunks))
	}

	merged, err := weld.Merge(fragments)
	if err != nil {
		return nil, fmt.Errorf("merge fragments: %w", err)
	}
	doc := e.normalizer.Normalize(merged)
	logger.Info("extract: extraction complete", "doc_type", docType, "fragments", len(fragments), "sections", len(doc))
	return doc, nil
}

func (e *Extractor) extractChunk(ctx context.Context, chunk string, docType DocType, index, total int) (weld.Fragment, error) {
	messages := []llm.Message{
		{Role: "system", Content: systemPrompt(docType)},
		{Role: "user", Content: userPrompt(docType, chunk, index, total)},
	}
	response, err := e.provider.Chat(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	payload := stripCodeFences(response)
	var fragment weld.Fragment
	if err := json.Unmarshal([]byte(payload), &fragment); err != nil {
		return nil, fmt.Errorf("parse chunk response: %w", err)
	}
	return fragment, nil
}

// stripCodeFences removes markdown fences the model sometimes wraps around
// its JSON despite instructions.
func stripCodeFences(response string) string {
	cleaned := strings.ReplaceAll(response, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)
	if start := strings.Index(cleaned, "{"); start > 0 {
		if end := strings.LastIndex(cleaned, "}"); end > start {
			cleaned = cleaned[start : end+1]
		}
	}
	return cleaned
}

// Completeness summarizes how much of the canonical catalog an extracted
// document actually populated.
type Completeness struct {
	Sections map[string]int `json:"sections"`
	Overall  int            `json:"overall"`
}

// AssessCompleteness scores each catalog section by whether it carries data
// and weights the per-section scores into an overall figure.
func AssessCompleteness(doc weld.Document) Completeness {
	catalog := weld.DefaultCatalog()
	result := Completeness{Sections: make(map[string]int, len(catalog))}
	totalWeight := 0
	achieved := 0
	for _, section := range catalog {
		totalWeight += section.Weight
		score := sectionCompleteness(doc, section)
		result.Sections[section.ID] = score
		achieved += score * section.Weight
	}
	if totalWeight > 0 {
		result.Overall = achieved / totalWeight
	}
	return result
}

func sectionCompleteness(doc weld.Document, section weld.SectionSpec) int {
	value, ok := doc[section.ID]
	if !ok {
		return 0
	}
	mapping, ok := value.(map[string]interface{})
	if !ok || len(mapping) == 0 {
		return 0
	}
	if len(section.Parameters) == 0 || section.SpecialHandling {
		return 100
	}
	populated := 0
	for _, param := range section.Parameters {
		if v, ok := mapping[param.ID]; ok && !isBlank(v) {
			populated++
		}
	}
	if populated == 0 {
		// The section exists with content even if none of the catalog
		// parameters matched; score presence, not parameter coverage.
		return 50
	}
	return populated * 100 / len(section.Parameters)
}

func isBlank(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	default:
		return false
	}
}
