// File path: internal/extract/extractor_test.go
package extract

import (
	"context"
	"strings"
	"testing"

	"github.com/arclight-qa/weldcheck/internal/llm"
	"github.com/arclight-qa/weldcheck/internal/weld"
)

type scriptedProvider struct {
	responses []string
	calls     int
}

func (p *scriptedProvider) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	idx := p.calls
	if idx >= len(p.responses) {
		idx = len(p.responses) - 1
	}
	p.calls++
	return p.responses[idx], nil
}

func (p *scriptedProvider) Name() string { return "scripted" }

func TestExtractNormalizesFencedResponse(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		"```json\n{\"document_info\": {\"wps_number\": \"WPS-9\"}, \"PREHEAT (QW-406)\": {\"preheat_temp\": \"100-200\"}}\n```",
	}}
	extractor := NewExtractor(provider, Config{})

	doc, err := extractor.Extract(context.Background(), "GTAW preheat 100-200 F", DocTypeWPS)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	preheat, ok := doc["preheat"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected canonical preheat section, got %v", doc)
	}
	if preheat["preheat_temp"] != "100-200" {
		t.Fatalf("unexpected preheat values %v", preheat)
	}
	if provider.calls != 1 {
		t.Fatalf("expected one chunk extraction, got %d", provider.calls)
	}
}

func TestExtractSkipsUnparsableChunks(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		"the model rambled instead of answering",
		`{"joints": {"joint_design": "single V groove"}}`,
	}}
	extractor := NewExtractor(provider, Config{ChunkSize: 80, ChunkOverlap: 10})

	text := strings.Repeat("joint design single V groove root opening. ", 6)
	doc, err := extractor.Extract(context.Background(), text, DocTypeWPS)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if provider.calls < 2 {
		t.Fatalf("expected chunked extraction, got %d calls", provider.calls)
	}
	joints, ok := doc["joints"].(map[string]interface{})
	if !ok || joints["joint_design"] != "single V groove" {
		t.Fatalf("expected joints from surviving chunks, got %v", doc)
	}
}

func TestExtractFailsWhenNothingParses(t *testing.T) {
	provider := &scriptedProvider{responses: []string{"not json"}}
	extractor := NewExtractor(provider, Config{})

	if _, err := extractor.Extract(context.Background(), "some welding text", DocTypePQR); err == nil {
		t.Fatalf("expected failure when no chunk yields structured data")
	} else if !strings.Contains(err.Error(), "no structured data") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestExtractRejectsEmptyInput(t *testing.T) {
	extractor := NewExtractor(&scriptedProvider{responses: []string{"{}"}}, Config{})
	if _, err := extractor.Extract(context.Background(), "   \n\t ", DocTypeWPS); err == nil {
		t.Fatalf("expected error for empty document text")
	}
	if _, err := (&Extractor{normalizer: weld.NewNormalizer(), cfg: Config{}.withDefaults()}).Extract(context.Background(), "text", DocTypeWPS); err == nil {
		t.Fatalf("expected error without provider")
	}
}

func TestStripCodeFences(t *testing.T) {
	cases := map[string]string{
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"Here is the JSON you asked for {\"a\":1} done": `{"a":1}`,
		`{"a":1}`: `{"a":1}`,
	}
	for input, want := range cases {
		if got := stripCodeFences(input); got != want {
			t.Fatalf("stripCodeFences(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestAssessCompleteness(t *testing.T) {
	doc := weld.Document{
		"preheat": map[string]interface{}{
			"preheat_temp":        "100-200",
			"interpass_temp":      "350 max",
			"preheat_maintenance": "yes",
		},
		"joints": map[string]interface{}{
			"fit_up": "per drawing",
		},
		"filler_metals": map[string]interface{}{
			"GTAW": map[string]interface{}{"f_number": "6"},
		},
	}
	result := AssessCompleteness(doc)
	if result.Sections["preheat"] != 100 {
		t.Fatalf("fully populated preheat should score 100, got %d", result.Sections["preheat"])
	}
	if result.Sections["joints"] != 50 {
		t.Fatalf("present section without catalog params should score 50, got %d", result.Sections["joints"])
	}
	if result.Sections["filler_metals"] != 100 {
		t.Fatalf("special-handling section should score on presence, got %d", result.Sections["filler_metals"])
	}
	if result.Sections["gas"] != 0 {
		t.Fatalf("missing section should score 0, got %d", result.Sections["gas"])
	}
	if result.Overall != 30 {
		t.Fatalf("unexpected overall completeness %d", result.Overall)
	}

	partial := weld.Document{"preheat": map[string]interface{}{"preheat_temp": "150"}}
	if got := AssessCompleteness(partial).Sections["preheat"]; got != 33 {
		t.Fatalf("one of three params should score 33, got %d", got)
	}

	empty := AssessCompleteness(weld.Document{})
	if empty.Overall != 0 {
		t.Fatalf("empty document should score 0, got %d", empty.Overall)
	}
}
