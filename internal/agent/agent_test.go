// File path: internal/agent/agent_test.go
package agent

import (
	"context"
	"strings"
	"testing"

	"github.com/tmc/langchaingo/llms"

	"github.com/arclight-qa/weldcheck/internal/graph/memory"
	"github.com/arclight-qa/weldcheck/internal/weld"
)

type recordingModel struct {
	prompt string
	reply  string
}

func (m *recordingModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	var b strings.Builder
	for _, msg := range messages {
		for _, part := range msg.Parts {
			if text, ok := part.(llms.TextContent); ok {
				b.WriteString(text.Text)
				b.WriteString("\n")
			}
		}
	}
	m.prompt = b.String()
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.reply}}}, nil
}

func sampleReport() *weld.Report {
	return &weld.Report{
		OverallCompliance: false,
		OverallScore:      62,
		DocumentInfo:      weld.DocumentInfo{WPSNumber: "WPS-001", PQRNumber: "PQR-001"},
		Sections: map[string]*weld.SectionResult{
			"preheat": {
				Name:       "Preheat",
				Compliance: false,
				Score:      0,
				Issues:     []string{"Preheat Temperature: Values do not match"},
				Parameters: []weld.ParameterResult{
					{Name: "Preheat Temperature", WPSValue: "50C", PQRValue: "150C", Compliance: false, Reason: "Values do not match"},
				},
			},
			"joints": {
				Name:       "Joints",
				Compliance: true,
				Score:      100,
			},
		},
		CriticalIssues: []string{"preheat: Preheat Temperature mismatch"},
	}
}

func TestAnalyzeIncludesReportAndClauses(t *testing.T) {
	model := &recordingModel{reply: "Assessment: not supported."}
	analyzer := NewAnalyzer(model, memory.NewService())

	out, err := analyzer.Analyze(context.Background(), sampleReport())
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if out != "Assessment: not supported." {
		t.Fatalf("unexpected output %q", out)
	}
	if !strings.Contains(model.prompt, "Overall compliance: false (score 62)") {
		t.Fatalf("prompt missing report summary:\n%s", model.prompt)
	}
	if !strings.Contains(model.prompt, "Preheat Temperature") {
		t.Fatalf("prompt missing flagged parameter:\n%s", model.prompt)
	}
	if !strings.Contains(model.prompt, "QW-406") {
		t.Fatalf("prompt missing preheat code clause:\n%s", model.prompt)
	}
	if strings.Contains(model.prompt, "QW-402") {
		t.Fatalf("prompt should not include clauses for compliant sections:\n%s", model.prompt)
	}
}

func TestAnalyzeWithoutModelFallsBack(t *testing.T) {
	analyzer := NewAnalyzer(nil, memory.NewService())
	out, err := analyzer.Analyze(context.Background(), sampleReport())
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if !strings.Contains(out, "NOT fully supported") {
		t.Fatalf("fallback summary missing verdict: %q", out)
	}
	if !strings.Contains(out, "preheat") {
		t.Fatalf("fallback summary missing flagged section: %q", out)
	}
}

func TestAnalyzeNilReport(t *testing.T) {
	analyzer := NewAnalyzer(nil, nil)
	if _, err := analyzer.Analyze(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil report")
	}
}
