// File path: internal/agent/agent.go
package agent

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/tmc/langchaingo/llms"
	langopenai "github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langgraphgo/graph"

	"github.com/arclight-qa/weldcheck/internal/common"
	reqgraph "github.com/arclight-qa/weldcheck/internal/graph"
	"github.com/arclight-qa/weldcheck/internal/weld"
)

const systemPrompt = "You are a welding QA reviewer. Given a WPS/PQR comparison report and the " +
	"applicable code clauses, write a short engineering assessment: state whether the WPS is " +
	"supported by the PQR, walk through the non-compliant sections in order of severity, and " +
	"recommend concrete follow-up actions. Do not invent values that are not in the report."

// Model is the narrow slice of the langchaingo chat interface the analyzer
// needs. The production implementation is llms/openai.
type Model interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// Analyzer turns a comparison report into a narrative assessment. The flow is
// a two-node message graph: gather collects the report summary and the code
// clauses for flagged sections, draft asks the model to write the assessment.
type Analyzer struct {
	model        Model
	requirements reqgraph.Client
}

// NewAnalyzer wires the analyzer with an optional model and requirement
// source. Either may be nil; the analyzer degrades to a deterministic summary.
func NewAnalyzer(model Model, requirements reqgraph.Client) *Analyzer {
	if requirements == nil {
		requirements = reqgraph.NoopClient()
	}
	return &Analyzer{model: model, requirements: requirements}
}

// NewModelFromEnv builds the langchaingo chat model when OPENAI_API_KEY is
// set. AGENT_MODEL overrides the model name and OPENAI_ENDPOINT redirects the
// base URL. Returns nil when no credentials are available.
func NewModelFromEnv() Model {
	logger := common.Logger()
	token := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if token == "" {
		logger.Warn("agent: OPENAI_API_KEY not set; analyzer will use deterministic summaries")
		return nil
	}
	modelName := strings.TrimSpace(os.Getenv("AGENT_MODEL"))
	if modelName == "" {
		modelName = "gpt-4o"
	}
	opts := []langopenai.Option{
		langopenai.WithToken(token),
		langopenai.WithModel(modelName),
	}
	if endpoint := strings.TrimSpace(os.Getenv("OPENAI_ENDPOINT")); endpoint != "" {
		opts = append(opts, langopenai.WithBaseURL(endpoint))
	}
	model, err := langopenai.New(opts...)
	if err != nil {
		logger.Error("agent: model init failed", "error", err)
		return nil
	}
	logger.Info("agent: model configured", "model", modelName)
	return model
}

// Analyze runs the gather/draft graph over the report and returns the
// assessment text.
func (a *Analyzer) Analyze(ctx context.Context, report *weld.Report) (string, error) {
	if report == nil {
		return "", fmt.Errorf("no report to analyze")
	}
	logger := common.Logger()

	g := graph.NewMessageGraph()
	g.AddNode("gather", func(ctx context.Context, state []llms.MessageContent) ([]llms.MessageContent, error) {
		summary := a.describeReport(ctx, report)
		state = append(state, llms.TextParts(llms.ChatMessageTypeHuman, summary))
		return state, nil
	})
	g.AddNode("draft", func(ctx context.Context, state []llms.MessageContent) ([]llms.MessageContent, error) {
		if a.model == nil {
			return append(state, llms.TextParts(llms.ChatMessageTypeAI, deterministicAssessment(report))), nil
		}
		resp, err := a.model.GenerateContent(ctx, state, llms.WithTemperature(0.2))
		if err != nil {
			return nil, fmt.Errorf("draft assessment: %w", err)
		}
		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("draft assessment: no choices returned")
		}
		return append(state, llms.TextParts(llms.ChatMessageTypeAI, resp.Choices[0].Content)), nil
	})
	g.AddEdge("gather", "draft")
	g.AddEdge("draft", graph.END)
	g.SetEntryPoint("gather")

	runnable, err := g.Compile()
	if err != nil {
		return "", fmt.Errorf("compile analysis graph: %w", err)
	}
	initial := []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt)}
	state, err := runnable.Invoke(ctx, initial)
	if err != nil {
		return "", err
	}
	if len(state) == 0 {
		return "", fmt.Errorf("analysis graph produced no output")
	}
	final := state[len(state)-1]
	text := messageText(final)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("analysis graph produced empty output")
	}
	logger.Info("agent: analysis complete", "sections", len(report.Sections), "compliant", report.OverallCompliance)
	return text, nil
}

// describeReport renders the report plus the code clauses for flagged
// sections into the prompt the draft node consumes.
func (a *Analyzer) describeReport(ctx context.Context, report *weld.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Overall compliance: %t (score %d).\n", report.OverallCompliance, report.OverallScore)
	if report.DocumentInfo.WPSNumber != "" || report.DocumentInfo.PQRNumber != "" {
		fmt.Fprintf(&b, "Documents: WPS %s vs PQR %s.\n", report.DocumentInfo.WPSNumber, report.DocumentInfo.PQRNumber)
	}
	if len(report.CriticalIssues) > 0 {
		b.WriteString("Critical issues:\n")
		for _, issue := range report.CriticalIssues {
			fmt.Fprintf(&b, "- %s\n", issue)
		}
	}

	names := make([]string, 0, len(report.Sections))
	for name := range report.Sections {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		section := report.Sections[name]
		fmt.Fprintf(&b, "\nSection %s: score %d, compliant %t.\n", section.Name, section.Score, section.Compliance)
		for _, issue := range section.Issues {
			fmt.Fprintf(&b, "  issue: %s\n", issue)
		}
		for _, param := range section.Parameters {
			if param.Compliance {
				continue
			}
			fmt.Fprintf(&b, "  %s: WPS=%q PQR=%q (%s)\n", param.Name, param.WPSValue, param.PQRValue, param.Reason)
		}
		if section.Compliance {
			continue
		}
		reqs, err := a.requirements.RequirementsForSection(ctx, name)
		if err != nil {
			common.Logger().Warn("agent: requirement lookup failed", "section", name, "error", err)
			continue
		}
		for _, req := range reqs {
			fmt.Fprintf(&b, "  clause %s (%s): %s\n", req.Category, req.Severity, req.Text)
		}
	}
	return b.String()
}

// deterministicAssessment is the no-model fallback: a plain summary built
// straight from the report.
func deterministicAssessment(report *weld.Report) string {
	var b strings.Builder
	if report.OverallCompliance {
		fmt.Fprintf(&b, "The WPS is supported by the PQR with an overall score of %d.", report.OverallScore)
	} else {
		fmt.Fprintf(&b, "The WPS is NOT fully supported by the PQR; overall score %d.", report.OverallScore)
	}
	names := make([]string, 0, len(report.Sections))
	for name, section := range report.Sections {
		if !section.Compliance {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	if len(names) > 0 {
		fmt.Fprintf(&b, " Sections requiring review: %s.", strings.Join(names, ", "))
	}
	if len(report.CriticalIssues) > 0 {
		fmt.Fprintf(&b, " %d critical issue(s) were recorded.", len(report.CriticalIssues))
	}
	b.WriteString(" Review the flagged parameters against the qualified ranges before releasing the WPS.")
	return b.String()
}

func messageText(msg llms.MessageContent) string {
	var parts []string
	for _, part := range msg.Parts {
		if text, ok := part.(llms.TextContent); ok {
			parts = append(parts, text.Text)
		}
	}
	return strings.Join(parts, "\n")
}
