// Package yandex implements the online Generator port against the
// YandexGPT foundation-models completion API.
package yandex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ericfisherdev/autoreview/internal/domain/model"
	"github.com/ericfisherdev/autoreview/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Generator = (*Client)(nil)

// Prompt budget constants. The completion API rejects oversized requests,
// so the code context is clipped before the call.
const (
	maxContextChars  = 12_000
	maxDocChars      = 4_000
	completionTokens = 2000
	temperature      = 0.2
)

// Client calls the YandexGPT completion endpoint and parses the structured
// review it returns.
type Client struct {
	endpoint string
	apiKey   string
	folderID string
	model    string
	http     *http.Client
}

// NewClient creates a provider client. The http.Client carries no timeout
// of its own; callers bound each request through the context.
func NewClient(endpoint, apiKey, folderID, modelName string) *Client {
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		folderID: folderID,
		model:    modelName,
		http:     &http.Client{},
	}
}

// Mode reports which review mode this generator serves.
func (c *Client) Mode() model.ReviewMode { return model.ModeOnline }

// completionRequest is the JSON body of the completion API call.
type completionRequest struct {
	ModelURI          string              `json:"modelUri"`
	CompletionOptions completionOptions   `json:"completionOptions"`
	Messages          []completionMessage `json:"messages"`
}

type completionOptions struct {
	Stream      bool    `json:"stream"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"maxTokens"`
}

type completionMessage struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// completionResponse is the subset of the API response the client reads.
type completionResponse struct {
	Result struct {
		Alternatives []struct {
			Message struct {
				Text string `json:"text"`
			} `json:"message"`
		} `json:"alternatives"`
	} `json:"result"`
}

// reviewJSON is the structured review the prompt instructs the model to
// return.
type reviewJSON struct {
	Summary  string `json:"summary"`
	Findings []struct {
		Path     string `json:"path"`
		Line     int    `json:"line"`
		Severity string `json:"severity"`
		Message  string `json:"message"`
	} `json:"findings"`
	Score int `json:"score"`
}

// Generate sends the review prompt to the provider and parses the reply.
// Every failure mode (transport, non-200, empty alternatives, unparsable
// JSON) returns *model.ProviderError so the orchestrator can fall back.
func (c *Client) Generate(ctx context.Context, in driven.GeneratorInput) (*model.ReviewResult, error) {
	body, err := json.Marshal(completionRequest{
		ModelURI: fmt.Sprintf("gpt://%s/%s", c.folderID, c.model),
		CompletionOptions: completionOptions{
			Stream:      false,
			Temperature: temperature,
			MaxTokens:   completionTokens,
		},
		Messages: []completionMessage{
			{Role: "user", Text: buildPrompt(in)},
		},
	})
	if err != nil {
		return nil, &model.ProviderError{Op: "encode request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &model.ProviderError{Op: "build request", Err: err}
	}
	req.Header.Set("Authorization", "Api-Key "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-folder-id", c.folderID)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &model.ProviderError{Op: "completion call", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &model.ProviderError{
			Op:  "completion call",
			Err: fmt.Errorf("status %d: %s", resp.StatusCode, snippet),
		}
	}

	var cr completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, &model.ProviderError{Op: "decode response", Err: err}
	}
	if len(cr.Result.Alternatives) == 0 {
		return nil, &model.ProviderError{Op: "decode response", Err: fmt.Errorf("no alternatives in reply")}
	}

	return parseReview(cr.Result.Alternatives[0].Message.Text)
}

// parseReview converts the model's reply into a ReviewResult. Markdown
// fencing around the JSON object is tolerated and stripped.
func parseReview(text string) (*model.ReviewResult, error) {
	text = stripFencing(text)

	var rj reviewJSON
	if err := json.Unmarshal([]byte(text), &rj); err != nil {
		return nil, &model.ProviderError{Op: "parse review", Err: err}
	}
	if strings.TrimSpace(rj.Summary) == "" {
		return nil, &model.ProviderError{Op: "parse review", Err: fmt.Errorf("empty summary")}
	}

	findings := make([]model.Finding, 0, len(rj.Findings))
	for _, f := range rj.Findings {
		sev := model.Severity(strings.ToLower(f.Severity))
		if !model.ValidSeverity(sev) {
			sev = model.SeverityInfo
		}
		line := f.Line
		if line < 0 {
			line = 0
		}
		findings = append(findings, model.Finding{
			Path:     strings.TrimSpace(f.Path),
			Line:     line,
			Severity: sev,
			Message:  strings.TrimSpace(f.Message),
		})
	}

	return &model.ReviewResult{
		Summary:  strings.TrimSpace(rj.Summary),
		Findings: findings,
		Score:    model.ClampScore(rj.Score),
		Mode:     model.ModeOnline,
	}, nil
}

// stripFencing removes a surrounding markdown code fence, which completion
// models add even when told not to.
func stripFencing(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	if _, rest, ok := strings.Cut(text, "\n"); ok {
		text = rest
	}
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}

// buildPrompt assembles the review instructions, the project documents,
// the heuristic issues, and the clipped code samples into one user message.
func buildPrompt(in driven.GeneratorInput) string {
	var sb strings.Builder

	sb.WriteString(`You are a strict code reviewer. Analyze the project below for bugs, style, security, and architecture problems, and check it against the provided description and checklist. Do not invent checklist items.

Return ONLY a JSON object with these fields:
- "summary": a short overall assessment (2-4 sentences)
- "findings": an array of {"path", "line", "severity", "message"} objects, ordered by importance; "severity" is one of "error", "warning", "info"; "line" is 0 when the finding applies to a whole file; "path" is empty for project-wide findings
- "score": an integer from 0 to 100, where 100 means no problems found

No markdown fencing, no explanation outside the JSON.`)
	sb.WriteString("\n\n")

	if in.Doc.Title != "" || in.Doc.Content != "" {
		sb.WriteString("Project description:\n")
		sb.WriteString(clip(in.Doc.Title+"\n"+in.Doc.Content, maxDocChars))
		sb.WriteString("\n\n")
	}
	if len(in.Checklist.Items) > 0 {
		sb.WriteString("Checklist:\n- ")
		sb.WriteString(clip(strings.Join(in.Checklist.Items, "\n- "), maxDocChars))
		sb.WriteString("\n\n")
	}
	if len(in.Scan.Issues) > 0 {
		sb.WriteString("Automated pre-checks flagged:\n- ")
		sb.WriteString(strings.Join(in.Scan.Issues, "\n- "))
		sb.WriteString("\n\n")
	}

	sb.WriteString("Project files:\n")
	sb.WriteString(clip(strings.Join(in.Scan.Files, "\n"), maxDocChars))
	sb.WriteString("\n\nCode samples:\n")

	var ctxb strings.Builder
	for _, rel := range in.Scan.SampleOrder {
		fmt.Fprintf(&ctxb, "--- %s ---\n%s\n", rel, in.Scan.Samples[rel])
	}
	sb.WriteString(clip(ctxb.String(), maxContextChars))

	return sb.String()
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "\n... [clipped]"
}
