package httphandler

import (
	"encoding/json"
	"net/http"

	"github.com/ericfisherdev/autoreview/internal/application"
	"github.com/ericfisherdev/autoreview/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// ReviewResponse is the JSON representation of a completed review run.
type ReviewResponse struct {
	Summary    string            `json:"summary"`
	Findings   []FindingResponse `json:"findings"`
	Score      int               `json:"score"`
	Mode       string            `json:"mode"`
	Project    ProjectResponse   `json:"project_meta"`
	Checklist  ChecklistResponse `json:"checklist"`
	ReportHTML string            `json:"report_html"`
}

// FindingResponse is the JSON representation of a single finding.
type FindingResponse struct {
	Location string `json:"location"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// ProjectResponse echoes back what was parsed from the description document.
type ProjectResponse struct {
	Title   string   `json:"title"`
	Headers []string `json:"headers"`
}

// ChecklistResponse echoes back the parsed checklist items.
type ChecklistResponse struct {
	Title string   `json:"title"`
	Items []string `json:"items"`
}

// RepoReviewRequest is the JSON body for the repository review endpoint.
type RepoReviewRequest struct {
	Repo string `json:"repo"`
	Ref  string `json:"ref"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// toReviewResponse converts a review outcome to its JSON response
// representation, including the rendered HTML report.
func toReviewResponse(out *application.ReviewOutcome) ReviewResponse {
	findings := make([]FindingResponse, 0, len(out.Result.Findings))
	for _, f := range out.Result.Findings {
		findings = append(findings, toFindingResponse(f))
	}

	headers := out.Doc.Headers
	if headers == nil {
		headers = []string{}
	}
	items := out.Checklist.Items
	if items == nil {
		items = []string{}
	}

	return ReviewResponse{
		Summary:    out.Result.Summary,
		Findings:   findings,
		Score:      out.Result.Score,
		Mode:       string(out.Result.Mode),
		Project:    ProjectResponse{Title: out.Doc.Title, Headers: headers},
		Checklist:  ChecklistResponse{Title: out.Checklist.Title, Items: items},
		ReportHTML: RenderMarkdown(reportMarkdown(out)),
	}
}

// toFindingResponse converts a domain Finding to its JSON representation.
func toFindingResponse(f model.Finding) FindingResponse {
	return FindingResponse{
		Location: f.Location(),
		Severity: string(f.Severity),
		Message:  f.Message,
	}
}
