package httphandler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ericfisherdev/autoreview/internal/application"
	"github.com/ericfisherdev/autoreview/internal/domain/model"
)

// ReviewRunner is the application-layer surface the HTTP adapter drives.
type ReviewRunner interface {
	Run(ctx context.Context, req application.ReviewRequest) (*application.ReviewOutcome, error)
	RunFromRepo(ctx context.Context, repoFullName, ref string) (*application.ReviewOutcome, error)
}

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	reviews        ReviewRunner
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(reviews ReviewRunner, maxUploadBytes int64, logger *slog.Logger) *Handler {
	return &Handler{
		reviews:        reviews,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/review/run", h.RunReview)
	mux.HandleFunc("POST /api/review/github", h.RunRepoReview)
	mux.HandleFunc("GET /api/health", h.Health)

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// RunReview accepts a multipart upload with desc, checklist, and project_zip
// parts and runs a full review over the uploaded archive.
func (h *Handler) RunReview(w http.ResponseWriter, r *http.Request) {
	// Three parts plus multipart framing overhead.
	r.Body = http.MaxBytesReader(w, r.Body, 3*h.maxUploadBytes+1<<20)

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart request body")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	req := application.ReviewRequest{
		Desc:      h.formPart(r, application.PartDesc),
		Checklist: h.formPart(r, application.PartChecklist),
		Archive:   h.formPart(r, application.PartArchive),
	}

	out, err := h.reviews.Run(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toReviewResponse(out))
}

// RunRepoReview fetches a repository snapshot and runs a review over it.
func (h *Handler) RunRepoReview(w http.ResponseWriter, r *http.Request) {
	var req RepoReviewRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	out, err := h.reviews.RunFromRepo(r.Context(), req.Repo, req.Ref)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toReviewResponse(out))
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// formPart reads one multipart file field. Missing or unreadable fields
// produce an empty Part, which request validation rejects with the field
// name in the message.
func (h *Handler) formPart(r *http.Request, field string) application.Part {
	file, header, err := r.FormFile(field)
	if err != nil {
		return application.Part{}
	}
	defer file.Close()

	// Read one byte past the limit so oversized parts fail validation
	// instead of being silently truncated.
	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		h.logger.Warn("failed to read multipart field", "field", field, "error", err)
		return application.Part{}
	}

	return application.Part{
		Data:        data,
		ContentType: header.Header.Get("Content-Type"),
		Filename:    header.Filename,
	}
}

// writeServiceError maps application and domain errors onto HTTP statuses.
// Client-side input problems are 400s, upstream repository failures are
// 502s, and everything else is an opaque 500.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr *model.ValidationError
		traversalErr  *model.PathTraversalError
		tooLargeErr   *model.ArchiveTooLargeError
		fetchErr      *model.RepoFetchError
	)

	switch {
	case errors.As(err, &validationErr), errors.As(err, &traversalErr):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &tooLargeErr):
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.As(err, &fetchErr):
		h.logger.Error("repository fetch failed", "repo", fetchErr.Repo, "error", err)
		writeError(w, http.StatusBadGateway, "failed to fetch repository archive")
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful to write.
	default:
		h.logger.Error("review run failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
