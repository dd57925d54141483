package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ericfisherdev/autoreview/internal/domain/model"
	"github.com/ericfisherdev/autoreview/internal/domain/port/driven"
	"github.com/ericfisherdev/autoreview/internal/htmldoc"
)

// ReviewOutcome bundles the generated result with the parsed documents so
// the HTTP adapter can echo them back in the response.
type ReviewOutcome struct {
	Result    *model.ReviewResult
	Doc       model.ProjectDoc
	Checklist model.Checklist
}

// ReviewService orchestrates a review run: validate the uploaded parts,
// stage the archive, scan the tree, generate the review in the selected
// mode, and guarantee staging cleanup on every exit path.
type ReviewService struct {
	stager          driven.Stager
	online          driven.Generator // Nil when no provider adapter is wired.
	offline         driven.Generator
	fetcher         driven.RepoFetcher // Nil when repository reviews are disabled.
	providerTimeout time.Duration
	maxPartBytes    int64
	hasCredentials  func() bool
	logger          *slog.Logger
}

// NewReviewService creates a ReviewService. hasCredentials is consulted per
// request so credential rotation does not require reconstructing the service.
func NewReviewService(
	stager driven.Stager,
	online driven.Generator,
	offline driven.Generator,
	fetcher driven.RepoFetcher,
	providerTimeout time.Duration,
	maxPartBytes int64,
	hasCredentials func() bool,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		stager:          stager,
		online:          online,
		offline:         offline,
		fetcher:         fetcher,
		providerTimeout: providerTimeout,
		maxPartBytes:    maxPartBytes,
		hasCredentials:  hasCredentials,
		logger:          logger,
	}
}

// Run drives the full pipeline for an uploaded project. Validation and
// staging failures are terminal; online generation failures degrade to the
// offline generator and never fail the request.
func (s *ReviewService) Run(ctx context.Context, req ReviewRequest) (*ReviewOutcome, error) {
	if err := ValidateRequest(req, s.maxPartBytes); err != nil {
		return nil, err
	}

	doc := htmldoc.ParseDescription(req.Desc.Data)
	check := htmldoc.ParseChecklist(req.Checklist.Data)

	sp, cleanup, err := s.stager.Stage(ctx, req.Archive.Data, req.Archive.Filename)
	if cleanup != nil {
		defer cleanup()
	}
	if err != nil {
		return nil, err
	}

	result, err := s.review(ctx, doc, check, sp)
	if err != nil {
		return nil, err
	}
	return &ReviewOutcome{Result: result, Doc: doc, Checklist: check}, nil
}

// RunFromRepo reviews a repository snapshot instead of an upload. The
// repository README stands in for the description document and a fixed
// heuristic checklist is applied.
func (s *ReviewService) RunFromRepo(ctx context.Context, repoFullName, ref string) (*ReviewOutcome, error) {
	if s.fetcher == nil {
		return nil, fmt.Errorf("repository reviews are not configured")
	}
	if !validRepoName(repoFullName) {
		return nil, &model.ValidationError{Part: "repo", Reason: `want "owner/name"`}
	}

	archive, err := s.fetcher.FetchArchive(ctx, repoFullName, ref)
	if err != nil {
		return nil, &model.RepoFetchError{Repo: repoFullName, Err: err}
	}

	sp, cleanup, err := s.stager.Stage(ctx, archive, repoFullName+".zip")
	if cleanup != nil {
		defer cleanup()
	}
	if err != nil {
		return nil, err
	}

	doc := htmldoc.ParseDescription(readFirstReadme(sp))
	if doc.Title == "" {
		doc.Title = repoFullName
	}
	check := model.Checklist{
		Title: "Heuristic checklist",
		Items: []string{
			"README present",
			"Dependency manifest present (requirements.txt, go.mod, package.json, or similar)",
			"Tests present",
		},
	}

	result, err := s.review(ctx, doc, check, sp)
	if err != nil {
		return nil, err
	}
	return &ReviewOutcome{Result: result, Doc: doc, Checklist: check}, nil
}

// review runs the mode-selected generation over a staged project. The
// offline generator is the availability floor: it has no external
// dependency and is used whenever the online path is unavailable or fails.
func (s *ReviewService) review(ctx context.Context, doc model.ProjectDoc, check model.Checklist, sp *model.StagedProject) (*model.ReviewResult, error) {
	scan, err := ScanProject(sp)
	if err != nil {
		return nil, fmt.Errorf("scanning staged project: %w", err)
	}

	in := driven.GeneratorInput{Doc: doc, Checklist: check, Scan: scan}

	if SelectMode(s.hasCredentials()) == model.ModeOnline && s.online != nil {
		result, err := s.generateOnline(ctx, in)
		if err == nil {
			return result, nil
		}
		// A canceled request is the client's doing, not the provider's.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn("online generation failed, falling back to offline", "error", err)
	}

	result, err := s.offline.Generate(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("offline generation: %w", err)
	}
	return result, nil
}

// generateOnline calls the provider with a per-attempt timeout, retrying
// once before giving up.
func (s *ReviewService) generateOnline(ctx context.Context, in driven.GeneratorInput) (*model.ReviewResult, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, s.providerTimeout)
		result, err := s.online.Generate(callCtx, in)
		cancel()
		if err == nil {
			return result, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		if attempt == 0 {
			s.logger.Debug("online generation attempt failed, retrying", "error", err)
		}
	}
	return nil, lastErr
}

// readFirstReadme returns the content of the first README-like entry in the
// staged tree, or nil when none exists. Repository zipballs nest everything
// under a top-level directory, so any depth counts.
func readFirstReadme(sp *model.StagedProject) []byte {
	for _, rel := range sp.Entries {
		base := strings.ToLower(filepath.Base(rel))
		if base == "readme.md" || base == "readme.txt" || base == "readme.rst" || base == "readme" {
			data, err := os.ReadFile(filepath.Join(sp.Root, filepath.FromSlash(rel)))
			if err == nil {
				return data
			}
		}
	}
	return nil
}

func validRepoName(full string) bool {
	owner, name, ok := strings.Cut(full, "/")
	return ok && owner != "" && name != "" && !strings.Contains(name, "/")
}
