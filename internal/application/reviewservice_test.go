package application_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/ericfisherdev/autoreview/internal/application"
	"github.com/ericfisherdev/autoreview/internal/domain/model"
	"github.com/ericfisherdev/autoreview/internal/domain/port/driven"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock implementations ---

type mockStager struct {
	sp  *model.StagedProject
	err error

	calls      int
	cleaned    bool
	gotArchive []byte
	gotName    string
}

func (m *mockStager) Stage(_ context.Context, archive []byte, filename string) (*model.StagedProject, func(), error) {
	m.calls++
	m.gotArchive = archive
	m.gotName = filename

	cleanup := func() { m.cleaned = true }
	if m.err != nil {
		return nil, cleanup, m.err
	}
	return m.sp, cleanup, nil
}

type mockGenerator struct {
	mode   model.ReviewMode
	result *model.ReviewResult
	errs   []error // Per-call errors; calls beyond the slice succeed.

	calls    int
	gotInput driven.GeneratorInput
	onCall   func()
}

func (m *mockGenerator) Mode() model.ReviewMode { return m.mode }

func (m *mockGenerator) Generate(_ context.Context, in driven.GeneratorInput) (*model.ReviewResult, error) {
	call := m.calls
	m.calls++
	m.gotInput = in

	if m.onCall != nil {
		m.onCall()
	}
	if call < len(m.errs) && m.errs[call] != nil {
		return nil, m.errs[call]
	}
	return m.result, nil
}

type mockFetcher struct {
	archive []byte
	err     error

	gotRepo string
	gotRef  string
}

func (m *mockFetcher) FetchArchive(_ context.Context, repoFullName, ref string) ([]byte, error) {
	m.gotRepo = repoFullName
	m.gotRef = ref
	return m.archive, m.err
}

// --- Helpers ---

func stagedTree(t *testing.T, files map[string]string) *model.StagedProject {
	t.Helper()

	root := t.TempDir()
	rels := make([]string, 0, len(files))
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		rels = append(rels, rel)
	}
	sort.Strings(rels)

	return &model.StagedProject{Root: root, Entries: rels}
}

func validRequest() application.ReviewRequest {
	return application.ReviewRequest{
		Desc: application.Part{
			Data:        []byte("<html><h1>Demo project</h1><p>A demo.</p></html>"),
			ContentType: "text/html",
			Filename:    "desc.html",
		},
		Checklist: application.Part{
			Data:        []byte("<html><ul><li>README present</li></ul></html>"),
			ContentType: "text/html",
			Filename:    "checklist.html",
		},
		Archive: application.Part{
			Data:        []byte("PK\x03\x04fake"),
			ContentType: "application/zip",
			Filename:    "project.zip",
		},
	}
}

func offlineResult() *model.ReviewResult {
	return &model.ReviewResult{Summary: "offline summary", Score: 80, Mode: model.ModeOffline}
}

func onlineResult() *model.ReviewResult {
	return &model.ReviewResult{Summary: "online summary", Score: 90, Mode: model.ModeOnline}
}

func newService(
	stager driven.Stager,
	online, offline driven.Generator,
	fetcher driven.RepoFetcher,
	hasCredentials bool,
) *application.ReviewService {
	return application.NewReviewService(
		stager,
		online,
		offline,
		fetcher,
		100*time.Millisecond,
		1<<20,
		func() bool { return hasCredentials },
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

// --- Tests ---

func TestRun_OfflineWhenNoCredentials(t *testing.T) {
	stager := &mockStager{sp: stagedTree(t, map[string]string{"README.md": "# Demo"})}
	online := &mockGenerator{mode: model.ModeOnline, result: onlineResult()}
	offline := &mockGenerator{mode: model.ModeOffline, result: offlineResult()}
	svc := newService(stager, online, offline, nil, false)

	out, err := svc.Run(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, model.ModeOffline, out.Result.Mode)
	assert.Equal(t, 0, online.calls)
	assert.Equal(t, 1, offline.calls)
	assert.True(t, stager.cleaned)
	assert.Equal(t, "project.zip", stager.gotName)
}

func TestRun_OnlineWhenCredentialsPresent(t *testing.T) {
	stager := &mockStager{sp: stagedTree(t, map[string]string{"README.md": "# Demo"})}
	online := &mockGenerator{mode: model.ModeOnline, result: onlineResult()}
	offline := &mockGenerator{mode: model.ModeOffline, result: offlineResult()}
	svc := newService(stager, online, offline, nil, true)

	out, err := svc.Run(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, model.ModeOnline, out.Result.Mode)
	assert.Equal(t, 1, online.calls)
	assert.Equal(t, 0, offline.calls)
	assert.Equal(t, "Demo project", out.Doc.Title)
	assert.Equal(t, []string{"README present"}, out.Checklist.Items)
}

func TestRun_FallsBackOfflineAfterRetry(t *testing.T) {
	stager := &mockStager{sp: stagedTree(t, map[string]string{"README.md": "# Demo"})}
	online := &mockGenerator{
		mode: model.ModeOnline,
		errs: []error{
			&model.ProviderError{Op: "completion", Err: errors.New("status 500")},
			&model.ProviderError{Op: "completion", Err: errors.New("status 500")},
		},
	}
	offline := &mockGenerator{mode: model.ModeOffline, result: offlineResult()}
	svc := newService(stager, online, offline, nil, true)

	out, err := svc.Run(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, model.ModeOffline, out.Result.Mode)
	assert.Equal(t, 2, online.calls, "online path retries once before falling back")
	assert.Equal(t, 1, offline.calls)
	assert.True(t, stager.cleaned)
}

func TestRun_OnlineSucceedsOnRetry(t *testing.T) {
	stager := &mockStager{sp: stagedTree(t, map[string]string{"README.md": "# Demo"})}
	online := &mockGenerator{
		mode:   model.ModeOnline,
		result: onlineResult(),
		errs:   []error{&model.ProviderError{Op: "completion", Err: errors.New("status 429")}},
	}
	offline := &mockGenerator{mode: model.ModeOffline, result: offlineResult()}
	svc := newService(stager, online, offline, nil, true)

	out, err := svc.Run(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, model.ModeOnline, out.Result.Mode)
	assert.Equal(t, 2, online.calls)
	assert.Equal(t, 0, offline.calls)
}

func TestRun_ValidationFailureSkipsStaging(t *testing.T) {
	stager := &mockStager{}
	offline := &mockGenerator{mode: model.ModeOffline, result: offlineResult()}
	svc := newService(stager, nil, offline, nil, false)

	req := validRequest()
	req.Desc.Data = nil

	_, err := svc.Run(context.Background(), req)

	var validationErr *model.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, application.PartDesc, validationErr.Part)
	assert.Equal(t, 0, stager.calls, "staging must not run for invalid input")
}

func TestRun_StagingFailureCleansUp(t *testing.T) {
	stager := &mockStager{err: &model.PathTraversalError{Entry: "../evil"}}
	offline := &mockGenerator{mode: model.ModeOffline, result: offlineResult()}
	svc := newService(stager, nil, offline, nil, false)

	_, err := svc.Run(context.Background(), validRequest())

	var traversalErr *model.PathTraversalError
	require.ErrorAs(t, err, &traversalErr)
	assert.True(t, stager.cleaned)
	assert.Equal(t, 0, offline.calls)
}

func TestRun_CanceledContextIsNotMaskedByFallback(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	stager := &mockStager{sp: stagedTree(t, map[string]string{"README.md": "# Demo"})}
	online := &mockGenerator{
		mode:   model.ModeOnline,
		errs:   []error{context.Canceled, context.Canceled},
		onCall: cancel,
	}
	offline := &mockGenerator{mode: model.ModeOffline, result: offlineResult()}
	svc := newService(stager, online, offline, nil, true)

	_, err := svc.Run(ctx, validRequest())

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, offline.calls, "a canceled request must not fall back offline")
	assert.True(t, stager.cleaned)
}

func TestRun_GeneratorSeesScan(t *testing.T) {
	stager := &mockStager{sp: stagedTree(t, map[string]string{
		"README.md": "# Demo",
		"app.py":    "print('hi')\n",
	})}
	offline := &mockGenerator{mode: model.ModeOffline, result: offlineResult()}
	svc := newService(stager, nil, offline, nil, false)

	_, err := svc.Run(context.Background(), validRequest())
	require.NoError(t, err)

	require.NotNil(t, offline.gotInput.Scan)
	assert.Equal(t, []string{"README.md", "app.py"}, offline.gotInput.Scan.Files)
	assert.Contains(t, offline.gotInput.Scan.Samples, "app.py")
}

func TestRunFromRepo_Success(t *testing.T) {
	stager := &mockStager{sp: stagedTree(t, map[string]string{
		"hello-main/README.md": "# Hello service\n\nSays hello.",
		"hello-main/main.go":   "package main\n",
	})}
	fetcher := &mockFetcher{archive: []byte("PK\x03\x04repo")}
	offline := &mockGenerator{mode: model.ModeOffline, result: offlineResult()}
	svc := newService(stager, nil, offline, fetcher, false)

	out, err := svc.RunFromRepo(context.Background(), "octocat/hello", "main")
	require.NoError(t, err)

	assert.Equal(t, "octocat/hello", fetcher.gotRepo)
	assert.Equal(t, "main", fetcher.gotRef)
	assert.Equal(t, []byte("PK\x03\x04repo"), stager.gotArchive)
	assert.Equal(t, "Hello service", out.Doc.Title)
	assert.NotEmpty(t, out.Checklist.Items)
	assert.True(t, stager.cleaned)
}

func TestRunFromRepo_TitleFallsBackToRepoName(t *testing.T) {
	stager := &mockStager{sp: stagedTree(t, map[string]string{"main.go": "package main\n"})}
	fetcher := &mockFetcher{archive: []byte("PK\x03\x04repo")}
	offline := &mockGenerator{mode: model.ModeOffline, result: offlineResult()}
	svc := newService(stager, nil, offline, fetcher, false)

	out, err := svc.RunFromRepo(context.Background(), "octocat/hello", "")
	require.NoError(t, err)

	assert.Equal(t, "octocat/hello", out.Doc.Title)
}

func TestRunFromRepo_InvalidName(t *testing.T) {
	svc := newService(&mockStager{}, nil, &mockGenerator{}, &mockFetcher{}, false)

	_, err := svc.RunFromRepo(context.Background(), "not-a-repo", "")

	var validationErr *model.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "repo", validationErr.Part)
}

func TestRunFromRepo_FetchFailure(t *testing.T) {
	stager := &mockStager{}
	fetcher := &mockFetcher{err: errors.New("upstream 500")}
	svc := newService(stager, nil, &mockGenerator{}, fetcher, false)

	_, err := svc.RunFromRepo(context.Background(), "octocat/hello", "")

	var fetchErr *model.RepoFetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "octocat/hello", fetchErr.Repo)
	assert.Equal(t, 0, stager.calls)
}

func TestRunFromRepo_NotConfigured(t *testing.T) {
	svc := newService(&mockStager{}, nil, &mockGenerator{}, nil, false)

	_, err := svc.RunFromRepo(context.Background(), "octocat/hello", "")
	require.Error(t, err)
}
