package model

import "fmt"

// ValidationError reports a bad or missing uploaded part. Requests failing
// validation terminate before staging or any provider call.
type ValidationError struct {
	Part   string // "desc", "checklist", or "project_zip".
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid part %q: %s", e.Part, e.Reason)
}

// PathTraversalError reports an archive entry whose normalized path escapes
// the staging root.
type PathTraversalError struct {
	Entry string
}

func (e *PathTraversalError) Error() string {
	return fmt.Sprintf("archive entry %q escapes the staging root", e.Entry)
}

// ArchiveTooLargeError reports an archive exceeding the configured entry
// count or total extracted size limits.
type ArchiveTooLargeError struct {
	Kind  string // "entries" or "bytes".
	Limit int64
}

func (e *ArchiveTooLargeError) Error() string {
	return fmt.Sprintf("archive exceeds %s limit of %d", e.Kind, e.Limit)
}

// RepoFetchError reports a failed repository archive download for the
// review-from-repository endpoint. Surfaced to the caller as an upstream
// failure.
type RepoFetchError struct {
	Repo string
	Err  error
}

func (e *RepoFetchError) Error() string {
	return fmt.Sprintf("fetching repository %q: %v", e.Repo, e.Err)
}

func (e *RepoFetchError) Unwrap() error { return e.Err }

// ProviderError reports a failed, timed-out, or malformed online generation
// call. It is absorbed by the orchestrator via offline fallback and never
// surfaces to the caller as a request failure.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("provider %s failed", e.Op)
	}
	return fmt.Sprintf("provider %s failed: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
