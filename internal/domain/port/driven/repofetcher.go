package driven

import "context"

// RepoFetcher defines the driven port for downloading a repository snapshot
// as a ZIP archive, used by the review-from-repository endpoint.
type RepoFetcher interface {
	// FetchArchive downloads the zipball of repoFullName ("owner/name") at
	// ref (branch, tag, or SHA; empty means the default branch) and returns
	// the archive bytes.
	FetchArchive(ctx context.Context, repoFullName, ref string) ([]byte, error)
}
