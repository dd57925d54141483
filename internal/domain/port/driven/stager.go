package driven

import (
	"context"

	"github.com/ericfisherdev/autoreview/internal/domain/model"
)

// Stager defines the driven port for extracting an uploaded archive into an
// isolated, request-scoped working directory.
//
// The returned cleanup func removes the staging directory and is non-nil
// whenever a directory was created, including on error paths. Callers must
// defer it; calling it more than once is safe.
type Stager interface {
	Stage(ctx context.Context, archive []byte, filename string) (*model.StagedProject, func(), error)
}
