package driven

import (
	"context"

	"github.com/ericfisherdev/autoreview/internal/domain/model"
)

// GeneratorInput carries everything a review generator needs: the parsed
// project documents and the bounded scan of the staged tree.
type GeneratorInput struct {
	Doc       model.ProjectDoc
	Checklist model.Checklist
	Scan      *model.ProjectScan
}

// Generator defines the driven port for producing a review from a staged
// project. The online implementation may fail with *model.ProviderError;
// the offline implementation is deterministic and never fails.
type Generator interface {
	Mode() model.ReviewMode
	Generate(ctx context.Context, in GeneratorInput) (*model.ReviewResult, error)
}
