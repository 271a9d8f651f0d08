package providers

import (
	"context"

	"github.com/zatekoja/Providerdiscoveryengine/internal/domain/entities"
)

// SignalExtractor turns a raw utterance into structured filter signals. It is
// a pluggable upstream collaborator; the engine only owns the merge policy
// applied to its output.
type SignalExtractor interface {
	Extract(ctx context.Context, utterance string) (*entities.ExtractedSignals, error)
}
