package ports

import (
	"context"
	"encoding/json"

	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/modules/ai/domain/types"
)

// Results are returned verbatim to the caller.
type Recommender interface {
	Recommend(ctx context.Context, task types.Task) (json.RawMessage, error)
}

type Automator interface {
	Automate(ctx context.Context, task types.Task) (json.RawMessage, error)
}
