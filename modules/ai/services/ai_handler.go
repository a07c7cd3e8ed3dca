package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/internal/unifiedapi"
	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/modules/ai/domain/ports"
	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/modules/ai/domain/types"
	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/pkg/httperr"
)

// AIHandler serves /ai/recommendations and /ai/automation and passes engine
// output through unchanged.
type AIHandler struct {
	recommender ports.Recommender
	automator   ports.Automator
}

func NewAIHandler(r ports.Recommender, a ports.Automator) *AIHandler {
	return &AIHandler{recommender: r, automator: a}
}

func (h *AIHandler) Handle(ctx context.Context, call unifiedapi.Call) (unifiedapi.Response, error) {
	segs := call.Endpoint.Segments()
	if len(segs) != 1 {
		return unifiedapi.Response{}, fmt.Errorf("%w: %s", unifiedapi.ErrUnknownEndpoint, call.Endpoint.Path)
	}

	task := types.Task{
		TenantID: call.TenantID,
		Role:     string(call.Role),
		ActorID:  call.ActorID,
		Context:  map[string]any(call.Params.Clone()),
		Input:    call.Data,
	}

	var out json.RawMessage
	var err error
	switch segs[0] {
	case "recommendations":
		if call.Method != unifiedapi.MethodGet && call.Method != unifiedapi.MethodPost {
			return unifiedapi.Response{}, httperr.NewBadRequest("recommendations accept GET or POST")
		}
		out, err = h.recommender.Recommend(ctx, task)
	case "automation":
		if call.Method != unifiedapi.MethodPost {
			return unifiedapi.Response{}, httperr.NewBadRequest("automation requires POST")
		}
		out, err = h.automator.Automate(ctx, task)
	default:
		return unifiedapi.Response{}, fmt.Errorf("%w: %s", unifiedapi.ErrUnknownEndpoint, call.Endpoint.Path)
	}
	if err != nil {
		return unifiedapi.Response{}, err
	}
	return unifiedapi.OK(out, nil), nil
}
