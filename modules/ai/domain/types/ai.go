package types

import "encoding/json"

// Task is what the AI engine is asked to do. Context carries the caller's
// scoped parameters so the engine only reasons over data the caller may see.
type Task struct {
	TenantID string          `json:"tenant_id"`
	Role     string          `json:"role"`
	ActorID  string          `json:"actor_id,omitempty"`
	Context  map[string]any  `json:"context"`
	Input    json.RawMessage `json:"input,omitempty"`
}
