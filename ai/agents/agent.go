// Package agents implements the specialized assistant agents behind one
// uniform process contract. Each agent drives the LLM in a bounded tool
// loop until a typed JSON output is produced, then post-processes it
// against the catalog.
package agents

import (
	"context"
	"fmt"

	"github.com/dharmendra-verma/smartshop-ai-sub000/ai/metrics"
	"github.com/dharmendra-verma/smartshop-ai-sub000/internal/profile"
	"github.com/dharmendra-verma/smartshop-ai-sub000/store"
)

// Agent is the uniform contract the orchestrator dispatches on.
type Agent interface {
	Name() string
	Process(ctx context.Context, query string, actx *Context) Response
}

// Response is the result of one agent invocation. A failed response carries
// a non-empty Error and an empty Data map.
type Response struct {
	Success  bool           `json:"success"`
	Data     map[string]any `json:"data"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Succeed builds a successful response.
func Succeed(data map[string]any) Response {
	if data == nil {
		data = map[string]any{}
	}
	return Response{Success: true, Data: data, Metadata: map[string]any{}}
}

// Fail builds a failure response attributed to an agent.
func Fail(agentName string, err error) Response {
	return Response{
		Success:  false,
		Data:     map[string]any{},
		Error:    fmt.Sprintf("%s error: %v", agentName, err),
		Metadata: map[string]any{},
	}
}

// SetMeta adds a metadata entry, allocating the map when needed.
func (r *Response) SetMeta(key string, value any) {
	if r.Metadata == nil {
		r.Metadata = map[string]any{}
	}
	r.Metadata[key] = value
}

// Dependencies is the shared bag every agent needs: the catalog and process
// settings. Metrics is optional.
type Dependencies struct {
	Store   *store.Store
	Profile *profile.Profile
	Metrics *metrics.Exporter
}

// Context carries per-turn request state into an agent.
type Context struct {
	Deps            *Dependencies
	SessionID       string
	ProductID       string
	MaxResults      int
	CompareMode     bool
	StructuredHints map[string]any
}

// Validate checks the precondition every agent shares.
func (c *Context) Validate() error {
	if c == nil || c.Deps == nil {
		return errMissingDeps
	}
	return nil
}

// Hint returns a structured hint by key, or nil.
func (c *Context) Hint(key string) any {
	if c == nil || c.StructuredHints == nil {
		return nil
	}
	return c.StructuredHints[key]
}

var errMissingDeps = fmt.Errorf("dependencies not provided")

// missingDepsResponse is returned verbatim for the precondition violation.
func missingDepsResponse() Response {
	return Response{
		Success:  false,
		Data:     map[string]any{},
		Error:    errMissingDeps.Error(),
		Metadata: map[string]any{},
	}
}
