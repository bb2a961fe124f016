// Package llmtest provides a scripted llm.Service double for tests. Each
// call pops the next scripted step, so a test spells out the whole model
// conversation up front.
package llmtest

import (
	"context"
	"errors"
	"sync"

	"github.com/dharmendra-verma/smartshop-ai-sub000/ai/core/llm"
)

// Step is one scripted model response. Exactly one of Content, ToolCalls,
// or Err is meaningful per step; Err wins when set.
type Step struct {
	Content   string
	ToolCalls []llm.ToolCall
	Err       error
}

// ToolCallStep builds a step that requests a single tool invocation.
func ToolCallStep(name, arguments string) Step {
	return Step{
		ToolCalls: []llm.ToolCall{{
			ID:   "call_" + name,
			Type: "function",
			Function: llm.FunctionCall{
				Name:      name,
				Arguments: arguments,
			},
		}},
	}
}

// Script implements llm.Service by replaying steps in order. Calls past the
// end of the script return an error, which surfaces scripting mistakes as
// test failures instead of hangs.
type Script struct {
	mu    sync.Mutex
	steps []Step

	// Requests records every message list the double received, in call
	// order, for assertions on prompt content.
	Requests [][]llm.Message
}

var _ llm.Service = (*Script)(nil)

// NewScript creates a scripted service.
func NewScript(steps ...Step) *Script {
	return &Script{steps: steps}
}

// Calls reports how many completions have been consumed.
func (s *Script) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Requests)
}

func (s *Script) next(messages []llm.Message) (Step, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Requests = append(s.Requests, messages)
	if len(s.steps) == 0 {
		return Step{}, errors.New("llmtest: script exhausted")
	}
	step := s.steps[0]
	s.steps = s.steps[1:]
	if step.Err != nil {
		return Step{}, step.Err
	}
	return step, nil
}

func (s *Script) Chat(_ context.Context, messages []llm.Message) (string, *llm.CallStats, error) {
	step, err := s.next(messages)
	if err != nil {
		return "", nil, err
	}
	return step.Content, &llm.CallStats{}, nil
}

func (s *Script) ChatJSON(ctx context.Context, messages []llm.Message) (string, *llm.CallStats, error) {
	return s.Chat(ctx, messages)
}

func (s *Script) ChatWithTools(_ context.Context, messages []llm.Message, _ []llm.ToolDescriptor) (*llm.ChatResponse, *llm.CallStats, error) {
	step, err := s.next(messages)
	if err != nil {
		return nil, nil, err
	}
	return &llm.ChatResponse{Content: step.Content, ToolCalls: step.ToolCalls}, &llm.CallStats{}, nil
}

func (s *Script) Warmup(context.Context) {}
