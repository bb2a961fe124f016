package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lithammer/shortuuid/v4"

	"github.com/dharmendra-verma/smartshop-ai-sub000/ai/agents"
	"github.com/dharmendra-verma/smartshop-ai-sub000/ai/metrics"
	"github.com/dharmendra-verma/smartshop-ai-sub000/ai/routing"
)

// Orchestrator classifies a turn, rewrites and routes the intent, and
// dispatches it to a registered agent behind that agent's circuit breaker.
// Handle never panics and never returns an error: every failure mode folds
// into the returned Response.
type Orchestrator struct {
	classifier *routing.Classifier
	registry   map[routing.Intent]agents.Agent
	breakers   map[string]*Breaker
	metrics    *metrics.Exporter

	breakerOpts []BreakerOption
}

// Option tweaks the orchestrator at construction.
type Option func(*Orchestrator)

// WithBreakerOptions forwards options to every breaker the orchestrator
// creates. Tests use this to shrink the recovery window.
func WithBreakerOptions(opts ...BreakerOption) Option {
	return func(o *Orchestrator) { o.breakerOpts = opts }
}

// New creates an orchestrator with an empty registry.
func New(classifier *routing.Classifier, exporter *metrics.Exporter, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		classifier: classifier,
		registry:   map[routing.Intent]agents.Agent{},
		breakers:   map[string]*Breaker{},
		metrics:    exporter,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Register binds an agent to an intent and gives the agent a breaker. Two
// intents registered to the same agent share one breaker.
func (o *Orchestrator) Register(intent routing.Intent, agent agents.Agent) {
	o.registry[intent] = agent
	if _, ok := o.breakers[agent.Name()]; ok {
		return
	}
	exporter := o.metrics
	opts := append([]BreakerOption{
		WithTransitionHook(func(name string, from, to BreakerState) {
			slog.Warn("circuit breaker transition", "agent", name, "from", from, "to", to)
			exporter.RecordBreakerTransition(name, string(from), string(to))
		}),
	}, o.breakerOpts...)
	o.breakers[agent.Name()] = NewBreaker(agent.Name(), opts...)
}

// BreakerState reports the named agent's breaker state, or closed for an
// unknown agent.
func (o *Orchestrator) BreakerState(agentName string) BreakerState {
	if b, ok := o.breakers[agentName]; ok {
		return b.State()
	}
	return StateClosed
}

// Handle runs one turn: classify, rewrite, route, dispatch. The returned
// routing result is always non-nil and the response metadata always carries
// agent_used and a trace id.
func (o *Orchestrator) Handle(ctx context.Context, query string, actx *agents.Context) (agents.Response, *routing.Result) {
	started := time.Now()
	traceID := shortuuid.New()
	o.metrics.TurnStarted()
	defer o.metrics.TurnFinished()

	result := o.classifier.Classify(ctx, query)
	intent := result.Intent

	// A comparison is a recommendation turn rendered side by side.
	if intent == routing.IntentComparison {
		intent = routing.IntentRecommendation
		actx.CompareMode = true
	}

	applyHints(actx, result)

	agent, intent := o.resolve(intent)
	if agent == nil {
		response := agents.Fail("orchestrator", fmt.Errorf("no agent registered for intent %s", intent))
		o.finish(&response, result, "none", traceID, started)
		return response, result
	}

	response := o.invoke(ctx, agent, query, actx)
	if !response.Success && agent.Name() != "general" {
		// One shielded retry through the fallback agent when the primary
		// agent panicked.
		if _, panicked := response.Metadata["panic"]; panicked {
			if fallback, ok := o.registry[routing.IntentGeneral]; ok && o.available(fallback) {
				agent = fallback
				response = o.invoke(ctx, agent, query, actx)
			}
		}
	}

	o.finish(&response, result, agent.Name(), traceID, started)
	return response, result
}

// resolve picks the serving agent, demoting to general when the intent is
// unregistered or its breaker is open.
func (o *Orchestrator) resolve(intent routing.Intent) (agents.Agent, routing.Intent) {
	agent, ok := o.registry[intent]
	if !ok || !o.available(agent) {
		if intent != routing.IntentGeneral {
			slog.Info("demoting turn to general agent", "intent", intent, "registered", ok)
			return o.resolve(routing.IntentGeneral)
		}
		if !ok {
			return nil, intent
		}
	}
	return agent, intent
}

func (o *Orchestrator) available(agent agents.Agent) bool {
	b, ok := o.breakers[agent.Name()]
	return !ok || b.IsAvailable()
}

// invoke dispatches to one agent with panic recovery and records the outcome
// on the agent's breaker. A panic is a failure with a "panic" metadata marker
// so Handle can attempt its single fallback.
func (o *Orchestrator) invoke(ctx context.Context, agent agents.Agent, query string, actx *agents.Context) (response agents.Response) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("agent panicked", "agent", agent.Name(), "panic", r)
			response = agents.Fail(agent.Name(), fmt.Errorf("agent panicked: %v", r))
			response.SetMeta("panic", true)
			o.recordOutcome(agent.Name(), false)
		}
	}()

	response = agent.Process(ctx, query, actx)
	o.recordOutcome(agent.Name(), response.Success)
	return response
}

func (o *Orchestrator) recordOutcome(agentName string, success bool) {
	b, ok := o.breakers[agentName]
	if !ok {
		return
	}
	if success {
		b.RecordSuccess()
	} else {
		b.RecordFailure()
	}
}

func (o *Orchestrator) finish(response *agents.Response, result *routing.Result, agentName, traceID string, started time.Time) {
	response.SetMeta("agent_used", agentName)
	response.SetMeta("trace_id", traceID)
	o.metrics.RecordTurn(string(result.Intent), agentName, time.Since(started), response.Success)
	slog.Info("chat turn handled",
		"trace_id", traceID,
		"intent", result.Intent,
		"agent", agentName,
		"success", response.Success,
		"duration_ms", time.Since(started).Milliseconds(),
	)
}

// applyHints copies the classifier's extracted entities into the agent
// context so tool selection can start from structure instead of prose.
func applyHints(actx *agents.Context, result *routing.Result) {
	hints := map[string]any{}
	if result.ProductName != "" {
		hints["product_name"] = result.ProductName
	}
	if result.Category != "" {
		hints["category"] = result.Category
	}
	if result.MaxPrice != nil {
		hints["max_price"] = *result.MaxPrice
	}
	if result.MinPrice != nil {
		hints["min_price"] = *result.MinPrice
	}
	if len(hints) == 0 {
		return
	}
	if actx.StructuredHints == nil {
		actx.StructuredHints = map[string]any{}
	}
	for key, value := range hints {
		actx.StructuredHints[key] = value
	}
}
