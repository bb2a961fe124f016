package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharmendra-verma/smartshop-ai-sub000/ai/agents"
	"github.com/dharmendra-verma/smartshop-ai-sub000/ai/core/llm/llmtest"
	"github.com/dharmendra-verma/smartshop-ai-sub000/ai/metrics"
	"github.com/dharmendra-verma/smartshop-ai-sub000/ai/routing"
)

// stubAgent is a programmable agents.Agent for routing tests.
type stubAgent struct {
	name      string
	fail      bool
	panicMsg  string
	onProcess func()

	calls   int
	lastCtx *agents.Context
}

func (a *stubAgent) Name() string { return a.name }

func (a *stubAgent) Process(_ context.Context, _ string, actx *agents.Context) agents.Response {
	a.calls++
	a.lastCtx = actx
	if a.onProcess != nil {
		a.onProcess()
	}
	if a.panicMsg != "" {
		panic(a.panicMsg)
	}
	if a.fail {
		return agents.Fail(a.name, errors.New("simulated failure"))
	}
	return agents.Succeed(map[string]any{"answer": "from " + a.name})
}

// classifiedAs scripts one classifier call returning the given result.
func classifiedAs(result routing.Result) llmtest.Step {
	step := fmt.Sprintf(`{"intent": %q, "confidence": %v, "reasoning": "scripted"`, result.Intent, result.Confidence)
	if result.ProductName != "" {
		step += fmt.Sprintf(`, "product_name": %q`, result.ProductName)
	}
	if result.Category != "" {
		step += fmt.Sprintf(`, "category": %q`, result.Category)
	}
	if result.MaxPrice != nil {
		step += fmt.Sprintf(`, "max_price": %v`, *result.MaxPrice)
	}
	step += "}"
	return llmtest.Step{Content: step}
}

func newTestOrchestrator(steps []llmtest.Step, opts ...Option) (*Orchestrator, *stubAgent, *stubAgent) {
	classifier := routing.NewClassifier(llmtest.NewScript(steps...))
	o := New(classifier, nil, opts...)

	recommendation := &stubAgent{name: "recommendation"}
	general := &stubAgent{name: "general"}
	o.Register(routing.IntentRecommendation, recommendation)
	o.Register(routing.IntentGeneral, general)
	return o, recommendation, general
}

func TestOrchestrator_RoutesClassifiedIntent(t *testing.T) {
	o, recommendation, general := newTestOrchestrator([]llmtest.Step{
		classifiedAs(routing.Result{Intent: routing.IntentRecommendation, Confidence: 0.93}),
	})

	response, result := o.Handle(context.Background(), "suggest a phone", &agents.Context{})
	require.True(t, response.Success, response.Error)
	assert.Equal(t, routing.IntentRecommendation, result.Intent)
	assert.Equal(t, 1, recommendation.calls)
	assert.Equal(t, 0, general.calls)
	assert.Equal(t, "recommendation", response.Metadata["agent_used"])
	assert.NotEmpty(t, response.Metadata["trace_id"])
}

func TestOrchestrator_ComparisonRewrite(t *testing.T) {
	o, recommendation, _ := newTestOrchestrator([]llmtest.Step{
		classifiedAs(routing.Result{Intent: routing.IntentComparison, Confidence: 0.9}),
	})

	actx := &agents.Context{}
	response, result := o.Handle(context.Background(), "compare phone A and phone B", actx)
	require.True(t, response.Success, response.Error)

	// The classifier result keeps the original intent; routing and the
	// agent context carry the rewrite.
	assert.Equal(t, routing.IntentComparison, result.Intent)
	assert.Equal(t, 1, recommendation.calls)
	assert.True(t, actx.CompareMode)
}

func TestOrchestrator_EntitiesBecomeStructuredHints(t *testing.T) {
	maxPrice := 500.0
	o, recommendation, _ := newTestOrchestrator([]llmtest.Step{
		classifiedAs(routing.Result{
			Intent:      routing.IntentRecommendation,
			Confidence:  0.9,
			ProductName: "Nova X5",
			Category:    "Electronics",
			MaxPrice:    &maxPrice,
		}),
	})

	o.Handle(context.Background(), "Nova X5 under 500", &agents.Context{})
	require.NotNil(t, recommendation.lastCtx)
	assert.Equal(t, "Nova X5", recommendation.lastCtx.StructuredHints["product_name"])
	assert.Equal(t, "Electronics", recommendation.lastCtx.StructuredHints["category"])
	assert.Equal(t, 500.0, recommendation.lastCtx.StructuredHints["max_price"])
}

func TestOrchestrator_UnregisteredIntentDemotesToGeneral(t *testing.T) {
	o, _, general := newTestOrchestrator([]llmtest.Step{
		classifiedAs(routing.Result{Intent: routing.IntentPolicy, Confidence: 0.8}),
	})

	response, result := o.Handle(context.Background(), "return policy?", &agents.Context{})
	require.True(t, response.Success, response.Error)
	assert.Equal(t, routing.IntentPolicy, result.Intent)
	assert.Equal(t, 1, general.calls)
	assert.Equal(t, "general", response.Metadata["agent_used"])
}

func TestOrchestrator_ClassifierFailureDegradesToGeneral(t *testing.T) {
	classifier := routing.NewClassifier(llmtest.NewScript(llmtest.Step{Err: errors.New("model down")}))
	o := New(classifier, nil)
	general := &stubAgent{name: "general"}
	o.Register(routing.IntentGeneral, general)

	response, result := o.Handle(context.Background(), "hello", &agents.Context{})
	require.True(t, response.Success, response.Error)
	assert.Equal(t, routing.IntentGeneral, result.Intent)
	assert.Equal(t, 0.0, result.Confidence)
	assert.Equal(t, 1, general.calls)
}

func TestOrchestrator_BreakerOpensAndDemotes(t *testing.T) {
	steps := make([]llmtest.Step, 0, 5)
	for i := 0; i < 5; i++ {
		steps = append(steps, classifiedAs(routing.Result{Intent: routing.IntentRecommendation, Confidence: 0.9}))
	}
	o, recommendation, general := newTestOrchestrator(steps,
		WithBreakerOptions(WithRecoveryTimeout(25*time.Millisecond)),
	)
	recommendation.fail = true

	for i := 0; i < 3; i++ {
		response, _ := o.Handle(context.Background(), "suggest a phone", &agents.Context{})
		assert.False(t, response.Success)
	}
	require.Equal(t, StateOpen, o.BreakerState("recommendation"))

	// Open breaker: the turn is served by general without touching the
	// failing agent.
	response, _ := o.Handle(context.Background(), "suggest a phone", &agents.Context{})
	require.True(t, response.Success, response.Error)
	assert.Equal(t, 3, recommendation.calls)
	assert.Equal(t, 1, general.calls)
	assert.Equal(t, "general", response.Metadata["agent_used"])

	// After the recovery window a probe reaches the agent again.
	time.Sleep(30 * time.Millisecond)
	recommendation.fail = false
	response, _ = o.Handle(context.Background(), "suggest a phone", &agents.Context{})
	require.True(t, response.Success, response.Error)
	assert.Equal(t, "recommendation", response.Metadata["agent_used"])
	assert.Equal(t, StateClosed, o.BreakerState("recommendation"))
}

func TestOrchestrator_PanicFallsBackToGeneralOnce(t *testing.T) {
	o, recommendation, general := newTestOrchestrator([]llmtest.Step{
		classifiedAs(routing.Result{Intent: routing.IntentRecommendation, Confidence: 0.9}),
	})
	recommendation.panicMsg = "index out of range"

	response, _ := o.Handle(context.Background(), "suggest a phone", &agents.Context{})
	require.True(t, response.Success, response.Error)
	assert.Equal(t, 1, recommendation.calls)
	assert.Equal(t, 1, general.calls)
	assert.Equal(t, "general", response.Metadata["agent_used"])
}

func TestOrchestrator_DoublePanicIsFailureNotCrash(t *testing.T) {
	o, recommendation, general := newTestOrchestrator([]llmtest.Step{
		classifiedAs(routing.Result{Intent: routing.IntentRecommendation, Confidence: 0.9}),
	})
	recommendation.panicMsg = "boom"
	general.panicMsg = "boom again"

	response, result := o.Handle(context.Background(), "suggest a phone", &agents.Context{})
	require.NotNil(t, result)
	assert.False(t, response.Success)
	assert.Contains(t, response.Error, "agent panicked")
	assert.Equal(t, 1, recommendation.calls)
	assert.Equal(t, 1, general.calls)
}

func scrapeMetrics(t *testing.T, exporter *metrics.Exporter) string {
	t.Helper()
	rec := httptest.NewRecorder()
	exporter.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return rec.Body.String()
}

func TestOrchestrator_TracksActiveTurns(t *testing.T) {
	exporter := metrics.NewExporter(metrics.DefaultConfig())
	classifier := routing.NewClassifier(llmtest.NewScript(
		classifiedAs(routing.Result{Intent: routing.IntentGeneral, Confidence: 0.9}),
	))
	o := New(classifier, exporter)

	var during string
	general := &stubAgent{name: "general", onProcess: func() {
		during = scrapeMetrics(t, exporter)
	}}
	o.Register(routing.IntentGeneral, general)

	response, _ := o.Handle(context.Background(), "hello", &agents.Context{})
	require.True(t, response.Success, response.Error)

	assert.Contains(t, during, "smartshop_assistant_turns_active 1")
	assert.Contains(t, scrapeMetrics(t, exporter), "smartshop_assistant_turns_active 0")
}

func TestOrchestrator_SharedAgentSharesBreaker(t *testing.T) {
	classifier := routing.NewClassifier(llmtest.NewScript())
	o := New(classifier, nil)
	agent := &stubAgent{name: "recommendation"}
	o.Register(routing.IntentRecommendation, agent)
	o.Register(routing.IntentComparison, agent)

	assert.Len(t, o.breakers, 1)
}
