package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, e *Exporter) string {
	t.Helper()
	rec := httptest.NewRecorder()
	e.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	return string(body)
}

func TestExporter_RecordsTurns(t *testing.T) {
	e := NewExporter(Config{})

	e.RecordTurn("recommendation", "recommendation", 120*time.Millisecond, true)
	e.RecordTurn("policy", "policy", 80*time.Millisecond, false)

	body := scrape(t, e)
	assert.Contains(t, body, `smartshop_assistant_turns_total{agent="recommendation",intent="recommendation",status="success"} 1`)
	assert.Contains(t, body, `smartshop_assistant_turns_total{agent="policy",intent="policy",status="error"} 1`)
	assert.Contains(t, body, "smartshop_assistant_turn_latency_seconds")
}

func TestExporter_RecordsToolAndCacheTraffic(t *testing.T) {
	e := NewExporter(Config{})

	e.RecordToolCall("get_competitor_prices", 5*time.Millisecond, true)
	e.RecordToolCall("get_competitor_prices", 5*time.Millisecond, false)
	e.RecordCacheHit("price:")
	e.RecordCacheMiss("price:")
	e.RecordCacheMiss("review_summary:")

	body := scrape(t, e)
	assert.Contains(t, body, `smartshop_assistant_tool_calls_total{status="success",tool="get_competitor_prices"} 1`)
	assert.Contains(t, body, `smartshop_assistant_tool_calls_total{status="error",tool="get_competitor_prices"} 1`)
	assert.Contains(t, body, `smartshop_assistant_cache_hits_total{namespace="price:"} 1`)
	assert.Contains(t, body, `smartshop_assistant_cache_misses_total{namespace="review_summary:"} 1`)
}

func TestExporter_RecordsLLMAndBreaker(t *testing.T) {
	e := NewExporter(Config{})

	e.RecordLLMCall("review", 150, 42, 800*time.Millisecond)
	e.RecordBreakerTransition("recommendation", "closed", "open")

	body := scrape(t, e)
	assert.Contains(t, body, `smartshop_assistant_llm_tokens_total{agent="review",token_type="prompt"} 150`)
	assert.Contains(t, body, `smartshop_assistant_llm_tokens_total{agent="review",token_type="completion"} 42`)
	assert.Contains(t, body, `smartshop_assistant_breaker_transitions_total{agent="recommendation",transition="closed->open"} 1`)
}

func TestExporter_ActiveTurnGauge(t *testing.T) {
	e := NewExporter(Config{})

	e.TurnStarted()
	e.TurnStarted()
	e.TurnFinished()

	body := scrape(t, e)
	require.True(t, strings.Contains(body, "smartshop_assistant_turns_active 1"))
}

func TestExporter_NilReceiverIsNoOp(t *testing.T) {
	var e *Exporter
	// None of these may panic.
	e.RecordTurn("general", "general", time.Millisecond, true)
	e.RecordToolCall("find_product", time.Millisecond, true)
	e.RecordCacheHit("session:")
	e.RecordCacheMiss("session:")
	e.RecordLLMCall("general", 1, 1, time.Millisecond)
	e.RecordBreakerTransition("general", "open", "half_open")
	e.TurnStarted()
	e.TurnFinished()
}
