package v1

import (
	"net/http"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/dharmendra-verma/smartshop-ai-sub000/internal/version"
)

const (
	minMessageRunes = 3
	maxMessageRunes = 1000

	minResults     = 1
	maxResults     = 20
	defaultResults = 5
)

// ChatRequest is the POST /chat payload. MaxResults is a pointer so an
// absent field defaults while an explicit 0 is rejected.
type ChatRequest struct {
	Message    string `json:"message"`
	SessionID  string `json:"session_id"`
	MaxResults *int   `json:"max_results"`
}

// ChatResponse is the POST /chat response body.
type ChatResponse struct {
	Message    string         `json:"message"`
	Intent     string         `json:"intent"`
	Confidence float64        `json:"confidence"`
	Entities   map[string]any `json:"entities"`
	AgentUsed  string         `json:"agent_used"`
	Response   map[string]any `json:"response"`
	Success    bool           `json:"success"`
	Error      string         `json:"error,omitempty"`
	SessionID  string         `json:"session_id"`
}

type errorDetail struct {
	Detail string `json:"detail"`
}

func (s *APIV1Service) handleChat(c echo.Context) error {
	var request ChatRequest
	if err := c.Bind(&request); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, errorDetail{Detail: "invalid request body"})
	}
	if detail := validateChatRequest(&request); detail != "" {
		return c.JSON(http.StatusUnprocessableEntity, errorDetail{Detail: detail})
	}

	result := s.ChatService.RunTurn(c.Request().Context(), request.SessionID, request.Message, *request.MaxResults)
	if !result.Success {
		return c.JSON(http.StatusInternalServerError, errorDetail{Detail: result.Error})
	}

	return c.JSON(http.StatusOK, ChatResponse{
		Message:    result.Message,
		Intent:     result.Intent.String(),
		Confidence: result.Confidence,
		Entities:   result.Entities,
		AgentUsed:  result.AgentUsed,
		Response:   result.Response,
		Success:    true,
		SessionID:  result.SessionID,
	})
}

// validateChatRequest normalizes defaults and returns a problem description,
// or empty when the request is acceptable.
func validateChatRequest(request *ChatRequest) string {
	length := utf8.RuneCountInString(request.Message)
	if length < minMessageRunes || length > maxMessageRunes {
		return "message must be between 3 and 1000 characters"
	}
	if request.MaxResults == nil {
		n := defaultResults
		request.MaxResults = &n
	}
	if *request.MaxResults < minResults || *request.MaxResults > maxResults {
		return "max_results must be between 1 and 20"
	}
	return ""
}

func (s *APIV1Service) handleClearSession(c echo.Context) error {
	s.ChatService.ClearSession(c.Request().Context(), c.Param("session_id"))
	return c.NoContent(http.StatusNoContent)
}

func (s *APIV1Service) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":    "healthy",
		"service":   "smartshop-assistant",
		"version":   version.GetCurrentVersion(s.Profile.Mode),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// clientLimiter keeps one token bucket per client IP.
type clientLimiter struct {
	mu      sync.Mutex
	clients map[string]*rate.Limiter

	limit rate.Limit
	burst int
}

func newClientLimiter() *clientLimiter {
	return &clientLimiter{
		clients: map[string]*rate.Limiter{},
		// One turn per second sustained, short bursts allowed.
		limit: rate.Limit(1),
		burst: 10,
	}
}

func (l *clientLimiter) allow(clientIP string) bool {
	l.mu.Lock()
	limiter, ok := l.clients[clientIP]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.clients[clientIP] = limiter
	}
	l.mu.Unlock()
	return limiter.Allow()
}

// rateLimit guards the chat endpoint; the cheap read endpoints stay open.
func (s *APIV1Service) rateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !s.limiter.allow(c.RealIP()) {
			return c.JSON(http.StatusTooManyRequests, errorDetail{Detail: "rate limit exceeded, slow down"})
		}
		return next(c)
	}
}
