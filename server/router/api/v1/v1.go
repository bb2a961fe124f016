// Package v1 exposes the assistant over REST: the chat turn endpoint,
// session management, health, and metrics.
package v1

import (
	"context"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dharmendra-verma/smartshop-ai-sub000/ai"
	"github.com/dharmendra-verma/smartshop-ai-sub000/ai/agents"
	"github.com/dharmendra-verma/smartshop-ai-sub000/ai/cache"
	"github.com/dharmendra-verma/smartshop-ai-sub000/ai/core/embedding"
	"github.com/dharmendra-verma/smartshop-ai-sub000/ai/core/llm"
	"github.com/dharmendra-verma/smartshop-ai-sub000/ai/metrics"
	"github.com/dharmendra-verma/smartshop-ai-sub000/ai/orchestrator"
	"github.com/dharmendra-verma/smartshop-ai-sub000/ai/routing"
	"github.com/dharmendra-verma/smartshop-ai-sub000/ai/session"
	"github.com/dharmendra-verma/smartshop-ai-sub000/ai/vector"
	"github.com/dharmendra-verma/smartshop-ai-sub000/internal/profile"
	"github.com/dharmendra-verma/smartshop-ai-sub000/store"
)

type APIV1Service struct {
	Profile *profile.Profile
	Store   *store.Store

	ChatService *ChatService
	Metrics     *metrics.Exporter

	limiter *clientLimiter
}

// NewAPIV1Service builds the full assistant pipeline from the profile: model
// services, caches, session memory, the policy retriever, the five agents,
// and the orchestrator in front of them.
func NewAPIV1Service(ctx context.Context, instanceProfile *profile.Profile, storeInstance *store.Store) *APIV1Service {
	exporter := metrics.NewExporter(metrics.DefaultConfig())

	cache.Configure(cache.Options{
		RedisURL:   instanceProfile.RedisURL,
		DefaultTTL: instanceProfile.CacheTTL(),
	})
	sessions := session.NewMemory(
		cache.ForWithTTL(cache.NamespaceSession, instanceProfile.SessionTTL()),
		instanceProfile.SessionTTL(),
		session.DefaultMaxPairs,
	)

	var llmService llm.Service
	var embeddingService embedding.Service
	aiConfig := ai.NewConfigFromProfile(instanceProfile)
	if err := aiConfig.Validate(); err != nil {
		slog.Warn("AI config validation failed, agents will report failure", "error", err)
	} else if aiConfig.Enabled {
		var err error
		llmService, err = llm.NewService(&aiConfig.LLM)
		if err != nil {
			slog.Warn("failed to initialize LLM service", "error", err)
		} else {
			slog.Info("LLM service initialized", "model", aiConfig.LLM.Model)
			// Best-effort connection warmup to cut first-turn latency.
			go func() {
				warmupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				llmService.Warmup(warmupCtx)
			}()
		}

		embeddingService, err = embedding.NewService(&aiConfig.Embedding)
		if err != nil {
			slog.Warn("failed to initialize embedding service", "error", err)
		}
	} else {
		slog.Info("LLM features disabled: no API key configured")
	}

	retriever := newPolicyRetriever(instanceProfile, storeInstance, embeddingService)
	if retriever != nil {
		// Index build may embed the whole policy catalog; keep it off the
		// first request's critical path.
		go func() {
			readyCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
			defer cancel()
			if err := retriever.EnsureReady(readyCtx); err != nil {
				slog.Warn("policy index warmup failed", "error", err)
			}
		}()
	}

	deps := &agents.Dependencies{
		Store:   storeInstance,
		Profile: instanceProfile,
		Metrics: exporter,
	}

	router := orchestrator.New(routing.NewClassifier(llmService), exporter)
	recommendationAgent := agents.NewRecommendationAgent(llmService)
	router.Register(routing.IntentRecommendation, recommendationAgent)
	router.Register(routing.IntentComparison, recommendationAgent)
	router.Register(routing.IntentReview, agents.NewReviewAgent(llmService))
	router.Register(routing.IntentPolicy, agents.NewPolicyAgent(llmService, retriever))
	router.Register(routing.IntentPrice, agents.NewPriceAgent(llmService))
	router.Register(routing.IntentGeneral, agents.NewGeneralAgent(llmService))

	return &APIV1Service{
		Profile: instanceProfile,
		Store:   storeInstance,
		Metrics: exporter,
		limiter: newClientLimiter(),
		ChatService: &ChatService{
			Orchestrator: router,
			Sessions:     sessions,
			Deps:         deps,
			Timeout:      instanceProfile.AgentTimeout(),
		},
	}
}

// newPolicyRetriever picks the retrieval backend. The file backend keeps a
// flat index snapshot under VectorStorePath; the postgres backend stores
// embeddings next to the policies.
func newPolicyRetriever(instanceProfile *profile.Profile, storeInstance *store.Store, embedder embedding.Service) vector.Retriever {
	if embedder == nil {
		return nil
	}
	if instanceProfile.VectorBackend == "postgres" {
		pvs, ok := storeInstance.PolicyVectorStore()
		if !ok {
			slog.Warn("postgres vector backend requested but driver has no vector support, using file backend")
			return vector.NewFileRetriever(embedder, storeInstance, instanceProfile.VectorStorePath)
		}
		return vector.NewPostgresRetriever(pvs, embedder, storeInstance)
	}
	return vector.NewFileRetriever(embedder, storeInstance, instanceProfile.VectorStorePath)
}

// Register installs the REST routes.
func (s *APIV1Service) Register(echoServer *echo.Echo) {
	echoServer.POST("/chat", s.handleChat, s.rateLimit)
	echoServer.DELETE("/chat/session/:session_id", s.handleClearSession)
	echoServer.GET("/health", s.handleHealth)
	echoServer.GET("/metrics", echo.WrapHandler(s.Metrics.Handler()))
}
