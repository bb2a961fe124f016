// Package server assembles the HTTP surface: the echo instance, its
// middleware stack, and the versioned API routes.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/dharmendra-verma/smartshop-ai-sub000/internal/profile"
	"github.com/dharmendra-verma/smartshop-ai-sub000/plugin/chatbridge"
	apiv1 "github.com/dharmendra-verma/smartshop-ai-sub000/server/router/api/v1"
	"github.com/dharmendra-verma/smartshop-ai-sub000/store"
)

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	apiV1      *apiv1.APIV1Service
	bridge     *chatbridge.Bridge
}

// NewServer wires the full request path: middleware, the v1 API service, and
// the optional Telegram bridge.
func NewServer(ctx context.Context, instanceProfile *profile.Profile, storeInstance *store.Store) (*Server, error) {
	e := echo.New()
	e.Debug = instanceProfile.IsDev()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: instanceProfile.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
	}))
	e.Use(processTimeMiddleware)

	s := &Server{
		Profile:    instanceProfile,
		Store:      storeInstance,
		echoServer: e,
	}

	s.apiV1 = apiv1.NewAPIV1Service(ctx, instanceProfile, storeInstance)
	s.apiV1.Register(e)

	if instanceProfile.TelegramBotToken != "" {
		bridge, err := chatbridge.New(instanceProfile.TelegramBotToken, s.apiV1.ChatService)
		if err != nil {
			slog.Warn("telegram bridge disabled", "error", err)
		} else {
			s.bridge = bridge
		}
	}

	return s, nil
}

// Start launches the listener and the Telegram bridge. It returns
// immediately; startup failures are logged from the serving goroutine.
func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	go func() {
		if err := s.echoServer.Start(address); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start http server", "error", err)
		}
	}()

	if s.bridge != nil {
		go s.bridge.Start(ctx)
	}
	return nil
}

// Shutdown drains in-flight requests with a deadline, then closes the store.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close store", "error", err)
	}
	slog.Info("server shutdown complete")
}

// processTimeMiddleware stamps every response, errors included, with the
// handling latency. The header must be written before the body starts.
func processTimeMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		started := time.Now()
		c.Response().Before(func() {
			elapsed := time.Since(started).Milliseconds()
			c.Response().Header().Set("X-Process-Time-Ms", strconv.FormatInt(elapsed, 10))
		})
		return next(c)
	}
}
