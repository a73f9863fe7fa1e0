// Copyright 2025 Trustline Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package api serves the escrow REST interface. Identity arrives from a
// trusted upstream gateway via headers; the API performs no
// authentication of its own.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/trustline-labs/trustline/escrow"
	"github.com/trustline-labs/trustline/event"
)

// Config holds API server configuration
type Config struct {
	Logger        *slog.Logger
	ListenAddress string
	Ledger        *escrow.Ledger
	EventBus      *event.EventBus
}

// Api is the escrow REST API server
type Api struct {
	config     Config
	logger     *slog.Logger
	ledger     *escrow.Ledger
	eventBus   *event.EventBus
	httpServer *http.Server
	mu         sync.Mutex
}

// New creates a new API server instance
func New(cfg Config) *Api {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = ":8080"
	}
	return &Api{
		config:   cfg,
		logger:   cfg.Logger.With("component", "api"),
		ledger:   cfg.Ledger,
		eventBus: cfg.EventBus,
	}
}

// Start starts the HTTP server in a background goroutine
func (a *Api) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.httpServer != nil {
		a.mu.Unlock()
		return errors.New("server already started")
	}

	server := &http.Server{
		Addr:              a.config.ListenAddress,
		Handler:           a.router(),
		ReadHeaderTimeout: 60 * time.Second,
	}
	a.httpServer = server
	a.mu.Unlock()

	// Bind the listening socket first so port conflicts are detected
	// immediately, then serve in a background goroutine
	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		a.mu.Lock()
		a.httpServer = nil
		a.mu.Unlock()
		return fmt.Errorf("failed to listen for API server: %w", err)
	}
	go func() {
		if err := server.Serve(ln); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("API server error", "error", err)
		}
	}()

	a.logger.Info("API listener started on " + a.config.ListenAddress)

	// Monitor context for cancellation
	go func() {
		<-ctx.Done()
		a.mu.Lock()
		srv := a.httpServer
		a.httpServer = nil
		a.mu.Unlock()

		if srv != nil {
			a.logger.Debug("context cancelled, shutting down API server")
			//nolint:contextcheck
			shutdownCtx, cancel := context.WithTimeout(
				context.Background(),
				30*time.Second,
			)
			defer cancel()
			//nolint:contextcheck
			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.logger.Error(
					"failed to shutdown API server on context cancellation",
					"error", err,
				)
			}
		}
	}()

	return nil
}

// Stop gracefully shuts down the HTTP server
func (a *Api) Stop(ctx context.Context) error {
	a.mu.Lock()
	srv := a.httpServer
	a.httpServer = nil
	a.mu.Unlock()

	if srv != nil {
		a.logger.Debug("shutting down API server")
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown API server: %w", err)
		}
	}
	return nil
}

// router builds the gin engine with all routes registered
func (a *Api) router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(a.requestLogger(), gin.Recovery(), identityMiddleware())

	router.GET("/healthz", a.handleHealthz)

	v1 := router.Group("/api/v1")

	v1.GET("/invites/:token", a.handleResolveInvite)

	auth := v1.Group("", requireUser())
	{
		auth.POST("/transactions", a.handleCreateTransaction)
		auth.GET("/transactions", a.handleListTransactions)
		auth.GET("/transactions/:id", a.handleGetTransaction)
		auth.PATCH("/transactions/:id/amount", a.handleEditAmount)
		auth.DELETE("/transactions/:id", a.handleDeleteTransaction)

		auth.POST("/transactions/:id/pay", a.handleSubmitPayment)
		auth.POST("/transactions/:id/deliver", a.handleMarkDelivered)
		auth.POST("/transactions/:id/confirm", a.handleConfirmReceipt)
		auth.POST("/transactions/:id/release", a.handleReleaseFunds)
		auth.POST("/transactions/:id/refund-request", a.handleRequestRefund)
		auth.POST("/transactions/:id/dispute", a.handleFileDispute)
		auth.POST("/transactions/:id/proof", a.handleAttachProof)
		auth.GET("/transactions/:id/quote", a.handleQuote)
		auth.GET("/transactions/:id/history", a.handleHistory)
		auth.GET("/proofs/:id", a.handleGetProof)

		auth.POST("/transactions/:id/invite", a.handleIssueInvite)
		auth.POST("/invites/:token/redeem", a.handleRedeemInvite)

		auth.GET("/notifications", a.handleListNotifications)
		auth.POST("/notifications/:id/read", a.handleMarkNotificationRead)
		auth.POST("/notifications/read-all", a.handleMarkAllNotificationsRead)
		auth.DELETE("/notifications", a.handleClearNotifications)
		auth.GET("/notifications/stream", a.handleNotificationStream)

		auth.GET("/payout-accounts", a.handleListPayoutAccounts)
		auth.POST("/payout-accounts", a.handleCreatePayoutAccount)
		auth.POST(
			"/payout-accounts/:id/default",
			a.handleSetDefaultPayoutAccount,
		)
		auth.DELETE("/payout-accounts/:id", a.handleDeletePayoutAccount)
	}

	admin := v1.Group("", requireUser())
	{
		admin.GET("/admin/transactions", a.handleAdminListTransactions)
		admin.POST(
			"/transactions/:id/refund-approve",
			a.handleApproveRefund,
		)
		admin.POST("/transactions/:id/refund-deny", a.handleDenyRefund)
		admin.POST(
			"/transactions/:id/mark-disputed",
			a.handleAdminMarkDisputed,
		)
		admin.POST(
			"/transactions/:id/move-to-delivery",
			a.handleMoveToDelivery,
		)
		admin.POST("/transactions/:id/override", a.handleOverride)
		admin.POST("/transactions/:id/mute", a.handleMuteUser)
		admin.POST("/transactions/:id/unmute", a.handleUnmuteUser)

		admin.GET("/complaints", a.handleListComplaints)
		admin.POST("/complaints/:id/resolve", a.handleResolveComplaint)

		admin.GET("/admin/settings", a.handleGetSettings)
		admin.PUT("/admin/settings", a.handleUpdateSettings)
	}

	return router
}

// requestLogger logs each request through the structured logger
func (a *Api) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		a.logger.Debug(
			"request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
		)
	}
}

func (a *Api) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
