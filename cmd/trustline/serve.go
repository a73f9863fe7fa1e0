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

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/trustline-labs/trustline"
	"github.com/trustline-labs/trustline/escrow"
	"github.com/trustline-labs/trustline/internal/config"
)

func serveRun(_ *cobra.Command, _ []string, cfg *config.Config) {
	logger := commonRun()

	if err := serve(cfg, logger); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func serve(cfg *config.Config, logger *slog.Logger) error {
	// Parse durations and fee policy from config strings
	shutdownTimeout := 30 * time.Second
	if cfg.ShutdownTimeout != "" {
		var err error
		shutdownTimeout, err = time.ParseDuration(cfg.ShutdownTimeout)
		if err != nil {
			return fmt.Errorf("invalid shutdown timeout: %w", err)
		}
	}
	inviteTTL := escrow.DefaultInviteTTL
	if cfg.InviteTtl != "" {
		var err error
		inviteTTL, err = time.ParseDuration(cfg.InviteTtl)
		if err != nil {
			return fmt.Errorf("invalid invite TTL: %w", err)
		}
	}
	feeThreshold, err := decimal.NewFromString(cfg.FeeThreshold)
	if err != nil {
		return fmt.Errorf("invalid fee threshold: %w", err)
	}

	svc, err := trustline.New(
		trustline.NewConfig(
			trustline.WithLogger(logger),
			trustline.WithDataDir(cfg.DataDir),
			trustline.WithListenAddress(
				fmt.Sprintf("%s:%d", cfg.BindAddr, cfg.ApiPort),
			),
			trustline.WithAdminIds(cfg.AdminIds),
			trustline.WithInviteTTL(inviteTTL),
			trustline.WithMaxProofBytes(cfg.MaxProofBytes),
			trustline.WithDefaultFees(escrow.FeeConfig{
				Threshold:     feeThreshold,
				BelowRate:     cfg.FeeRateBelow,
				AtOrAboveRate: cfg.FeeRateAtOrAbove,
			}),
			trustline.WithMailer(trustline.MailerConfig{
				Endpoint:    cfg.MailerEndpoint,
				APIKey:      cfg.MailerApiKey,
				FromName:    cfg.MailerFromName,
				FromAddress: cfg.MailerFromAddress,
			}),
			trustline.WithTracing(cfg.Tracing),
			trustline.WithTracingStdout(cfg.TracingStdout),
			trustline.WithShutdownTimeout(shutdownTimeout),
			// Enable metrics with default prometheus registry
			trustline.WithPrometheusRegistry(prometheus.DefaultRegisterer),
		),
	)
	if err != nil {
		return err
	}

	// Metrics and debug listener
	http.Handle("/metrics", promhttp.Handler())
	logger.Info(
		"serving prometheus metrics on "+fmt.Sprintf(
			"%s:%d",
			cfg.BindAddr,
			cfg.MetricsPort,
		),
		"component", "serve",
	)
	metricsServer := &http.Server{
		Addr: fmt.Sprintf(
			"%s:%d",
			cfg.BindAddr,
			cfg.MetricsPort,
		),
		ReadHeaderTimeout: 60 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil &&
			err != http.ErrServerClosed {
			logger.Error(
				fmt.Sprintf("failed to start metrics listener: %s", err),
				"component", "serve",
			)
			os.Exit(1)
		}
	}()

	// Wait for interrupt/termination signal
	signalCtx, signalCtxStop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCtxStop()

	// Run service in goroutine
	errChan := make(chan error, 1)
	go func() {
		//nolint:contextcheck
		err := svc.Run(signalCtx)
		select {
		case errChan <- err:
		case <-signalCtx.Done():
		}
	}()

	// Wait for signal or error
	select {
	case <-signalCtx.Done():
		logger.Info("signal received, initiating graceful shutdown")

		// Shutdown metrics server
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			shutdownTimeout,
		)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", "error", err)
		}

		// Shutdown service
		if err := svc.Stop(); err != nil {
			return err
		}
	case err := <-errChan:
		if err != nil {
			return err
		}
	}
	return nil
}

func serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the escrow service",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := config.FromContext(cmd.Context())
			if cfg == nil {
				slog.Error("no config found in context")
				os.Exit(1)
			}
			serveRun(cmd, args, cfg)
		},
	}
	return cmd
}
