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

package trustline

import (
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/trustline-labs/trustline/escrow"
)

type Config struct {
	logger          *slog.Logger
	promRegistry    prometheus.Registerer
	dataDir         string
	listenAddress   string
	adminIds        []string
	inviteTTL       time.Duration
	maxProofBytes   int64
	defaultFees     escrow.FeeConfig
	mailer          MailerConfig
	tracing         bool
	tracingStdout   bool
	shutdownTimeout time.Duration
}

// MailerConfig holds the transactional email relay settings. An empty
// Endpoint disables email entirely.
type MailerConfig struct {
	Endpoint    string
	APIKey      string
	FromName    string
	FromAddress string
}

// ConfigOptionFunc is a type that represents functions that modify the service config
type ConfigOptionFunc func(*Config)

// NewConfig creates a new trustline config with the specified options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		// Default logger will throw away logs
		// We do this so we don't have to add guards around every log operation
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	// Apply options
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithLogger specifies the logger to use. The default is to discard log output
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithDataDir specifies the persistent data directory to use. The default is to store everything in memory
func WithDataDir(dataDir string) ConfigOptionFunc {
	return func(c *Config) {
		c.dataDir = dataDir
	}
}

// WithListenAddress specifies the API listen address
func WithListenAddress(addr string) ConfigOptionFunc {
	return func(c *Config) {
		c.listenAddress = addr
	}
}

// WithAdminIds specifies the user ids granted the admin role for
// notification fan-out
func WithAdminIds(ids []string) ConfigOptionFunc {
	return func(c *Config) {
		c.adminIds = ids
	}
}

// WithInviteTTL specifies the lifetime of seller invite links
func WithInviteTTL(ttl time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.inviteTTL = ttl
	}
}

// WithMaxProofBytes specifies the maximum accepted proof upload size
func WithMaxProofBytes(max int64) ConfigOptionFunc {
	return func(c *Config) {
		c.maxProofBytes = max
	}
}

// WithDefaultFees specifies the fee policy used until overridden via the
// admin settings API
func WithDefaultFees(fees escrow.FeeConfig) ConfigOptionFunc {
	return func(c *Config) {
		c.defaultFees = fees
	}
}

// WithMailer specifies the transactional email relay settings
func WithMailer(mailerCfg MailerConfig) ConfigOptionFunc {
	return func(c *Config) {
		c.mailer = mailerCfg
	}
}

// WithPrometheusRegistry specifies a prometheus registry for metrics
func WithPrometheusRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithTracing enables OpenTelemetry tracing
func WithTracing(tracing bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracing = tracing
	}
}

// WithTracingStdout enables the stdout trace exporter for debugging
func WithTracingStdout(stdout bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracingStdout = stdout
	}
}

// WithShutdownTimeout specifies the graceful shutdown timeout
func WithShutdownTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.shutdownTimeout = timeout
	}
}
