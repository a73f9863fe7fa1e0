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

// Package mailer sends transactional email through an HTTP relay.
// Delivery is fire-and-forget: failures are logged and never surfaced to
// the caller.
package mailer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const defaultTimeout = 10 * time.Second

// Config holds mailer configuration
type Config struct {
	Logger      *slog.Logger
	Endpoint    string
	APIKey      string
	FromName    string
	FromAddress string
	Timeout     time.Duration
}

// Mailer posts messages to an HTTP email relay in the background
type Mailer struct {
	config Config
	logger *slog.Logger
	client *http.Client
}

// New creates a mailer from the provided config
func New(cfg Config) *Mailer {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Mailer{
		config: cfg,
		logger: cfg.Logger.With("component", "mailer"),
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type message struct {
	FromName    string `json:"from_name"`
	FromAddress string `json:"from_address"`
	To          string `json:"to"`
	Subject     string `json:"subject"`
	Body        string `json:"body"`
}

// Send queues one message for delivery and returns immediately
func (m *Mailer) Send(to, subject, body string) {
	go m.send(message{
		FromName:    m.config.FromName,
		FromAddress: m.config.FromAddress,
		To:          to,
		Subject:     subject,
		Body:        body,
	})
}

func (m *Mailer) send(msg message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		m.logger.Error("failed to encode email", "error", err)
		return
	}
	req, err := http.NewRequest(
		http.MethodPost,
		m.config.Endpoint,
		bytes.NewReader(payload),
	)
	if err != nil {
		m.logger.Error("failed to build email request", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if m.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+m.config.APIKey)
	}
	resp, err := m.client.Do(req)
	if err != nil {
		m.logger.Warn(
			"failed to send email",
			"to", msg.To,
			"error", err,
		)
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 300 {
		m.logger.Warn(
			"email relay rejected message",
			"to", msg.To,
			"error", fmt.Sprintf("unexpected status %d", resp.StatusCode),
		)
		return
	}
	m.logger.Debug("email sent", "to", msg.To, "subject", msg.Subject)
}

// Nop is a mailer that drops every message. Used when no relay endpoint
// is configured.
type Nop struct{}

// Send discards the message
func (Nop) Send(to, subject, body string) {}
