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

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "trustline.config"

const DefaultShutdownTimeout = "30s"

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

type Config struct {
	BindAddr        string   `yaml:"bindAddr"        split_words:"true"`
	ApiPort         uint     `yaml:"apiPort"         split_words:"true"`
	MetricsPort     uint     `yaml:"metricsPort"     split_words:"true"`
	DataDir         string   `yaml:"dataDir"         split_words:"true"`
	InviteTtl       string   `yaml:"inviteTtl"       envconfig:"TRUSTLINE_INVITE_TTL"`
	MaxProofBytes   int64    `yaml:"maxProofBytes"   split_words:"true"`
	AdminIds        []string `yaml:"adminIds"        envconfig:"TRUSTLINE_ADMIN_IDS"`
	Currency        string   `yaml:"currency"`
	ShutdownTimeout string   `yaml:"shutdownTimeout" split_words:"true"`
	Tracing         bool     `yaml:"tracing"`
	TracingStdout   bool     `yaml:"tracingStdout"   split_words:"true"`

	// Fee policy defaults, used until overridden via the admin
	// settings API
	FeeThreshold     string `yaml:"feeThreshold"     split_words:"true"`
	FeeRateBelow     int64  `yaml:"feeRateBelow"     split_words:"true"`
	FeeRateAtOrAbove int64  `yaml:"feeRateAtOrAbove" split_words:"true"`

	// Transactional email relay (empty endpoint disables email)
	MailerEndpoint    string `yaml:"mailerEndpoint"    split_words:"true"`
	MailerApiKey      string `yaml:"mailerApiKey"      envconfig:"TRUSTLINE_MAILER_API_KEY"`
	MailerFromName    string `yaml:"mailerFromName"    split_words:"true"`
	MailerFromAddress string `yaml:"mailerFromAddress" split_words:"true"`
}

var globalConfig = &Config{
	BindAddr:          "0.0.0.0",
	ApiPort:           8080,
	MetricsPort:       8081,
	DataDir:           ".trustline",
	InviteTtl:         "72h",
	MaxProofBytes:     5242880,
	Currency:          "NGN",
	ShutdownTimeout:   DefaultShutdownTimeout,
	FeeThreshold:      "10000",
	FeeRateBelow:      5,
	FeeRateAtOrAbove:  2,
	MailerFromName:    "Trustline",
	MailerFromAddress: "no-reply@trustline.example",
}

func LoadConfig(configFile string) (*Config, error) {
	// Load config file as YAML if provided
	if configFile == "" {
		// Check for config file in this path: ~/.trustline/trustline.yaml
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(
				homeDir,
				".trustline",
				"trustline.yaml",
			)
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}

		// Try to check for /etc/trustline/trustline.yaml if still not found
		if configFile == "" {
			systemPath := "/etc/trustline/trustline.yaml"
			if _, err := os.Stat(systemPath); err == nil {
				configFile = systemPath
			}
		}
	}

	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Overlay config values onto existing defaults
		if err := yaml.Unmarshal(buf, globalConfig); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	// Load config values from environment variables
	// We use "dummy" as the app name to (mostly) prevent picking up env
	// vars that we hadn't explicitly specified in annotations above
	err := envconfig.Process("dummy", globalConfig)
	if err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}

	return globalConfig, nil
}

// GetConfig returns the global config instance
func GetConfig() *Config {
	return globalConfig
}
