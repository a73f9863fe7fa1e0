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
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/trustline-labs/trustline/api"
	"github.com/trustline-labs/trustline/database"
	"github.com/trustline-labs/trustline/escrow"
	"github.com/trustline-labs/trustline/event"
	"github.com/trustline-labs/trustline/mailer"
)

// Service is the assembled escrow service: storage, event bus, ledger,
// notification fan-out, and the REST API.
type Service struct {
	config        Config
	db            *database.Database
	eventBus      *event.EventBus
	ledger        *escrow.Ledger
	notifier      *escrow.Notifier
	api           *api.Api
	shutdownFuncs []func(context.Context) error
	done          chan struct{}
	shutdownOnce  sync.Once
}

// New creates a Service from the provided config
func New(cfg Config) (*Service, error) {
	eventBus := event.NewEventBus(cfg.promRegistry, cfg.logger)
	s := &Service{
		config:   cfg,
		eventBus: eventBus,
		done:     make(chan struct{}),
	}
	return s, nil
}

// Run assembles and starts the service components, then blocks until
// Stop is called or the context is cancelled
func (s *Service) Run(ctx context.Context) error {
	// Configure tracing
	if s.config.tracing {
		if err := s.setupTracing(); err != nil {
			return err
		}
	}
	// Load database
	db, err := database.New(&database.Config{
		DataDir: s.config.dataDir,
		Logger:  s.config.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db
	// Build ledger
	s.ledger = escrow.NewLedger(escrow.LedgerConfig{
		Logger:        s.config.logger,
		Database:      s.db,
		EventBus:      s.eventBus,
		InviteTTL:     s.config.inviteTTL,
		MaxProofBytes: s.config.maxProofBytes,
		DefaultFees:   s.config.defaultFees,
		AdminIDs:      s.config.adminIds,
	})
	// Start notification fan-out
	var mailSender escrow.Mailer = mailer.Nop{}
	if s.config.mailer.Endpoint != "" {
		mailSender = mailer.New(mailer.Config{
			Logger:      s.config.logger,
			Endpoint:    s.config.mailer.Endpoint,
			APIKey:      s.config.mailer.APIKey,
			FromName:    s.config.mailer.FromName,
			FromAddress: s.config.mailer.FromAddress,
		})
	}
	s.notifier = escrow.NewNotifier(escrow.NotifierConfig{
		Logger:   s.config.logger,
		Database: s.db,
		EventBus: s.eventBus,
		Mailer:   mailSender,
		AdminIDs: s.config.adminIds,
	})
	s.notifier.Start()
	// Start API listener
	s.api = api.New(api.Config{
		Logger:        s.config.logger,
		ListenAddress: s.config.listenAddress,
		Ledger:        s.ledger,
		EventBus:      s.eventBus,
	})
	if err := s.api.Start(ctx); err != nil {
		return err
	}

	// Stop on context cancellation
	go func() {
		select {
		case <-ctx.Done():
			if err := s.Stop(); err != nil {
				s.config.logger.Error(
					"shutdown error",
					"error", err,
				)
			}
		case <-s.done:
		}
	}()

	// Wait for shutdown
	<-s.done
	return nil
}

// Ledger returns the service's escrow ledger
func (s *Service) Ledger() *escrow.Ledger {
	return s.ledger
}

// Stop gracefully shuts down the service
func (s *Service) Stop() error {
	var err error
	s.shutdownOnce.Do(func() {
		err = s.shutdown()
	})
	return err
}

func (s *Service) shutdown() error {
	shutdownTimeout := 30 * time.Second
	if s.config.shutdownTimeout > 0 {
		shutdownTimeout = s.config.shutdownTimeout
	}
	ctx, cancel := context.WithTimeout(
		context.Background(),
		shutdownTimeout,
	)
	defer cancel()

	var err error

	s.config.logger.Debug("starting graceful shutdown")

	// Phase 1: Stop accepting new work
	s.config.logger.Debug("shutdown phase 1: stopping new work")

	if s.api != nil {
		if stopErr := s.api.Stop(ctx); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("api shutdown: %w", stopErr))
		}
	}

	// Phase 2: Drain event subscribers
	s.config.logger.Debug("shutdown phase 2: draining event subscribers")

	if s.notifier != nil {
		s.notifier.Stop()
	}
	if s.eventBus != nil {
		s.eventBus.Stop()
	}

	// Phase 3: Flush state and close database
	s.config.logger.Debug("shutdown phase 3: flushing state")

	if s.db != nil {
		if closeErr := s.db.Close(); closeErr != nil {
			err = errors.Join(
				err,
				fmt.Errorf("database close: %w", closeErr),
			)
		}
	}

	// Phase 4: Cleanup resources
	s.config.logger.Debug("shutdown phase 4: cleanup resources")

	for _, fn := range s.shutdownFuncs {
		if fnErr := fn(ctx); fnErr != nil {
			err = errors.Join(err, fmt.Errorf("shutdown function: %w", fnErr))
		}
	}
	s.shutdownFuncs = nil

	s.config.logger.Debug("graceful shutdown complete")
	close(s.done)
	return err
}
