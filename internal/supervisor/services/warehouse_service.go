// Rentalscope - Bike Rental Data Exploration Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentalscope

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/rentalscope/internal/logging"
)

// Syncer rechecks the dataset and refreshes the warehouse from it.
type Syncer interface {
	Sync(ctx context.Context) error
}

// maxConsecutiveFailures hands a persistently failing sync back to the
// supervisor, whose backoff then spaces out the retries.
const maxConsecutiveFailures = 3

// WarehouseSyncService syncs once at startup, then on every interval tick
// and every Trigger call.
type WarehouseSyncService struct {
	syncer   Syncer
	interval time.Duration
	trigger  chan struct{}
}

// NewWarehouseSyncService creates the service. interval 0 disables polling.
func NewWarehouseSyncService(syncer Syncer, interval time.Duration) *WarehouseSyncService {
	return &WarehouseSyncService{
		syncer:   syncer,
		interval: interval,
		trigger:  make(chan struct{}, 1),
	}
}

// Trigger requests a sync. Requests made while one is pending coalesce.
func (s *WarehouseSyncService) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Serve implements suture.Service.
func (s *WarehouseSyncService) Serve(ctx context.Context) error {
	var tick <-chan time.Time
	if s.interval > 0 {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	failures := 0
	run := func() error {
		if err := s.syncer.Sync(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			failures++
			logging.Warn().Err(err).Int("consecutive_failures", failures).Msg("Warehouse sync failed")
			if failures >= maxConsecutiveFailures {
				return fmt.Errorf("warehouse sync failed %d times: %w", failures, err)
			}
			return nil
		}
		failures = 0
		return nil
	}

	if err := run(); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick:
		case <-s.trigger:
		}
		if err := run(); err != nil {
			return err
		}
	}
}

func (s *WarehouseSyncService) String() string {
	return "warehouse-sync"
}
