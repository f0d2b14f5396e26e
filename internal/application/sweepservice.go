package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/ericfisherdev/fleetcert/internal/domain/model"
)

// FleetObserver receives each fleet snapshot taken by the sweep.
type FleetObserver interface {
	ObserveFleet(status model.FleetStatus)
}

// SweepService periodically recomputes the fleet status, publishes it to an
// observer and logs certificates whose bucket changed since the previous
// sweep.
type SweepService struct {
	fleet    *FleetService
	observer FleetObserver
	interval time.Duration
	last     map[int64]model.Bucket
	logger   *slog.Logger
}

// NewSweepService creates a SweepService.
func NewSweepService(fleet *FleetService, observer FleetObserver, interval time.Duration) *SweepService {
	return &SweepService{
		fleet:    fleet,
		observer: observer,
		interval: interval,
		logger:   slog.Default(),
	}
}

// Start runs an immediate sweep, then sweeps on the configured interval.
// Start blocks until the context is canceled.
func (s *SweepService) Start(ctx context.Context) {
	if err := s.Sweep(ctx); err != nil {
		s.logger.Error("initial sweep failed", "error", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweep service stopped")
			return
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				s.logger.Error("sweep failed", "error", err)
			}
		}
	}
}

// Sweep takes one snapshot and logs the certificates whose bucket moved since
// the previous call. The first call reports no transitions.
func (s *SweepService) Sweep(ctx context.Context) error {
	start := time.Now()

	status, err := s.fleet.Snapshot(ctx)
	if err != nil {
		return err
	}

	s.observer.ObserveFleet(status)

	current := make(map[int64]model.Bucket, status.Total)
	var transitions int
	for _, vs := range status.Vessels {
		for _, ac := range vs.Certificates {
			id := ac.Certificate.ID
			current[id] = ac.Status.Bucket

			prev, seen := s.last[id]
			if s.last == nil || !seen || prev == ac.Status.Bucket {
				continue
			}
			transitions++
			s.logger.Info("certificate status changed",
				"vessel", vs.Vessel.Name,
				"certificate", ac.Certificate.Name,
				"from", prev,
				"to", ac.Status.Bucket,
				"label", ac.Status.Label,
			)
		}
	}
	s.last = current

	s.logger.Info("sweep complete",
		"certificates", status.Total,
		"alerts", len(status.Alerts),
		"health", status.Health,
		"transitions", transitions,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return nil
}
