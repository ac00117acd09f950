// Package expiry runs the background sweep that fails pending top-up
// transactions once their payment deadline passes.
package expiry

import (
	"context"
	"time"

	"github.com/andriarta/payrecon/internal/logger"
	"github.com/andriarta/payrecon/internal/models"
)

const DefaultInterval = 30 * time.Second

type sweeper interface {
	SweepExpired(ctx context.Context, now time.Time) ([]models.Transaction, error)
}

type Monitor struct {
	interval time.Duration
	sweeper  sweeper
	logger   logger.Logger
}

func NewMonitor(sweeper sweeper, interval time.Duration, l logger.Logger) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if l == nil {
		l = logger.NewNoOp()
	}

	return &Monitor{
		interval: interval,
		sweeper:  sweeper,
		logger:   l,
	}
}

// Run sweeps once eagerly, then on every tick until the context is
// cancelled. The returned channel closes when the loop has fully stopped.
func (m *Monitor) Run(ctx context.Context) <-chan struct{} {
	idleStopped := make(chan struct{})
	m.logger.Debug("Starting expiry monitor", "interval", m.interval)

	go func() {
		defer close(idleStopped)

		m.sweep(ctx)

		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				m.logger.Debug("Expiry monitor stopped by context")
				return
			case <-ticker.C:
				m.sweep(ctx)
			}
		}
	}()

	return idleStopped
}

func (m *Monitor) sweep(ctx context.Context) {
	expired, err := m.sweeper.SweepExpired(ctx, time.Now())
	if err != nil {
		m.logger.Error("Expiry sweep failed", "error", err)
		return
	}

	if len(expired) > 0 {
		m.logger.Info("Expiry sweep failed pending transactions", "count", len(expired))
	}
}
