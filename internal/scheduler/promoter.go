// Package scheduler promotes SCHEDULED transactions once they fall due.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/baharkarakas/payments-core/internal/models"
	"github.com/baharkarakas/payments-core/internal/services"
)

const DefaultBatch = 100

// Service is the orchestrator surface the promoter drives.
type Service interface {
	ListDueScheduled(ctx context.Context, limit int) ([]models.Transaction, error)
	Promote(ctx context.Context, id string) (models.Transaction, bool, error)
}

type Promoter struct {
	svc      Service
	interval time.Duration
	batch    int
	log      *slog.Logger
}

func NewPromoter(svc Service, interval time.Duration, log *slog.Logger) *Promoter {
	return &Promoter{svc: svc, interval: interval, batch: DefaultBatch, log: log}
}

// Run ticks until ctx is done.
func (p *Promoter) Run(ctx context.Context) {
	t := time.NewTicker(p.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			p.Tick(ctx)
		}
	}
}

// Tick promotes one batch of due records and returns how many reached
// CONFIRMED.
func (p *Promoter) Tick(ctx context.Context) int {
	due, err := p.svc.ListDueScheduled(ctx, p.batch)
	if err != nil {
		p.log.Error("list due scheduled", "err", err)
		return 0
	}
	confirmed := 0
	for _, tx := range due {
		if ctx.Err() != nil {
			break
		}
		out, found, err := p.svc.Promote(ctx, tx.ID)
		switch {
		case !found && err == nil:
			continue
		case errors.Is(err, services.ErrInsufficientFunds), errors.Is(err, services.ErrRiskRejected):
			p.log.Info("scheduled transaction refused", "tx_id", tx.ID, "err", err)
		case err != nil:
			p.log.Error("promote", "tx_id", tx.ID, "err", err)
		}
		if out.State == models.StateConfirmed {
			confirmed++
		}
	}
	return confirmed
}
