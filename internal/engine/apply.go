package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/gyaneshwarpardhi/feedertrace/internal/config"
	"github.com/gyaneshwarpardhi/feedertrace/internal/network"
)

// ApplyStatus records the outcome of the last configuration applied.
type ApplyStatus struct {
	Version   string    `json:"version"`
	RunID     string    `json:"run_id,omitempty"`
	Equipment int       `json:"equipment"`
	AppliedAt time.Time `json:"applied_at"`
	Error     string    `json:"error,omitempty"`
}

// Apply validates cfg, builds a fresh network from it, swaps it in and
// rebuilds both states. On error the previous network stays in place.
// Engine settings (workers, queue) only take effect on restart.
func (e *Engine) Apply(ctx context.Context, cfg *config.NetworkConfig) (*RebuildResult, error) {
	status := &ApplyStatus{Version: cfg.Version, AppliedAt: time.Now()}
	defer e.lastApply.Store(status)

	if err := config.Validate(cfg); err != nil {
		status.Error = err.Error()
		e.logger.Warn("network reload skipped: config invalid", "err", err)
		return nil, err
	}
	n, err := network.Build(cfg)
	if err != nil {
		status.Error = err.Error()
		e.logger.Warn("network reload skipped: build failed", "err", err)
		return nil, fmt.Errorf("build network: %w", err)
	}
	e.SwapNetwork(n)
	status.Equipment = n.EquipmentCount()

	res, err := e.Rebuild(ctx)
	if err != nil {
		status.Error = err.Error()
		return nil, err
	}
	status.RunID = res.RunID
	e.logger.Info("network hot-reloaded", "version", cfg.Version, "equipment", n.EquipmentCount(), "run_id", res.RunID)
	return res, nil
}

// LastApply returns the status of the most recent Apply, or nil.
func (e *Engine) LastApply() *ApplyStatus { return e.lastApply.Load() }
