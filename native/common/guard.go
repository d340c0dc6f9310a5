package common

import "errors"

var ErrModulePaused = errors.New("module paused")

// PauseView reports the host-level circuit breaker state for a named module.
// It sits above the pool's own pause flag so operators can halt a module
// without an on-ledger admin transaction.
type PauseView interface {
	IsPaused(module string) bool
}

func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}
