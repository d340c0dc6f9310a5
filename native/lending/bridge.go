package lending

import "log/slog"

// BridgeSender carries an outbound message to the cross-chain transport. The
// dispatch is fire-and-forget: the engine commits local state before delivery
// confirmation exists and never rolls back on transport failure.
type BridgeSender interface {
	Send(msg *CrossChainMessage, receiver [32]byte) error
}

// NoopSender discards outbound messages. Useful for single-chain deployments
// and tests that only exercise local settlement.
type NoopSender struct{}

func (NoopSender) Send(*CrossChainMessage, [32]byte) error { return nil }

// LogSender records outbound dispatches without a real transport attached.
// Deployments wire the actual bridge client in its place.
type LogSender struct {
	Logger *slog.Logger
}

func (s LogSender) Send(msg *CrossChainMessage, receiver [32]byte) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("dispatching cross-chain message",
		"action", msg.Action,
		"amount", msg.Amount,
		"destChain", msg.DestChain,
	)
	return nil
}

// BridgeMetrics records the outcome of outbound dispatches.
type BridgeMetrics interface {
	ObserveBridgeSend(err error)
}

// MeteredSender wraps a BridgeSender and reports every dispatch outcome to
// the metrics sink before passing the result through.
type MeteredSender struct {
	Next    BridgeSender
	Metrics BridgeMetrics
}

func (s MeteredSender) Send(msg *CrossChainMessage, receiver [32]byte) error {
	err := s.Next.Send(msg, receiver)
	if s.Metrics != nil {
		s.Metrics.ObserveBridgeSend(err)
	}
	return err
}
