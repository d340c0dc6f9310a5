// Package metrics exposes Prometheus instrumentation for the lending service.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Lending aggregates counters for protocol operations.
type Lending struct {
	Operations   *prometheus.CounterVec
	Liquidations prometheus.Counter
	BridgeSends  *prometheus.CounterVec
}

var (
	lendingOnce sync.Once
	lending     *Lending
)

// NewLending registers the lending collectors exactly once and returns the
// shared instance.
func NewLending() *Lending {
	lendingOnce.Do(func() {
		lending = &Lending{
			Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "openchain",
				Subsystem: "lending",
				Name:      "operations_total",
				Help:      "Lending operations processed, labelled by operation and result.",
			}, []string{"operation", "result"}),
			Liquidations: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "openchain",
				Subsystem: "lending",
				Name:      "liquidations_total",
				Help:      "Successful liquidations executed.",
			}),
			BridgeSends: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "openchain",
				Subsystem: "lending",
				Name:      "bridge_sends_total",
				Help:      "Outbound cross-chain dispatches, labelled by result.",
			}, []string{"result"}),
		}
		prometheus.MustRegister(lending.Operations, lending.Liquidations, lending.BridgeSends)
	})
	return lending
}

// ObserveOperation records one operation outcome.
func (m *Lending) ObserveOperation(operation string, err error) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(operation, resultLabel(err)).Inc()
}

// ObserveBridgeSend records one outbound cross-chain dispatch outcome.
func (m *Lending) ObserveBridgeSend(err error) {
	if m == nil {
		return
	}
	m.BridgeSends.WithLabelValues(resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
