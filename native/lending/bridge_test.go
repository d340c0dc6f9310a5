package lending

import (
	"errors"
	"testing"
)

type recordingBridgeMetrics struct {
	ok     int
	failed int
}

func (m *recordingBridgeMetrics) ObserveBridgeSend(err error) {
	if err != nil {
		m.failed++
		return
	}
	m.ok++
}

func TestMeteredSenderRecordsOutcomes(t *testing.T) {
	sink := &recordingBridgeMetrics{}
	inner := &captureBridge{}
	sender := MeteredSender{Next: inner, Metrics: sink}
	msg := &CrossChainMessage{Action: ActionBorrow, Amount: 1}

	if err := sender.Send(msg, [32]byte{}); err != nil {
		t.Fatalf("send: %v", err)
	}
	inner.err = errors.New("transport down")
	if err := sender.Send(msg, [32]byte{}); err == nil {
		t.Fatalf("expected transport error to pass through")
	}
	if sink.ok != 1 || sink.failed != 1 {
		t.Fatalf("recorded ok=%d failed=%d, want 1/1", sink.ok, sink.failed)
	}
	if len(inner.msgs) != 2 {
		t.Fatalf("inner sends = %d, want 2", len(inner.msgs))
	}
}

func TestMeteredSenderWithoutMetrics(t *testing.T) {
	inner := &captureBridge{}
	sender := MeteredSender{Next: inner}
	if err := sender.Send(&CrossChainMessage{Action: ActionRepay, Amount: 1}, [32]byte{}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(inner.msgs) != 1 {
		t.Fatalf("inner sends = %d, want 1", len(inner.msgs))
	}
}
