package lending

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
)

// Action tags carried by cross-chain messages. The set is closed: any other
// value fails dispatch on the receiving side.
const (
	ActionBorrow = "borrow"
	ActionRepay  = "repay"
)

// CrossChainMessage is the wire payload exchanged with the remote chain. The
// schema is stable and versionless; it carries no sequence number or
// idempotency key, so repeated delivery is indistinguishable from a new
// message (a documented gap of the protocol, not to be papered over here).
type CrossChainMessage struct {
	User        [20]byte
	Action      string
	Asset       [20]byte
	Amount      uint64
	SourceChain uint64
	DestChain   uint64
}

// Encode renders the message in its canonical RLP form.
func (m *CrossChainMessage) Encode() ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil message", ErrCrossChainFailed)
	}
	encoded, err := rlp.EncodeToBytes(m)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCrossChainFailed, err)
	}
	return encoded, nil
}

// DecodeMessage parses an opaque inbound payload. Any decode failure is
// reported as ErrCrossChainFailed; action validation happens at dispatch.
func DecodeMessage(payload []byte) (*CrossChainMessage, error) {
	var msg CrossChainMessage
	if err := rlp.DecodeBytes(payload, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCrossChainFailed, err)
	}
	return &msg, nil
}
