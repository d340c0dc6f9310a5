package lending

import (
	"errors"
	"testing"
)

func TestMessageRoundTrip(t *testing.T) {
	msg := &CrossChainMessage{
		Action:      ActionBorrow,
		Amount:      12345,
		SourceChain: 1,
		DestChain:   9,
	}
	msg.User[0] = 0xaa
	msg.Asset[19] = 0xbb

	payload, err := msg.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeMessage(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if *decoded != *msg {
		t.Fatalf("round trip mismatch: %+v != %+v", decoded, msg)
	}
}

func TestDecodeMessageGarbage(t *testing.T) {
	_, err := DecodeMessage([]byte{0x01, 0x02, 0x03})
	if !errors.Is(err, ErrCrossChainFailed) {
		t.Fatalf("err = %v, want ErrCrossChainFailed", err)
	}
}

func TestEncodeNilMessage(t *testing.T) {
	var msg *CrossChainMessage
	if _, err := msg.Encode(); !errors.Is(err, ErrCrossChainFailed) {
		t.Fatalf("err = %v, want ErrCrossChainFailed", err)
	}
}
