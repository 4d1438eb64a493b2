package amqp

import (
	"testing"
	"time"
)

func TestTransactionEventRoundtrip(t *testing.T) {
	ev := NewTransactionEvent("tx-1", "u1", ActionCreated)
	if ev.Timestamp.IsZero() {
		t.Fatalf("expected timestamp set")
	}

	data, err := ev.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got, err := TransactionEventFromJSON(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.TransactionID != "tx-1" || got.OwnerID != "u1" || got.Action != ActionCreated {
		t.Fatalf("unexpected event: %+v", got)
	}
	if !got.Timestamp.Equal(ev.Timestamp.Truncate(time.Nanosecond)) {
		t.Fatalf("timestamp mismatch: %v vs %v", got.Timestamp, ev.Timestamp)
	}
}

func TestTransactionEventFromJSONInvalid(t *testing.T) {
	if _, err := TransactionEventFromJSON([]byte("{not json")); err == nil {
		t.Fatalf("expected error for invalid payload")
	}
}
