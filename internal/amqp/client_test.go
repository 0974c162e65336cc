package amqp

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{10, 30 * time.Second},
		{63, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			result := ExponentialBackoff(tt.attempt)
			if result != tt.expected {
				t.Errorf("ExponentialBackoff(%d) = %v, want %v", tt.attempt, result, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection refused", errors.New("connection refused"), true},
		{"connection closed", errors.New("connection closed"), true},
		{"EOF", errors.New("unexpected EOF"), true},
		{"broken pipe", errors.New("broken pipe"), true},
		{"closed network connection", errors.New("use of closed network connection"), true},
		{"other error", errors.New("some other error"), false},
		{"validation error", errors.New("invalid input"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsConnectionError(tt.err); got != tt.expected {
				t.Errorf("IsConnectionError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestMirrorMessageJSON(t *testing.T) {
	timestamp := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	msg := &MirrorMessage{
		Action:      ActionDeleted,
		ID:          "row-1",
		DonorName:   "Rahim",
		AmountCents: 50000,
		Method:      "bkash",
		PhoneNumber: "01711111111",
		Timestamp:   timestamp,
	}

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	parsed, err := MirrorMessageFromJSON(body)
	if err != nil {
		t.Fatalf("MirrorMessageFromJSON: %v", err)
	}
	if parsed.Action != msg.Action || parsed.ID != msg.ID {
		t.Errorf("round trip changed identity fields: %+v", parsed)
	}
	if parsed.AmountCents != msg.AmountCents || parsed.DonorName != msg.DonorName {
		t.Errorf("round trip changed row details: %+v", parsed)
	}
	if !parsed.Timestamp.Equal(timestamp) {
		t.Errorf("timestamp = %v, want %v", parsed.Timestamp, timestamp)
	}
}

func TestMirrorMessageFromInvalidJSON(t *testing.T) {
	if _, err := MirrorMessageFromJSON([]byte(`{"amount_cents": "oops"}`)); err == nil {
		t.Error("expected an error for invalid JSON")
	}
}

func TestNewRecordedMessage(t *testing.T) {
	msg := NewRecordedMessage("row-9")
	if msg.Action != ActionRecorded {
		t.Errorf("action = %q, want %q", msg.Action, ActionRecorded)
	}
	if msg.ID != "row-9" {
		t.Errorf("id = %q, want row-9", msg.ID)
	}
	if msg.Timestamp.IsZero() {
		t.Error("timestamp should be set")
	}
}
