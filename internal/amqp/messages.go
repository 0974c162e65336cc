package amqp

import (
	"encoding/json"
	"time"
)

const (
	ActionRecorded = "recorded"
	ActionDeleted  = "deleted"
)

// MirrorMessage asks the mirror worker to reconcile one donation row
// on the spreadsheet. A recorded message carries only the id; the
// worker refetches the row from the store. A deleted message carries
// the row details because the store no longer has them.
type MirrorMessage struct {
	Action      string    `json:"action"`
	ID          string    `json:"id"`
	DonorName   string    `json:"donor_name,omitempty"`
	AmountCents int64     `json:"amount_cents,omitempty"`
	Method      string    `json:"method,omitempty"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewRecordedMessage(id string) *MirrorMessage {
	return &MirrorMessage{
		Action:    ActionRecorded,
		ID:        id,
		Timestamp: time.Now(),
	}
}

func NewDeletedMessage(id, donorName string, amountCents int64, method, phoneNumber string) *MirrorMessage {
	return &MirrorMessage{
		Action:      ActionDeleted,
		ID:          id,
		DonorName:   donorName,
		AmountCents: amountCents,
		Method:      method,
		PhoneNumber: phoneNumber,
		Timestamp:   time.Now(),
	}
}

func (m *MirrorMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func MirrorMessageFromJSON(data []byte) (*MirrorMessage, error) {
	var msg MirrorMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
