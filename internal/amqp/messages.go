package amqp

import (
	"encoding/json"
	"time"
)

const (
	KindMeta ChangeKind = "meta"
	KindYear ChangeKind = "year"
)

// ChangeKind names which remote document a persist touched.
type ChangeKind string

// ChangeMessage announces that a document was persisted. Consumers that
// mirror or index the cashbook (exports, backups) re-read the document
// themselves; the message carries no payload.
type ChangeMessage struct {
	Kind      ChangeKind `json:"kind"`
	Year      int        `json:"year,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

func NewMetaChange() *ChangeMessage {
	return &ChangeMessage{Kind: KindMeta, Timestamp: time.Now()}
}

func NewYearChange(year int) *ChangeMessage {
	return &ChangeMessage{Kind: KindYear, Year: year, Timestamp: time.Now()}
}

// ToJSON converts the message to JSON bytes.
func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON creates a message from JSON bytes.
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
