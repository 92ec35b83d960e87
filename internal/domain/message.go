package domain

import "time"

type RawMessage struct {
	Timestamp *time.Time
	Sender    string
	Text      string
}

func (m RawMessage) HasTimestamp() bool {
	return m.Timestamp != nil
}
