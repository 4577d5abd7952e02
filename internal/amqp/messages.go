package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"myeconomy/internal/core"

	"github.com/google/uuid"
)

// LimitStatusChangedMessage is published after a reconciliation moved a
// monthly limit from one status to another.
type LimitStatusChangedMessage struct {
	EventID        string           `json:"event_id"`
	Email          string           `json:"email"`
	LimitID        int64            `json:"limit_id"`
	Month          int              `json:"month"`
	Year           int              `json:"year"`
	PreviousStatus core.LimitStatus `json:"previous_status"`
	Status         core.LimitStatus `json:"status"`
	TotalCents     int64            `json:"total_cents"`
	LimitCents     int64            `json:"limit_cents"`
	Timestamp      time.Time        `json:"timestamp"`
}

// NewLimitStatusChangedMessage builds the event for limit after it moved away from previous.
func NewLimitStatusChangedMessage(limit core.MonthlyLimit, previous core.LimitStatus, total core.Money) *LimitStatusChangedMessage {
	return &LimitStatusChangedMessage{
		EventID:        uuid.NewString(),
		Email:          limit.Email,
		LimitID:        limit.ID,
		Month:          limit.Month,
		Year:           limit.Year,
		PreviousStatus: previous,
		Status:         limit.Status,
		TotalCents:     total.Cents,
		LimitCents:     limit.Amount.Cents,
		Timestamp:      time.Now(),
	}
}

// Period returns the month the event refers to.
func (m *LimitStatusChangedMessage) Period() core.Period {
	return core.Period{Month: m.Month, Year: m.Year}
}

func (m *LimitStatusChangedMessage) Validate() error {
	if m.Email == "" {
		return errors.New("missing email")
	}
	if err := m.Period().Validate(); err != nil {
		return err
	}
	if !m.Status.IsValid() || !m.PreviousStatus.IsValid() {
		return errors.New("invalid status")
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *LimitStatusChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LimitStatusChangedMessageFromJSON decodes and validates a message body.
func LimitStatusChangedMessageFromJSON(data []byte) (*LimitStatusChangedMessage, error) {
	var msg LimitStatusChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Alert converts the event into a ledger row.
func (m *LimitStatusChangedMessage) Alert() core.LimitAlert {
	return core.LimitAlert{
		EventID:        m.EventID,
		Email:          m.Email,
		Period:         m.Period(),
		PreviousStatus: m.PreviousStatus,
		Status:         m.Status,
		Total:          core.Money{Cents: m.TotalCents},
		Limit:          core.Money{Cents: m.LimitCents},
		OccurredAt:     m.Timestamp,
	}
}
