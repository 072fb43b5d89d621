package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"kannadi/internal/core"
)

// Reasons a month's aggregates went stale.
const (
	ReasonExpenseSaved  = "expense_saved"
	ReasonIncomeSaved   = "income_saved"
	ReasonDeleted       = "deleted"
	ReasonImported      = "imported"
	ReasonRecurring     = "recurring"
	ReasonCleared       = "cleared"
	ReasonFullRecompute = "full_recompute"
)

var ErrNoMonths = errors.New("month-changed message carries no months")

// MonthChangedMessage tells the worker which months need their snapshot
// recomputed. It carries month keys only; the worker reads the ledger.
type MonthChangedMessage struct {
	Months    []string  `json:"months"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMonthChangedMessage dedupes and sorts months oldest first.
func NewMonthChangedMessage(reason string, months ...core.Month) *MonthChangedMessage {
	seen := make(map[core.Month]bool, len(months))
	uniq := make([]core.Month, 0, len(months))
	for _, m := range months {
		if m.IsZero() || seen[m] {
			continue
		}
		seen[m] = true
		uniq = append(uniq, m)
	}
	sort.Slice(uniq, func(i, j int) bool { return uniq[i].Before(uniq[j]) })

	keys := make([]string, len(uniq))
	for i, m := range uniq {
		keys[i] = m.String()
	}
	return &MonthChangedMessage{Months: keys, Reason: reason, Timestamp: time.Now().UTC()}
}

func (m *MonthChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ParsedMonths returns the month keys as core.Month values.
func (m *MonthChangedMessage) ParsedMonths() ([]core.Month, error) {
	out := make([]core.Month, 0, len(m.Months))
	for _, s := range m.Months {
		month, err := core.ParseMonth(s)
		if err != nil {
			return nil, fmt.Errorf("month %q: %w", s, err)
		}
		out = append(out, month)
	}
	return out, nil
}

// MonthChangedMessageFromJSON decodes and checks a message body. A full
// recompute may come without months.
func MonthChangedMessageFromJSON(data []byte) (*MonthChangedMessage, error) {
	var msg MonthChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if len(msg.Months) == 0 && msg.Reason != ReasonFullRecompute && msg.Reason != ReasonCleared {
		return nil, ErrNoMonths
	}
	if _, err := msg.ParsedMonths(); err != nil {
		return nil, err
	}
	return &msg, nil
}
