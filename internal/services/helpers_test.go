package services

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"kannadi/internal/amqp"
	"kannadi/internal/core"
	"kannadi/internal/ledger/memory"
	applog "kannadi/internal/log"
)

type fakePublisher struct {
	mu   sync.Mutex
	msgs []*amqp.MonthChangedMessage
	err  error
}

func (f *fakePublisher) PublishMonthChanged(_ context.Context, msg *amqp.MonthChangedMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msg)
	return f.err
}

func (f *fakePublisher) last() *amqp.MonthChangedMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.msgs) == 0 {
		return nil
	}
	return f.msgs[len(f.msgs)-1]
}

type countingInvalidator struct{ calls int }

func (c *countingInvalidator) Invalidate(...core.Month) { c.calls++ }

var errBroker = errors.New("broker unavailable")

func quietLogger() *applog.Logger {
	return applog.New(applog.Config{Output: io.Discard})
}

func newStore(t *testing.T) *memory.Store {
	t.Helper()
	s, err := memory.NewWithDefaults()
	if err != nil {
		t.Fatalf("NewWithDefaults: %v", err)
	}
	return s
}

func money(v float64) core.Money { return core.FromValue(v) }

func date(t *testing.T, s string) core.Date {
	t.Helper()
	d, err := core.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}

func mustMonth(t *testing.T, s string) core.Month {
	t.Helper()
	m, err := core.ParseMonth(s)
	if err != nil {
		t.Fatalf("ParseMonth(%q): %v", s, err)
	}
	return m
}
