package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"kannadi/internal/core"
)

const (
	maxBodyBytes  = 64 << 10
	maxStateBytes = 16 << 20
)

// badRequestError marks input that could not be read at all, as opposed to
// input that was read but failed validation.
type badRequestError struct {
	msg string
}

func (e *badRequestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &badRequestError{msg: fmt.Sprintf(format, args...)}
}

// decodeJSON reads a single JSON object of at most limit bytes into dst.
// Unknown fields are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, limit int64) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return badRequest("request body exceeds %d bytes", limit)
		}
		return badRequest("invalid JSON body: %v", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return badRequest("request body must contain a single JSON object")
	}
	return nil
}

// readBody returns the raw body, capped at limit bytes.
func readBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, error) {
	b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		return nil, badRequest("read body: %v", err)
	}
	return b, nil
}

// parseMonthParam reads a YYYY-MM query value, returning def when absent.
func parseMonthParam(q url.Values, key string, def core.Month) (core.Month, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return def, nil
	}
	m, err := core.ParseMonth(v)
	if err != nil {
		return core.Month{}, badRequest("invalid %s %q: want YYYY-MM", key, v)
	}
	return m, nil
}

// parseRange reads optional from/to months. Both bounds are open when absent.
func parseRange(q url.Values) (from, to core.Month, err error) {
	if from, err = parseMonthParam(q, "from", core.Month{}); err != nil {
		return
	}
	if to, err = parseMonthParam(q, "to", core.Month{}); err != nil {
		return
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		err = badRequest("to %s is before from %s", to, from)
	}
	return
}

func parseIntParam(q url.Values, key string, def int) (int, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, badRequest("invalid %s %q: want an integer", key, v)
	}
	return n, nil
}

func parseFloatParam(q url.Values, key string) (float64, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return 0, badRequest("missing %s", key)
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", "."), 64)
	if err != nil {
		return 0, badRequest("invalid %s %q: want a number", key, v)
	}
	return f, nil
}

// parseAmount converts a decimal amount to Money without going through
// float arithmetic.
func parseAmount(n json.Number) (core.Money, error) {
	cents, err := core.ParseDecimalToCents(n.String())
	if err != nil {
		return core.Money{}, badRequest("invalid amount %q", n.String())
	}
	return core.Money{Cents: cents}, nil
}

// parseDate reads a YYYY-MM-DD date.
func parseDate(s string) (core.Date, error) {
	d, err := core.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return core.Date{}, badRequest("invalid date %q: want YYYY-MM-DD", s)
	}
	return d, nil
}

// sanitizeInput removes control characters other than tab and newlines
// and trims whitespace.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
