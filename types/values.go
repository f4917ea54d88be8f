package types

import (
	"bytes"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DateLayout is the wire format of calendar dates.
	DateLayout = "2006-01-02"
	// TimestampLayout is the wire format of created_at/updated_at.
	TimestampLayout = "2006-01-02 15:04:05"
)

var dateInputLayouts = []string{
	DateLayout,
	TimestampLayout,
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
}

// ErrInvalidDate is returned when a date string matches none of the accepted layouts.
var ErrInvalidDate = errors.New("invalid date")

// ParseDate accepts YYYY-MM-DD, YYYY-MM-DD HH:mm:ss and RFC3339 inputs and
// returns the calendar date at midnight UTC.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateInputLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return DateOf(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
}

// DateOf drops the time of day from t, keeping t's calendar day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Date is a nullable calendar date rendered as YYYY-MM-DD.
type Date struct {
	sql.NullTime
}

func NewDate(t time.Time) Date {
	return Date{sql.NullTime{Time: DateOf(t), Valid: true}}
}

func (d Date) String() string {
	if !d.Valid {
		return ""
	}
	return d.Time.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil || strings.TrimSpace(*raw) == "" {
		*d = Date{}
		return nil
	}
	t, err := ParseDate(*raw)
	if err != nil {
		return err
	}
	*d = NewDate(t)
	return nil
}

// Timestamp is rendered as YYYY-MM-DD HH:mm:ss.
type Timestamp struct {
	time.Time
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

func (t Timestamp) String() string {
	if t.IsZero() {
		return ""
	}
	return t.Time.Format(TimestampLayout)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.String())
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil || *raw == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := time.Parse(TimestampLayout, *raw)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

func (t *Timestamp) Scan(value any) error {
	var nt sql.NullTime
	if err := nt.Scan(value); err != nil {
		return err
	}
	t.Time = nt.Time
	return nil
}

func (t Timestamp) Value() (driver.Value, error) {
	if t.IsZero() {
		return nil, nil
	}
	return t.Time, nil
}

// Quantity is a nullable numeric stock quantity. An empty JSON string
// decodes the same as null.
type Quantity struct {
	decimal.NullDecimal
}

func NewQuantity(value decimal.Decimal) Quantity {
	return Quantity{decimal.NullDecimal{Decimal: value, Valid: true}}
}

// QuantityFromInt is a convenience for tests and fixtures.
func QuantityFromInt(value int64) Quantity {
	return NewQuantity(decimal.NewFromInt(value))
}

func (q Quantity) String() string {
	if !q.Valid {
		return ""
	}
	return q.Decimal.String()
}

func (q Quantity) MarshalJSON() ([]byte, error) {
	if !q.Valid {
		return []byte("null"), nil
	}
	return []byte(q.Decimal.String()), nil
}

func (q *Quantity) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte(`""`)) {
		*q = Quantity{}
		return nil
	}
	var value decimal.Decimal
	if err := value.UnmarshalJSON(trimmed); err != nil {
		return fmt.Errorf("invalid quantity: %w", err)
	}
	*q = NewQuantity(value)
	return nil
}
