package tasks

import (
	"encoding/json"
	"fmt"
	"time"
)

const dateLayout = time.DateOnly

// Date — календарная дата без времени суток.
type Date struct {
	t time.Time
}

// NewDate собирает дату из года, месяца и дня.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf берёт календарную дату момента t в его часовом поясе.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate принимает "2006-01-02" или полный RFC 3339 (берётся только дата).
func ParseDate(s string) (Date, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return DateOf(t), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return DateOf(t), nil
	}
	return Date{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
}

func (d Date) String() string { return d.t.Format(dateLayout) }

func (d Date) Before(other Date) bool { return d.t.Before(other.t) }

// Compare возвращает -1, 0 или +1.
func (d Date) Compare(other Date) int { return d.t.Compare(other.t) }

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) MarshalYAML() (any, error) {
	return d.String(), nil
}
