// internal/models/money.go
package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Money is a fixed-point USD amount stored as cents. Catalog prices and
// revenue figures are parsed digit-by-digit so aggregates stay exact across
// repeated computations.
type Money struct {
	Cents int64 `json:"cents"`
}

var ErrInvalidAmount = errors.New("invalid monetary amount")

// ParseMoney parses a decimal string such as "15000", "15000.5" or "15000.50"
// into cents without going through floating point.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}

	negative := false
	if s[0] == '-' {
		negative = true
		s = s[1:]
	}

	whole := s
	frac := ""
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		whole = s[:idx]
		frac = s[idx+1:]
	}
	if whole == "" && frac == "" {
		return Money{}, ErrInvalidAmount
	}
	if len(frac) > 2 {
		return Money{}, fmt.Errorf("%w: more than two decimal places in %q", ErrInvalidAmount, s)
	}
	for len(frac) < 2 {
		frac += "0"
	}

	var cents int64
	for _, part := range []string{whole, frac} {
		for _, c := range part {
			if c < '0' || c > '9' {
				return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
			}
			cents = cents*10 + int64(c-'0')
		}
	}
	if negative {
		cents = -cents
	}

	return Money{Cents: cents}, nil
}

// MustMoney is a test and fixture helper.
func MustMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Add(other Money) Money {
	return Money{Cents: m.Cents + other.Cents}
}

// Mul scales the amount by a whole count, e.g. price times units sold.
func (m Money) Mul(n int64) Money {
	return Money{Cents: m.Cents * n}
}

func (m Money) IsNegative() bool {
	return m.Cents < 0
}

// String renders the amount as "$1,234.56".
func (m Money) String() string {
	cents := m.Cents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}

	whole := cents / 100
	frac := cents % 100

	digits := fmt.Sprintf("%d", whole)
	var grouped strings.Builder
	for i, c := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(c)
	}

	return fmt.Sprintf("%s$%s.%02d", sign, grouped.String(), frac)
}

// UnmarshalJSON accepts both JSON numbers and decimal strings so catalog
// files can write prices naturally.
func (m *Money) UnmarshalJSON(data []byte) error {
	var raw json.Number
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		// Fall back to a quoted decimal string.
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidAmount, string(data))
		}
		raw = json.Number(s)
	}

	parsed, err := ParseMoney(raw.String())
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func (m Money) MarshalJSON() ([]byte, error) {
	cents := m.Cents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return []byte(fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)), nil
}
