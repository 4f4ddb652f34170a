// Package core holds the domain model of the treasury engine: money,
// accounting periods, ledger records and the membership subscription
// lifecycle. Everything here is pure data plus validation; persistence
// and transport live elsewhere.
package core

import (
	"fmt"
	"strconv"
)

// Money is an amount in the smallest currency unit. Amounts are stored,
// computed and transmitted as integer cents; conversion to a display
// decimal happens only at the presentation boundary.
type Money struct {
	Cents int64
}

// MarshalJSON emits the bare integer cent count, so every amount
// crosses the wire as integer cents rather than a nested object or a
// float.
func (m Money) MarshalJSON() ([]byte, error) {
	return strconv.AppendInt(nil, m.Cents, 10), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	cents, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return Invalid("amount", "must be an integer number of cents")
	}
	m.Cents = cents
	return nil
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }

func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

func (m Money) IsZero() bool { return m.Cents == 0 }

func (m Money) IsNegative() bool { return m.Cents < 0 }

// String formats the amount for logs. Not a presentation format.
func (m Money) String() string {
	sign := ""
	c := m.Cents
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}

// PercentOf returns m as a percentage of total. A zero total yields 0:
// rate computations over an empty denominator are a defined business
// rule here, never an error or Inf.
func (m Money) PercentOf(total Money) float64 {
	if total.Cents == 0 {
		return 0
	}
	return float64(m.Cents) / float64(total.Cents) * 100
}
