// Package sequence derives human-facing sale numbers and SKUs.
//
// Next only proposes a code from the last value observed in a scope. It does
// not guarantee uniqueness: two callers that read the same last value propose
// the same code. Uniqueness holds only when the proposal is committed under a
// storage uniqueness constraint on (scope, code) and collisions are retried,
// which is what Allocator does.
package sequence

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// dayLayout is the date bucket format used in sale number scopes and prefixes.
const dayLayout = "20060102"

// MaxValue is the largest value a series hands out or accepts from a parsed code.
const MaxValue int64 = 999_999_999_999_999_999

// ErrSeriesFull is returned by Next once the last value has reached MaxValue.
var ErrSeriesFull = errors.New("sequence: series reached its maximum value")

// Scope is the key space within which a series is unique.
type Scope struct {
	BusinessID string
	// Day is the yyyymmdd bucket for daily series; empty for monotonic series.
	Day string
}

// Key returns the canonical string form of the scope.
func (s Scope) Key() string {
	if s.Day == "" {
		return s.BusinessID
	}
	return s.BusinessID + ":" + s.Day
}

// DailyScope returns the scope for a business on the calendar day of t.
func DailyScope(businessID string, t time.Time) Scope {
	return Scope{BusinessID: businessID, Day: t.Format(dayLayout)}
}

// Series describes how codes are formatted.
type Series struct {
	Prefix string
	// Width is the minimum number of digits. Larger values are never truncated.
	Width int
}

// SaleNumberSeries numbers sales per business per day: V20261018-0001.
func SaleNumberSeries(day time.Time) Series {
	return Series{Prefix: "V" + day.Format(dayLayout) + "-", Width: 4}
}

// SKUSeries numbers products per business: SKU-000001.
func SKUSeries() Series {
	return Series{Prefix: "SKU-", Width: 6}
}

// Code is a proposed or committed sequence value.
type Code struct {
	Value     int64
	Formatted string
	// Fallback is set when the code is timestamp based because numbered attempts kept colliding.
	Fallback bool
}

func (c Code) String() string {
	return c.Formatted
}

// Next proposes the code following last. An absent last value starts the series at 1.
func Next(series Series, last sql.NullInt64) (Code, error) {
	value := int64(1)
	if last.Valid {
		if last.Int64 < 0 || last.Int64 >= MaxValue {
			return Code{}, fmt.Errorf("%w: last value %d", ErrSeriesFull, last.Int64)
		}
		value = last.Int64 + 1
	}
	return Code{Value: value, Formatted: series.Format(value)}, nil
}

// Format renders value with the series prefix, zero padded to Width.
func (s Series) Format(value int64) string {
	digits := strconv.FormatInt(value, 10)
	if s.Width > 0 {
		digits = fmt.Sprintf("%0*d", s.Width, value)
	}
	return s.Prefix + digits
}

// Parse extracts the numeric value from a code of this series.
// Only plain digits up to MaxValue parse. Fallback codes and codes from other
// series do not.
func (s Series) Parse(code string) (int64, bool) {
	rest, ok := strings.CutPrefix(code, s.Prefix)
	if !ok || rest == "" {
		return 0, false
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	if digits := strings.TrimLeft(rest, "0"); len(digits) > len(strconv.FormatInt(MaxValue, 10)) {
		return 0, false
	}
	value, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || value > MaxValue {
		return 0, false
	}
	return value, true
}

// fallback builds the timestamp-suffixed code used once numbered attempts are exhausted.
func (s Series) fallback(now time.Time) Code {
	return Code{Formatted: s.Prefix + "T" + strconv.FormatInt(now.UnixMilli(), 10), Fallback: true}
}
