package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// MissingSentinel is the placeholder upstream feeds use for an unobserved metric.
// It is converted to an invalid Stat at ingestion and never used in arithmetic.
const MissingSentinel = -1

// Stat is a nullable metric value.
type Stat struct {
	Value float64
	Valid bool
}

// Observed returns a valid Stat holding v.
func Observed(v float64) Stat { return Stat{Value: v, Valid: true} }

// Unobserved returns an invalid Stat.
func Unobserved() Stat { return Stat{} }

// FromRaw converts an upstream value, mapping the sentinel and NaN to unobserved.
func FromRaw(v float64) Stat {
	if v == MissingSentinel || math.IsNaN(v) {
		return Stat{}
	}
	return Observed(v)
}

// FromPtr is FromRaw for nullable columns; nil is unobserved.
func FromPtr(v *float64) Stat {
	if v == nil {
		return Stat{}
	}
	return FromRaw(*v)
}

// Ptr returns nil for unobserved values.
func (s Stat) Ptr() *float64 {
	if !s.Valid {
		return nil
	}
	v := s.Value
	return &v
}

func (s Stat) String() string {
	if !s.Valid {
		return "-"
	}
	return strconv.FormatFloat(s.Value, 'f', -1, 64)
}

func (s Stat) MarshalJSON() ([]byte, error) {
	if !s.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(s.Value)
}

func (s *Stat) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*s = Stat{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("stat: %w", err)
	}
	*s = FromRaw(v)
	return nil
}
