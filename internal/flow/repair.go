package flow

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"
)

// Repair converts a near-conforming generated artifact into a fully
// conforming one without re-invoking the model. Rules are deterministic and
// only ever patch structurally mechanical fields; free-text analytical
// content is never repaired.

// ReferenceDate anchors every synthesized or normalized date. Series end
// here and out-of-year dates are rewritten into this year.
var ReferenceDate = time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC)

const dateLayout = "2006-01-02"

// Rule patches one field of a generated artifact when it is absent,
// malformed, or out of range. Apply reports whether it modified the value.
type Rule interface {
	Field() string
	Apply(obj map[string]interface{}) bool
}

// --- Fixed-length candle series synthesis ---

// SeriesRule guarantees a price-history field holds exactly Points candles.
// When the model omits the series or returns the wrong length, the series is
// synthesized from a seed price found at SeedPath (e.g. the entry-price
// lower bound) using a bounded random walk seeded by the price itself, so
// repair is reproducible. Dates run contiguously and end at ReferenceDate.
type SeriesRule struct {
	FieldName string
	Points    int
	SeedPath  []string
}

func (r SeriesRule) Field() string { return r.FieldName }

func (r SeriesRule) Apply(obj map[string]interface{}) bool {
	if series, ok := obj[r.FieldName].([]interface{}); ok && len(series) == r.Points && seriesWellFormed(series) {
		return false
	}

	seed, ok := numberAt(obj, r.SeedPath)
	if !ok || seed <= 0 {
		seed = 1.0
	}
	obj[r.FieldName] = SynthesizeSeries(seed, r.Points)
	return true
}

func seriesWellFormed(series []interface{}) bool {
	for _, item := range series {
		point, ok := item.(map[string]interface{})
		if !ok {
			return false
		}
		open, okO := toNumber(point["open"])
		closeV, okC := toNumber(point["close"])
		high, okH := toNumber(point["high"])
		low, okL := toNumber(point["low"])
		if !okO || !okC || !okH || !okL {
			return false
		}
		if high < math.Max(open, closeV) || low > math.Min(open, closeV) {
			return false
		}
		date, ok := point["date"].(string)
		if !ok {
			return false
		}
		if t, err := time.Parse(dateLayout, date); err != nil || t.Year() != ReferenceDate.Year() {
			return false
		}
	}
	return true
}

// SynthesizeSeries builds an n-point daily candle series from a seed price.
// Each open is the prior close perturbed by a bounded percentage, the close
// perturbs the open the same way, and high/low bracket the body. The RNG is
// seeded from the price bits, so the same seed always yields the same series.
func SynthesizeSeries(seed float64, n int) []interface{} {
	rng := rand.New(rand.NewSource(int64(math.Float64bits(seed))))
	series := make([]interface{}, 0, n)

	prevClose := seed
	for i := 0; i < n; i++ {
		date := ReferenceDate.AddDate(0, 0, -(n - 1 - i))
		open := prevClose * (1 + (rng.Float64()*0.04 - 0.02))
		closeV := open * (1 + (rng.Float64()*0.04 - 0.02))
		high := math.Max(open, closeV) * (1 + rng.Float64()*0.01)
		low := math.Min(open, closeV) * (1 - rng.Float64()*0.01)

		series = append(series, map[string]interface{}{
			"date":  date.Format(dateLayout),
			"open":  round4(open),
			"high":  round4(high),
			"low":   round4(low),
			"close": round4(closeV),
		})
		prevClose = closeV
	}
	return series
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// --- Date normalization ---

// DateYearRule rewrites a date string outside the reference year: month and
// day survive when parseable, the year is replaced; an unparseable value is
// replaced by the reference date itself.
type DateYearRule struct {
	FieldName string
}

func (r DateYearRule) Field() string { return r.FieldName }

func (r DateYearRule) Apply(obj map[string]interface{}) bool {
	raw, ok := obj[r.FieldName].(string)
	if !ok {
		obj[r.FieldName] = ReferenceDate.Format(dateLayout)
		return true
	}

	t, err := time.Parse(dateLayout, strings.TrimSpace(raw))
	if err != nil {
		obj[r.FieldName] = ReferenceDate.Format(dateLayout)
		return true
	}
	if t.Year() == ReferenceDate.Year() {
		return false
	}

	normalized := time.Date(ReferenceDate.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	obj[r.FieldName] = normalized.Format(dateLayout)
	return true
}

// --- Defaults and derived fields ---

// DefaultRule substitutes a fixed value when the field is absent or empty.
// Used for disclaimer/warning text the model tends to drop.
type DefaultRule struct {
	FieldName string
	Value     interface{}
}

func (r DefaultRule) Field() string { return r.FieldName }

func (r DefaultRule) Apply(obj map[string]interface{}) bool {
	if v, ok := obj[r.FieldName]; ok {
		if s, isStr := v.(string); !isStr || strings.TrimSpace(s) != "" {
			return false
		}
	}
	obj[r.FieldName] = r.Value
	return true
}

// DerivedRule always recomputes a field from authoritative source fields,
// discarding whatever the model supplied. Compute returns false when the
// sources are themselves missing, in which case the field is left alone and
// output validation decides the invocation's fate.
type DerivedRule struct {
	FieldName string
	Compute   func(obj map[string]interface{}) (interface{}, bool)
}

func (r DerivedRule) Field() string { return r.FieldName }

func (r DerivedRule) Apply(obj map[string]interface{}) bool {
	v, ok := r.Compute(obj)
	if !ok {
		return false
	}
	obj[r.FieldName] = v
	return true
}

// --- Applying rules inside arrays ---

// EachRule applies an inner rule to every object element of an array field,
// e.g. the price history of each pick in a picks array.
type EachRule struct {
	FieldName string
	Inner     Rule
}

func (r EachRule) Field() string {
	return fmt.Sprintf("%s[].%s", r.FieldName, r.Inner.Field())
}

func (r EachRule) Apply(obj map[string]interface{}) bool {
	arr, ok := obj[r.FieldName].([]interface{})
	if !ok {
		return false
	}
	applied := false
	for _, item := range arr {
		if element, ok := item.(map[string]interface{}); ok {
			if r.Inner.Apply(element) {
				applied = true
			}
		}
	}
	return applied
}

// --- Value helpers shared by rules and flows ---

func toNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

func numberAt(obj map[string]interface{}, path []string) (float64, bool) {
	current := interface{}(obj)
	for _, key := range path {
		m, ok := current.(map[string]interface{})
		if !ok {
			return 0, false
		}
		current, ok = m[key]
		if !ok {
			return 0, false
		}
	}
	return toNumber(current)
}

// NumberAt reads a numeric value at a path inside a generated artifact.
func NumberAt(obj map[string]interface{}, path ...string) (float64, bool) {
	return numberAt(obj, path)
}
