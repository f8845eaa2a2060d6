// Package normalize turns free-form numeric text ("1,200 HP", "45-55", "$32,000")
// into a single float or an explicit absent result.
//
// Normalization never fails: anything that cannot be read as a number collapses to
// an absent Parsed value. Two policies are available and must be chosen explicitly:
//
//   - PolicyRangeThenExtract: "a-b" ranges average, plain floats parse, and anything
//     else falls back to the mean of every unsigned number found in the text.
//   - PolicyStrictRange: any hyphenated value is a range (absent unless both sides
//     parse), otherwise the value must be a plain float.
package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"

	"github.com/KaramelBytes/autoclean-cli/internal/dataset"
)

// Parsed is an optional float. Valid=false is the absent value, distinct from zero.
type Parsed struct {
	Value float64
	Valid bool
}

// Some wraps a present value.
func Some(f float64) Parsed { return Parsed{Value: f, Valid: true} }

// Absent is the "could not determine a number" result.
var Absent = Parsed{}

// ToValue converts the result back into a table cell.
func (p Parsed) ToValue() dataset.Value {
	if !p.Valid {
		return dataset.Missing()
	}
	return dataset.Number(p.Value)
}

// Policy selects how ranges and decorated text are read.
type Policy string

const (
	PolicyRangeThenExtract Policy = "range-then-extract"
	PolicyStrictRange      Policy = "strict-range"
)

// DefaultPolicy is used when a profile does not name one.
const DefaultPolicy = PolicyRangeThenExtract

// ErrUnknownPolicy is returned by ParsePolicy for unrecognized names.
var ErrUnknownPolicy = eris.New("unknown normalization policy")

// ParsePolicy resolves a policy name. The empty string selects DefaultPolicy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return DefaultPolicy, nil
	case string(PolicyRangeThenExtract), "extract", "mean":
		return PolicyRangeThenExtract, nil
	case string(PolicyStrictRange), "strict":
		return PolicyStrictRange, nil
	}
	return "", eris.Wrapf(ErrUnknownPolicy, "%q (use %s|%s)", s, PolicyRangeThenExtract, PolicyStrictRange)
}

var (
	// plain decimal, optional sign and exponent; no hex, inf or nan
	floatRe = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)
	rangeRe = regexp.MustCompile(`^([+-]?(?:\d+\.?\d*|\.\d+)(?:e[+-]?\d+)?)-([+-]?(?:\d+\.?\d*|\.\d+)(?:e[+-]?\d+)?)$`)
	numRe   = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

var dashes = strings.NewReplacer("–", "-", "—", "-", "−", "-")

// Normalize reads v with the default policy.
func Normalize(v dataset.Value) Parsed {
	return NormalizeWith(v, DefaultPolicy)
}

// NormalizeAny converts an arbitrary Go value first; see dataset.FromAny.
func NormalizeAny(v any) Parsed {
	return Normalize(dataset.FromAny(v))
}

// NormalizeWith reads v under the given policy.
func NormalizeWith(v dataset.Value, p Policy) Parsed {
	switch v.Kind() {
	case dataset.KindMissing:
		return Absent
	case dataset.KindNumber:
		return Some(v.Float())
	}
	spaced := clean(v.Text())
	compact := strings.Map(dropSpace, spaced)
	if p == PolicyStrictRange {
		return strict(compact)
	}
	return rangeThenExtract(compact, spaced)
}

// NormalizeString reads a bare string under the given policy.
func NormalizeString(s string, p Policy) Parsed {
	return NormalizeWith(dataset.Text(s), p)
}

// clean lowercases, folds dash variants to '-', and drops ',' and '$'.
// Interior whitespace is kept so number extraction can still split "v8 4.0l".
func clean(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = dashes.Replace(s)
	return strings.Map(func(r rune) rune {
		if r == ',' || r == '$' {
			return -1
		}
		return r
	}, s)
}

func dropSpace(r rune) rune {
	if unicode.IsSpace(r) {
		return -1
	}
	return r
}

func rangeThenExtract(compact, spaced string) Parsed {
	if m := rangeRe.FindStringSubmatch(compact); m != nil {
		return mean2(m[1], m[2])
	}
	if p, ok := parseFloat(compact); ok {
		return p
	}
	return meanOfNumbers(spaced)
}

func strict(s string) Parsed {
	if strings.Contains(s, "-") && !floatRe.MatchString(s) {
		parts := strings.Split(s, "-")
		if len(parts) != 2 {
			return Absent
		}
		return mean2(parts[0], parts[1])
	}
	if p, ok := parseFloat(s); ok {
		return p
	}
	return Absent
}

func mean2(a, b string) Parsed {
	x, ok := parseFloat(a)
	if !ok {
		return Absent
	}
	y, ok := parseFloat(b)
	if !ok {
		return Absent
	}
	return Some((x.Value + y.Value) / 2)
}

func parseFloat(s string) (Parsed, bool) {
	if !floatRe.MatchString(s) {
		return Absent, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) {
		return Absent, false
	}
	return Some(f), true
}

func meanOfNumbers(s string) Parsed {
	found := numRe.FindAllString(s, -1)
	if len(found) == 0 {
		return Absent
	}
	var sum float64
	for _, n := range found {
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return Absent
		}
		sum += f
	}
	mean := sum / float64(len(found))
	if math.IsInf(mean, 0) {
		return Absent
	}
	return Some(mean)
}
