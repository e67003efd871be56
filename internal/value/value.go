// Package value implements the canonical scalar string form shared by case
// keys, variable substitution, and fingerprinting: integers without
// decimal, floats as shortest round-trip, strings verbatim.
package value

import (
	"strconv"
)

// Scalar is a case variable's value: always a string, an int64, or a
// float64 at the point it reaches the engine (parsed from user input).
type Scalar struct {
	str    string
	num    float64
	isNum  bool
	isInt  bool
	intVal int64
}

func String(s string) Scalar {
	return Scalar{str: s}
}

func Int(i int64) Scalar {
	return Scalar{isNum: true, isInt: true, intVal: i, num: float64(i)}
}

func Float(f float64) Scalar {
	return Scalar{isNum: true, num: f}
}

// Parse interprets a raw user-supplied string as a scalar: integer if it
// parses cleanly as one, float if it parses as a float, else a plain string.
func Parse(raw string) Scalar {
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return Int(i)
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return Float(f)
	}
	return String(raw)
}

// Canonical renders the value in its canonical string form.
func (s Scalar) Canonical() string {
	if !s.isNum {
		return s.str
	}
	if s.isInt {
		return strconv.FormatInt(s.intVal, 10)
	}
	return strconv.FormatFloat(s.num, 'g', -1, 64)
}

func (s Scalar) IsNumeric() bool { return s.isNum }
func (s Scalar) Float() float64  { return s.num }
