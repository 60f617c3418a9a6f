// Package units converts values between physical units. Unit strings are
// names from the unit table, optionally carrying an SI prefix, combined with
// `*`, `/` and integer exponents (`kg/m^3`, `m/s^2`, `kg/m/s`).
package units

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrUnknownUnit is returned for a unit name that is not in the table.
	ErrUnknownUnit = errors.New("unknown unit")
	// ErrIncompatible is returned when converting between different dimensions.
	ErrIncompatible = errors.New("incompatible units")
)

// Unit is a parsed unit expression resolved against the table.
type Unit struct {
	Text   string
	Scale  float64
	Offset float64
	Dim    Dimension
}

// ToSI converts a value in this unit to the SI reference unit.
func (u Unit) ToSI(value float64) float64 {
	return (value + u.Offset) * u.Scale
}

// FromSI converts a value in the SI reference unit to this unit.
func (u Unit) FromSI(value float64) float64 {
	return value/u.Scale - u.Offset
}

// Compatible reports whether two units share a dimension.
func (u Unit) Compatible(other Unit) bool {
	return u.Dim == other.Dim
}

var (
	byName     map[string]*Definition
	buildIndex sync.Once
	parsed     sync.Map // unit text -> Unit
)

func index() map[string]*Definition {
	buildIndex.Do(func() {
		byName = make(map[string]*Definition)
		for i := range table {
			for _, name := range table[i].Names {
				byName[name] = &table[i]
			}
		}
	})
	return byName
}

// Lookup resolves a single unit name, trying exact names before SI
// prefixes on prefix-enabled units. The returned scale includes the prefix.
func Lookup(name string) (Definition, float64, error) {
	defs := index()
	if def, ok := defs[name]; ok {
		return *def, def.Scale, nil
	}
	for prefix, factor := range prefixes {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		def, ok := defs[strings.TrimPrefix(name, prefix)]
		if ok && def.Prefix {
			return *def, factor * def.Scale, nil
		}
	}
	return Definition{}, 0, fmt.Errorf("%w: %q", ErrUnknownUnit, name)
}

// Parse resolves a unit expression. Results are memoized by text.
func Parse(text string) (Unit, error) {
	text = strings.TrimSpace(text)
	if cached, ok := parsed.Load(text); ok {
		return cached.(Unit), nil
	}
	if text == "" {
		return Unit{}, fmt.Errorf("%w: empty unit", ErrUnknownUnit)
	}

	expr, err := ParseExpression(text)
	if err != nil {
		return Unit{}, fmt.Errorf("parsing unit %q: %w", text, err)
	}

	unit := Unit{Text: text, Scale: 1}
	apply := func(f *Factor, sign int) error {
		def, scale, err := Lookup(f.Name)
		if err != nil {
			return err
		}
		power := f.Power() * sign
		unit.Scale *= pow(scale, power)
		for i := range unit.Dim {
			unit.Dim[i] += def.Dim[i] * power
		}
		return nil
	}

	if err := apply(expr.First, 1); err != nil {
		return Unit{}, err
	}
	for _, op := range expr.Rest {
		sign := 1
		if op.Op == "/" {
			sign = -1
		}
		if err := apply(op.Factor, sign); err != nil {
			return Unit{}, err
		}
	}

	// Offsets (temperature scales) only make sense for a lone unit.
	if len(expr.Rest) == 0 && expr.First.Power() == 1 {
		def, _, _ := Lookup(expr.First.Name)
		unit.Offset = def.Offset
	}

	parsed.Store(text, unit)
	return unit, nil
}

// Convert converts value from one unit expression to another.
func Convert(value float64, from, to string) (float64, error) {
	src, err := Parse(from)
	if err != nil {
		return 0, err
	}
	dst, err := Parse(to)
	if err != nil {
		return 0, err
	}
	if !src.Compatible(dst) {
		return 0, fmt.Errorf("%w: %s and %s", ErrIncompatible, from, to)
	}
	return dst.FromSI(src.ToSI(value)), nil
}

// List returns the primary name and description of every table entry,
// sorted by name.
func List() []Definition {
	out := make([]Definition, len(table))
	copy(out, table)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Names[0] < out[j].Names[0]
	})
	return out
}

func pow(base float64, exp int) float64 {
	result := 1.0
	if exp < 0 {
		base = 1 / base
		exp = -exp
	}
	for ; exp > 0; exp-- {
		result *= base
	}
	return result
}
