// Package quantity pairs plain magnitudes with unit expressions.
//
// Units are written as expressions over a small set of atoms
// ("W/m^2", "delta_degC/(W/m^2)", "J/delta_degC/kg", "yr") and resolved to
// SI dimensions with github.com/ctessum/unit. Conversions and arithmetic
// validate dimensions eagerly and report [ErrIncompatibleUnits] instead of
// producing silently wrong numbers.
package quantity

import (
	"fmt"
	"math"
	"strings"

	"github.com/ctessum/unit"
)

// Quantity is a scalar magnitude tagged with a unit expression.
type Quantity struct {
	Magnitude float64 `yaml:"value" json:"value"`
	Unit      string  `yaml:"unit" json:"unit"`
}

func New(magnitude float64, unitExpr string) Quantity {
	return Quantity{Magnitude: magnitude, Unit: unitExpr}
}

// Validate checks that the unit expression resolves.
func (q Quantity) Validate() error {
	_, err := parse(q.Unit)
	return err
}

// SI returns q as a ctessum/unit value in SI base units.
func (q Quantity) SI() (*unit.Unit, error) {
	s, err := parse(q.Unit)
	if err != nil {
		return nil, err
	}
	return unit.New(q.Magnitude*s.scale, s.dims), nil
}

// To converts q into the target unit.
func (q Quantity) To(target string) (Quantity, error) {
	f, err := Factor(q.Unit, target)
	if err != nil {
		return Quantity{}, err
	}
	return Quantity{Magnitude: q.Magnitude * f, Unit: target}, nil
}

// In returns the magnitude of q expressed in the target unit.
func (q Quantity) In(target string) (float64, error) {
	c, err := q.To(target)
	if err != nil {
		return 0, err
	}
	return c.Magnitude, nil
}

// Check returns an error unless q has the same dimensions as ref.
func (q Quantity) Check(ref string) error {
	si, err := q.SI()
	if err != nil {
		return err
	}
	d, err := Dimensions(ref)
	if err != nil {
		return err
	}
	if err := si.Check(d); err != nil {
		return fmt.Errorf("%w: %v", ErrIncompatibleUnits, err)
	}
	return nil
}

func (q Quantity) Mul(o Quantity) Quantity {
	return Quantity{Magnitude: q.Magnitude * o.Magnitude, Unit: join(q.Unit, "*", o.Unit)}
}

func (q Quantity) Div(o Quantity) Quantity {
	return Quantity{Magnitude: q.Magnitude / o.Magnitude, Unit: join(q.Unit, "/", o.Unit)}
}

// Inv returns 1/q.
func (q Quantity) Inv() Quantity {
	return New(1, Dimensionless).Div(q)
}

// Scale multiplies the magnitude by a dimensionless factor.
func (q Quantity) Scale(f float64) Quantity {
	return Quantity{Magnitude: q.Magnitude * f, Unit: q.Unit}
}

// Add returns q+o in q's unit.
func (q Quantity) Add(o Quantity) (Quantity, error) {
	v, err := o.In(q.Unit)
	if err != nil {
		return Quantity{}, err
	}
	return Quantity{Magnitude: q.Magnitude + v, Unit: q.Unit}, nil
}

// Sub returns q-o in q's unit.
func (q Quantity) Sub(o Quantity) (Quantity, error) {
	v, err := o.In(q.Unit)
	if err != nil {
		return Quantity{}, err
	}
	return Quantity{Magnitude: q.Magnitude - v, Unit: q.Unit}, nil
}

// ApproxEqual reports whether q and o agree to within a relative tolerance
// once expressed in the same unit.
func (q Quantity) ApproxEqual(o Quantity, rtol float64) bool {
	v, err := o.In(q.Unit)
	if err != nil {
		return false
	}
	diff := math.Abs(q.Magnitude - v)
	return diff <= rtol*math.Max(math.Abs(q.Magnitude), math.Abs(v))
}

func (q Quantity) String() string {
	if q.Unit == "" || q.Unit == Dimensionless {
		return fmt.Sprintf("%g", q.Magnitude)
	}
	return fmt.Sprintf("%g %s", q.Magnitude, q.Unit)
}

func join(a, op, b string) string {
	if isDimless(b) {
		return a
	}
	if isDimless(a) {
		if op == "*" {
			return b
		}
		return "1/" + group(b)
	}
	return group(a) + op + group(b)
}

func isDimless(u string) bool {
	s := strings.TrimSpace(u)
	return s == "" || s == "1" || s == Dimensionless
}

func group(u string) string {
	if strings.ContainsAny(u, "*/") {
		return "(" + u + ")"
	}
	return u
}
