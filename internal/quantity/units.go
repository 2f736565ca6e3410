package quantity

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/ctessum/unit"
)

var (
	ErrUnknownUnit       = errors.New("quantity: unknown unit")
	ErrMalformedUnit     = errors.New("quantity: malformed unit expression")
	ErrIncompatibleUnits = errors.New("quantity: incompatible units")
)

// SecondsPerYear is the length of a Julian year.
const SecondsPerYear = 365.25 * 24 * 60 * 60

// Dimensionless is the unit string of pure numbers.
const Dimensionless = "dimensionless"

// scaled is a parsed unit: multiply a magnitude by scale to get SI units
// with the given dimensions.
type scaled struct {
	scale float64
	dims  unit.Dimensions
}

var atoms = map[string]scaled{
	"m":             {1, unit.Meter},
	"km":            {1e3, unit.Meter},
	"s":             {1, unit.Second},
	"day":           {24 * 60 * 60, unit.Second},
	"yr":            {SecondsPerYear, unit.Second},
	"year":          {SecondsPerYear, unit.Second},
	"a":             {SecondsPerYear, unit.Second},
	"kg":            {1, unit.Kilogram},
	"g":             {1e-3, unit.Kilogram},
	"K":             {1, unit.Kelvin},
	"delta_degC":    {1, unit.Kelvin},
	"W":             {1, unit.Watt},
	"J":             {1, unit.Joule},
	"dimensionless": {1, unit.Dimless},
}

// powRe rewrites "m^2" into "pow(m, 2)". Go gives ^ additive precedence,
// so W/m^2 would otherwise parse as (W/m)^2.
var powRe = regexp.MustCompile(`([A-Za-z_][A-Za-z0-9_]*)\s*\^\s*(-?[0-9]+)`)

var cache sync.Map // string -> scaled

// parse resolves a unit expression such as "delta_degC/(W/m^2)".
func parse(expr string) (scaled, error) {
	if v, ok := cache.Load(expr); ok {
		return v.(scaled), nil
	}
	s := strings.TrimSpace(expr)
	if s == "" || s == "1" {
		return scaled{1, unit.Dimless}, nil
	}
	tree, err := parser.ParseExpr(powRe.ReplaceAllString(s, "pow($1, $2)"))
	if err != nil {
		return scaled{}, fmt.Errorf("%w: %q", ErrMalformedUnit, expr)
	}
	out, err := eval(tree)
	if err != nil {
		return scaled{}, fmt.Errorf("%w in %q", err, expr)
	}
	cache.Store(expr, out)
	return out, nil
}

func eval(tree ast.Expr) (scaled, error) {
	switch n := tree.(type) {
	case *ast.Ident:
		a, ok := atoms[n.Name]
		if !ok {
			return scaled{}, fmt.Errorf("%w %q", ErrUnknownUnit, n.Name)
		}
		return scaled{a.scale, combine(a.dims, nil, 1)}, nil
	case *ast.BasicLit:
		if n.Kind != token.INT && n.Kind != token.FLOAT {
			return scaled{}, ErrMalformedUnit
		}
		v, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			return scaled{}, ErrMalformedUnit
		}
		return scaled{v, unit.Dimless}, nil
	case *ast.ParenExpr:
		return eval(n.X)
	case *ast.BinaryExpr:
		x, err := eval(n.X)
		if err != nil {
			return scaled{}, err
		}
		y, err := eval(n.Y)
		if err != nil {
			return scaled{}, err
		}
		switch n.Op {
		case token.MUL:
			return scaled{x.scale * y.scale, combine(x.dims, y.dims, 1)}, nil
		case token.QUO:
			return scaled{x.scale / y.scale, combine(x.dims, y.dims, -1)}, nil
		}
		return scaled{}, ErrMalformedUnit
	case *ast.CallExpr:
		fun, ok := n.Fun.(*ast.Ident)
		if !ok || fun.Name != "pow" || len(n.Args) != 2 {
			return scaled{}, ErrMalformedUnit
		}
		base, err := eval(n.Args[0])
		if err != nil {
			return scaled{}, err
		}
		p, err := exponent(n.Args[1])
		if err != nil {
			return scaled{}, err
		}
		sign := 1
		if p < 0 {
			sign = -1
		}
		out := scaled{1, unit.Dimless}
		for i := 0; i < abs(p); i++ {
			if sign > 0 {
				out.scale *= base.scale
			} else {
				out.scale /= base.scale
			}
			out.dims = combine(out.dims, base.dims, sign)
		}
		return out, nil
	}
	return scaled{}, ErrMalformedUnit
}

func exponent(e ast.Expr) (int, error) {
	sign := 1
	if u, ok := e.(*ast.UnaryExpr); ok && u.Op == token.SUB {
		sign = -1
		e = u.X
	}
	lit, ok := e.(*ast.BasicLit)
	if !ok || lit.Kind != token.INT {
		return 0, ErrMalformedUnit
	}
	p, err := strconv.Atoi(lit.Value)
	if err != nil {
		return 0, ErrMalformedUnit
	}
	return sign * p, nil
}

// combine returns a fresh a + sign*b without touching the package-level
// dimension maps of ctessum/unit.
func combine(a, b unit.Dimensions, sign int) unit.Dimensions {
	out := make(unit.Dimensions, len(a)+len(b))
	for k, v := range a {
		out[k] += v
	}
	for k, v := range b {
		out[k] += sign * v
	}
	for k, v := range out {
		if v == 0 {
			delete(out, k)
		}
	}
	return out
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Dimensions returns the SI dimensions of a unit expression.
func Dimensions(expr string) (unit.Dimensions, error) {
	s, err := parse(expr)
	if err != nil {
		return nil, err
	}
	return s.dims, nil
}

// Compatible reports whether two unit expressions measure the same thing.
func Compatible(a, b string) bool {
	sa, err := parse(a)
	if err != nil {
		return false
	}
	sb, err := parse(b)
	if err != nil {
		return false
	}
	return sa.dims.Matches(sb.dims)
}

// Factor returns the multiplier converting magnitudes in from into to.
func Factor(from, to string) (float64, error) {
	if from == to {
		if _, err := parse(from); err != nil {
			return 0, err
		}
		return 1, nil
	}
	sf, err := parse(from)
	if err != nil {
		return 0, err
	}
	st, err := parse(to)
	if err != nil {
		return 0, err
	}
	if !sf.dims.Matches(st.dims) {
		return 0, fmt.Errorf("%w: cannot convert %q (%s) to %q (%s)",
			ErrIncompatibleUnits, from, sf.dims, to, st.dims)
	}
	return sf.scale / st.scale, nil
}
