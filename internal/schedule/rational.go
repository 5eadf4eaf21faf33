package schedule

import (
	"fmt"
	"math"
	"math/big"
	"strings"
)

// ParseTime reads a time given as a decimal ("0.1", "2.5e-2") or a fraction
// ("1/3") without going through float64, so the value stays exact.
func ParseTime(s string) (*big.Rat, error) {
	r, ok := new(big.Rat).SetString(strings.TrimSpace(s))
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrParse, s)
	}
	return r, nil
}

// ParseTimes parses every entry with ParseTime.
func ParseTimes(ss []string) ([]*big.Rat, error) {
	out := make([]*big.Rat, len(ss))
	for i, s := range ss {
		r, err := ParseTime(s)
		if err != nil {
			return nil, fmt.Errorf("time %d: %w", i, err)
		}
		out[i] = r
	}
	return out, nil
}

// FromFloat converts f into the closest fraction whose denominator does not
// exceed maxDen. The boolean reports whether that fraction differs from f once
// converted back to float64, i.e. whether information was lost.
func FromFloat(f float64, maxDen int64) (*big.Rat, bool, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, false, fmt.Errorf("%w: non-finite value %v", ErrParse, f)
	}
	exact := new(big.Rat)
	exact.SetFloat64(f)
	r := LimitDenominator(exact, maxDen)
	back, _ := r.Float64()
	return r, back != f, nil
}

// LimitDenominator returns the fraction closest to x with denominator at most
// maxDen, using the continued-fraction convergents of x. x must be non-negative.
func LimitDenominator(x *big.Rat, maxDen int64) *big.Rat {
	if maxDen < 1 {
		maxDen = 1
	}
	limit := big.NewInt(maxDen)
	if x.Denom().Cmp(limit) <= 0 {
		return new(big.Rat).Set(x)
	}

	p0, q0 := big.NewInt(0), big.NewInt(1)
	p1, q1 := big.NewInt(1), big.NewInt(0)
	n := new(big.Int).Set(x.Num())
	d := new(big.Int).Set(x.Denom())

	a, q2, tmp := new(big.Int), new(big.Int), new(big.Int)
	for {
		a.Quo(n, d)
		q2.Mul(a, q1)
		q2.Add(q2, q0)
		if q2.Cmp(limit) > 0 {
			break
		}
		// p0, q0, p1, q1 = p1, q1, p0+a*p1, q2
		tmp.Mul(a, p1)
		tmp.Add(tmp, p0)
		p0.Set(p1)
		q0.Set(q1)
		p1.Set(tmp)
		q1.Set(q2)
		// n, d = d, n-a*d
		tmp.Mul(a, d)
		tmp.Sub(n, tmp)
		n.Set(d)
		d.Set(tmp)
	}

	k := new(big.Int).Sub(limit, q0)
	k.Quo(k, q1)
	b1 := new(big.Rat).SetFrac(
		new(big.Int).Add(p0, new(big.Int).Mul(k, p1)),
		new(big.Int).Add(q0, new(big.Int).Mul(k, q1)),
	)
	b2 := new(big.Rat).SetFrac(p1, q1)

	e1 := new(big.Rat).Sub(b1, x)
	e2 := new(big.Rat).Sub(b2, x)
	if e2.Abs(e2).Cmp(e1.Abs(e1)) <= 0 {
		return b2
	}
	return b1
}

func lcm(a, b *big.Int) *big.Int {
	g := new(big.Int).GCD(nil, nil, a, b)
	out := new(big.Int).Mul(a, b)
	return out.Quo(out, g)
}
