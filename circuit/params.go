package circuit

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ParseParam evaluates an OpenQASM parameter expression: numbers, pi,
// + - * / ^, parentheses and the functions sin, cos, tan, exp, ln, sqrt.
//
// Examples: "1.5707", "pi/2", "3*pi/4", "-pi", "2pi", "pi*(1/3)", "3.14e-2"
func ParseParam(s string) (float64, error) {
	return evalParam(s, nil)
}

// evalParam is ParseParam with named values, the formal parameters of a
// gate definition. Names in vars must be lower case.
func evalParam(s string, vars map[string]float64) (float64, error) {
	p := &exprParser{src: strings.ToLower(strings.TrimSpace(s)), vars: vars}
	if p.src == "" {
		return 0, fmt.Errorf("%w: empty parameter", ErrMalformedGate)
	}
	v, err := p.sum()
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return 0, fmt.Errorf("%w: unexpected %q in parameter %q", ErrMalformedGate, p.src[p.pos:], s)
	}
	return v, nil
}

type exprParser struct {
	src  string
	pos  int
	vars map[string]float64
}

func (p *exprParser) skipSpace() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *exprParser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *exprParser) sum() (float64, error) {
	v, err := p.product()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek() {
		case '+':
			p.pos++
			r, err := p.product()
			if err != nil {
				return 0, err
			}
			v += r
		case '-':
			p.pos++
			r, err := p.product()
			if err != nil {
				return 0, err
			}
			v -= r
		default:
			return v, nil
		}
	}
}

func (p *exprParser) product() (float64, error) {
	v, err := p.unary()
	if err != nil {
		return 0, err
	}
	for {
		switch c := p.peek(); {
		case c == '*':
			p.pos++
			r, err := p.unary()
			if err != nil {
				return 0, err
			}
			v *= r
		case c == '/':
			p.pos++
			r, err := p.unary()
			if err != nil {
				return 0, err
			}
			if r == 0 {
				return 0, fmt.Errorf("%w: division by zero in %q", ErrMalformedGate, p.src)
			}
			v /= r
		case c == 'p' || c == '(':
			// implicit product: 2pi, 3(pi/4)
			r, err := p.unary()
			if err != nil {
				return 0, err
			}
			v *= r
		default:
			return v, nil
		}
	}
}

func (p *exprParser) unary() (float64, error) {
	switch p.peek() {
	case '-':
		p.pos++
		v, err := p.unary()
		return -v, err
	case '+':
		p.pos++
		return p.unary()
	}
	return p.power()
}

func (p *exprParser) power() (float64, error) {
	base, err := p.atom()
	if err != nil {
		return 0, err
	}
	if p.peek() == '^' {
		p.pos++
		exp, err := p.unary()
		if err != nil {
			return 0, err
		}
		return math.Pow(base, exp), nil
	}
	return base, nil
}

var paramFuncs = map[string]func(float64) float64{
	"sin":  math.Sin,
	"cos":  math.Cos,
	"tan":  math.Tan,
	"exp":  math.Exp,
	"ln":   math.Log,
	"sqrt": math.Sqrt,
}

func (p *exprParser) atom() (float64, error) {
	c := p.peek()
	switch {
	case c == '(':
		p.pos++
		v, err := p.sum()
		if err != nil {
			return 0, err
		}
		if p.peek() != ')' {
			return 0, fmt.Errorf("%w: missing ) in %q", ErrMalformedGate, p.src)
		}
		p.pos++
		return v, nil
	case c == '.' || unicode.IsDigit(rune(c)):
		return p.number()
	case unicode.IsLetter(rune(c)):
		start := p.pos
		for p.pos < len(p.src) && isIdentByte(p.src[p.pos]) {
			p.pos++
		}
		name := p.src[start:p.pos]
		if name == "pi" {
			return math.Pi, nil
		}
		if v, ok := p.vars[name]; ok {
			return v, nil
		}
		fn, ok := paramFuncs[name]
		if !ok {
			return 0, fmt.Errorf("%w: unknown identifier %q", ErrMalformedGate, name)
		}
		if p.peek() != '(' {
			return 0, fmt.Errorf("%w: %s needs an argument", ErrMalformedGate, name)
		}
		arg, err := p.atom()
		if err != nil {
			return 0, err
		}
		return fn(arg), nil
	}
	return 0, fmt.Errorf("%w: unexpected end of parameter %q", ErrMalformedGate, p.src)
}

func isIdentByte(c byte) bool {
	return c == '_' || unicode.IsLetter(rune(c)) || unicode.IsDigit(rune(c))
}

func (p *exprParser) number() (float64, error) {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if unicode.IsDigit(rune(c)) || c == '.' {
			p.pos++
			continue
		}
		if c == 'e' && p.pos+1 < len(p.src) && p.pos > start {
			next := p.src[p.pos+1]
			if unicode.IsDigit(rune(next)) {
				p.pos++
				continue
			}
			if (next == '+' || next == '-') && p.pos+2 < len(p.src) && unicode.IsDigit(rune(p.src[p.pos+2])) {
				p.pos += 2
				continue
			}
		}
		break
	}
	v, err := strconv.ParseFloat(p.src[start:p.pos], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad number %q", ErrMalformedGate, p.src[start:p.pos])
	}
	return v, nil
}

// FormatParam formats a parameter value, using pi notation when possible.
// Recognizes common pi fractions: pi, pi/2, pi/4, pi/3, pi/6, pi/8, 2pi, 3pi/4, etc.
func FormatParam(val float64) string {
	type piForm struct {
		value   float64
		display string
	}
	piForms := []piForm{
		{2 * math.Pi, "2*pi"},
		{math.Pi, "pi"},
		{math.Pi / 2, "pi/2"},
		{math.Pi / 3, "pi/3"},
		{math.Pi / 4, "pi/4"},
		{math.Pi / 6, "pi/6"},
		{math.Pi / 8, "pi/8"},
		{3 * math.Pi / 4, "3*pi/4"},
		{3 * math.Pi / 2, "3*pi/2"},
		{2 * math.Pi / 3, "2*pi/3"},
	}

	if val == 0 {
		return "0"
	}
	for _, pf := range piForms {
		if math.Abs(val-pf.value) < 1e-10 {
			return pf.display
		}
		if math.Abs(val+pf.value) < 1e-10 {
			return "-" + pf.display
		}
	}

	return strconv.FormatFloat(val, 'g', -1, 64)
}
