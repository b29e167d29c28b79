// Package expr evaluates arithmetic expressions for the calculator tool.
//
// The grammar is deliberately small: decimal numbers, the binary operators
// + - * / % and **, unary signs, and parentheses. Nothing else is
// accepted, so evaluating untrusted input cannot reach anything beyond
// float64 arithmetic.
//
//	expr   = term { ("+" | "-") term }
//	term   = unary { ("*" | "/" | "%") unary }
//	unary  = ("+" | "-") unary | power
//	power  = atom [ "**" unary ]
//	atom   = number | "(" expr ")"
package expr

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

const maxDepth = 64

var (
	// ErrDivisionByZero is returned when the right operand of / or % is zero.
	ErrDivisionByZero = errors.New("division by zero")

	// ErrEmpty is returned for an expression with no tokens.
	ErrEmpty = errors.New("empty expression")

	// ErrOutOfRange is returned when the result is not a finite number.
	ErrOutOfRange = errors.New("result out of range")
)

// SyntaxError reports malformed input at a byte offset.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at position %d: %s", e.Pos, e.Msg)
}

// Eval parses and evaluates s.
func Eval(s string) (float64, error) {
	p := &parser{src: s}
	p.skipSpace()

	if p.pos == len(p.src) {
		return 0, ErrEmpty
	}

	v, err := p.expr(0)
	if err != nil {
		return 0, err
	}

	p.skipSpace()

	if p.pos != len(p.src) {
		return 0, p.errorf("unexpected %q", p.src[p.pos])
	}

	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, ErrOutOfRange
	}

	return v, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Pos: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

// peek returns the next non-space byte without consuming it, or 0 at end.
func (p *parser) peek() byte {
	p.skipSpace()

	if p.pos == len(p.src) {
		return 0
	}

	return p.src[p.pos]
}

func (p *parser) peekPow() bool {
	return p.peek() == '*' && p.pos+1 < len(p.src) && p.src[p.pos+1] == '*'
}

func (p *parser) expr(depth int) (float64, error) {
	left, err := p.term(depth)
	if err != nil {
		return 0, err
	}

	for {
		op := p.peek()
		if op != '+' && op != '-' {
			return left, nil
		}

		p.pos++

		right, err := p.term(depth)
		if err != nil {
			return 0, err
		}

		if op == '+' {
			left += right
		} else {
			left -= right
		}
	}
}

func (p *parser) term(depth int) (float64, error) {
	left, err := p.unary(depth)
	if err != nil {
		return 0, err
	}

	for {
		op := p.peek()
		if (op != '*' && op != '/' && op != '%') || p.peekPow() {
			return left, nil
		}

		p.pos++

		right, err := p.unary(depth)
		if err != nil {
			return 0, err
		}

		switch op {
		case '*':
			left *= right
		case '/':
			if right == 0 {
				return 0, ErrDivisionByZero
			}

			left /= right
		case '%':
			if right == 0 {
				return 0, ErrDivisionByZero
			}

			left = floorMod(left, right)
		}
	}
}

func (p *parser) unary(depth int) (float64, error) {
	if depth > maxDepth {
		return 0, p.errorf("expression nested too deeply")
	}

	switch p.peek() {
	case '-':
		p.pos++

		v, err := p.unary(depth + 1)

		return -v, err
	case '+':
		p.pos++

		return p.unary(depth + 1)
	}

	return p.power(depth)
}

func (p *parser) power(depth int) (float64, error) {
	base, err := p.atom(depth)
	if err != nil {
		return 0, err
	}

	if !p.peekPow() {
		return base, nil
	}

	p.pos += 2

	// Right associative: 2 ** 3 ** 2 is 2 ** 9.
	exp, err := p.unary(depth + 1)
	if err != nil {
		return 0, err
	}

	return math.Pow(base, exp), nil
}

func (p *parser) atom(depth int) (float64, error) {
	switch c := p.peek(); {
	case c == 0:
		return 0, p.errorf("unexpected end of expression")
	case c == '(':
		p.pos++

		v, err := p.expr(depth + 1)
		if err != nil {
			return 0, err
		}

		if p.peek() != ')' {
			return 0, p.errorf("missing closing parenthesis")
		}

		p.pos++

		return v, nil
	case isDigit(c) || c == '.':
		return p.number()
	default:
		return 0, p.errorf("unexpected %q", c)
	}
}

func (p *parser) number() (float64, error) {
	start := p.pos
	dots := 0

	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '.' {
			dots++
		} else if !isDigit(c) {
			break
		}

		p.pos++
	}

	lit := p.src[start:p.pos]
	if dots > 1 || lit == "." {
		p.pos = start

		return 0, p.errorf("malformed number %q", lit)
	}

	v, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		p.pos = start

		return 0, p.errorf("malformed number %q", lit)
	}

	return v, nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// floorMod returns a remainder with the sign of the divisor.
func floorMod(a, b float64) float64 {
	r := math.Mod(a, b)
	if r != 0 && (r < 0) != (b < 0) {
		r += b
	}

	return r
}
