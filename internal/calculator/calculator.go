// Package calculator implements a four-function pocket calculator driven by
// key presses.
package calculator

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	displayError  = "Error"
	displayInf    = "Infinity"
	displayNegInf = "-Infinity"
)

// Calculator holds the display and the pending operation.
type Calculator struct {
	display  string
	first    *float64
	operator string
	waiting  bool
}

func New() *Calculator {
	return &Calculator{display: "0"}
}

// Display returns what the calculator shows.
func (c *Calculator) Display() string { return c.display }

func (c *Calculator) faulted() bool {
	switch c.display {
	case displayError, displayInf, displayNegInf:
		return true
	}
	return false
}

// Digit enters one digit 0-9.
func (c *Calculator) Digit(d rune) {
	s := string(d)
	switch {
	case c.faulted():
		c.Clear()
		c.display = s
	case c.waiting:
		c.display = s
		c.waiting = false
	case c.display == "0":
		c.display = s
	default:
		c.display += s
	}
}

// Decimal enters a decimal point, once per operand.
func (c *Calculator) Decimal() {
	if c.faulted() {
		c.Clear()
	}
	if c.waiting {
		c.display = "0."
		c.waiting = false
		return
	}
	if !strings.Contains(c.display, ".") {
		c.display += "."
	}
}

// Operator applies any pending operation and starts a new one with op, one
// of + - * /.
func (c *Calculator) Operator(op string) {
	v, ok := c.value()
	if !ok {
		return
	}
	if c.first == nil {
		c.first = &v
	} else if c.operator != "" && !c.waiting {
		r := calculate(*c.first, v, c.operator)
		c.display = format(r)
		c.first = &r
	}
	c.waiting = true
	c.operator = op
}

// Equals completes the pending operation.
func (c *Calculator) Equals() {
	if c.operator == "" || c.first == nil {
		return
	}
	v, ok := c.value()
	if !ok {
		return
	}
	c.display = format(calculate(*c.first, v, c.operator))
	c.first = nil
	c.operator = ""
	c.waiting = false
}

// Clear resets everything.
func (c *Calculator) Clear() {
	*c = Calculator{display: "0"}
}

// Backspace removes the last entered character. An error or infinite
// display clears the calculator.
func (c *Calculator) Backspace() {
	if c.faulted() {
		c.Clear()
		return
	}
	if r := []rune(c.display); len(r) > 1 {
		c.display = string(r[:len(r)-1])
		if c.display == "-" {
			c.display = "0"
		}
		return
	}
	c.display = "0"
}

// Press applies one key: a digit, ".", an operator ("+", "-", "*", "/", and
// the "×" "÷" "−" glyphs), "=", "C" to clear or "⌫" to delete.
func (c *Calculator) Press(key string) error {
	switch key {
	case ".":
		c.Decimal()
	case "+", "-", "*", "/":
		c.Operator(key)
	case "−":
		c.Operator("-")
	case "×":
		c.Operator("*")
	case "÷":
		c.Operator("/")
	case "=":
		c.Equals()
	case "C", "AC":
		c.Clear()
	case "⌫", "CE", "DEL":
		c.Backspace()
	default:
		if len(key) == 1 && key[0] >= '0' && key[0] <= '9' {
			c.Digit(rune(key[0]))
			return nil
		}
		return fmt.Errorf("unknown key %q", key)
	}
	return nil
}

// Run presses keys in order on a fresh calculator and returns the display.
func Run(keys []string) (string, error) {
	c := New()
	for _, k := range keys {
		if err := c.Press(k); err != nil {
			return "", err
		}
	}
	return c.Display(), nil
}

func (c *Calculator) value() (float64, bool) {
	v, err := strconv.ParseFloat(c.display, 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

func calculate(first, second float64, op string) float64 {
	switch op {
	case "+":
		return first + second
	case "-":
		return first - second
	case "*":
		return first * second
	case "/":
		return first / second
	}
	return second
}

func format(v float64) string {
	switch {
	case math.IsNaN(v):
		return displayError
	case math.IsInf(v, 1):
		return displayInf
	case math.IsInf(v, -1):
		return displayNegInf
	case math.Abs(v) >= 1e21:
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
