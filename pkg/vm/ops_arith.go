package vm

import (
	"math"
)

// popOperands pops the right then the left operand of a binary operator.
func (c *Context) popOperands() (left, right Value, err error) {
	vals, err := c.PopN(2)
	if err != nil {
		return Value{}, Value{}, err
	}
	return vals[0], vals[1], nil
}

func arith(operator string) Handler {
	return func(c *Context) (Status, error) {
		left, right, err := c.popOperands()
		if err != nil {
			return Halt, err
		}
		result, err := executeArithmeticOp(operator, left, right)
		if err != nil {
			return Halt, err
		}
		c.Push(result)
		return Continue, nil
	}
}

// executeArithmeticOp applies operator with numeric promotion: any float operand
// makes the operation float. "+" concatenates when either side is a string.
func executeArithmeticOp(operator string, left, right Value) (Value, error) {
	if operator == "+" && (left.Kind == KindString || right.Kind == KindString) {
		return String(left.String() + right.String()), nil
	}
	if !left.IsNumeric() {
		return Value{}, NewBadOperandError("number", left)
	}
	if !right.IsNumeric() {
		return Value{}, NewBadOperandError("number", right)
	}

	if left.Kind == KindFloat || right.Kind == KindFloat {
		l, _ := left.AsFloat()
		r, _ := right.AsFloat()
		switch operator {
		case "+":
			return Float(l + r), nil
		case "-":
			return Float(l - r), nil
		case "*":
			return Float(l * r), nil
		case "/":
			if r == 0 {
				return Value{}, NewDivisionByZeroError()
			}
			return Float(l / r), nil
		case "%":
			if r == 0 {
				return Value{}, NewDivisionByZeroError()
			}
			return Float(float32(math.Mod(float64(l), float64(r)))), nil
		}
		return Value{}, newError(ErrorBadOperandType, "unknown arithmetic operator %q", operator)
	}

	l, _ := left.AsInt()
	r, _ := right.AsInt()
	switch operator {
	case "+":
		return Int(l + r), nil
	case "-":
		return Int(l - r), nil
	case "*":
		return Int(l * r), nil
	case "/":
		if r == 0 {
			return Value{}, NewDivisionByZeroError()
		}
		if l == math.MinInt32 && r == -1 {
			return Int(l), nil
		}
		return Int(l / r), nil
	case "%":
		if r == 0 {
			return Value{}, NewDivisionByZeroError()
		}
		if r == -1 {
			return Int(0), nil
		}
		return Int(l % r), nil
	}
	return Value{}, newError(ErrorBadOperandType, "unknown arithmetic operator %q", operator)
}

func compare(operator string) Handler {
	return func(c *Context) (Status, error) {
		left, right, err := c.popOperands()
		if err != nil {
			return Halt, err
		}
		result, err := executeComparisonOp(operator, left, right)
		if err != nil {
			return Halt, err
		}
		c.Push(Bool(result))
		return Continue, nil
	}
}

// executeComparisonOp compares strings lexically when either side is a string,
// numbers with promotion otherwise.
func executeComparisonOp(operator string, left, right Value) (bool, error) {
	if left.Kind == KindString || right.Kind == KindString {
		l, r := left.String(), right.String()
		switch operator {
		case "==":
			return l == r, nil
		case "!=":
			return l != r, nil
		case "<":
			return l < r, nil
		case "<=":
			return l <= r, nil
		case ">":
			return l > r, nil
		case ">=":
			return l >= r, nil
		}
		return false, newError(ErrorBadOperandType, "unknown comparison operator %q", operator)
	}

	if left.Kind == KindFloat || right.Kind == KindFloat {
		l, ok := left.AsFloat()
		if !ok {
			return false, NewBadOperandError("number", left)
		}
		r, ok := right.AsFloat()
		if !ok {
			return false, NewBadOperandError("number", right)
		}
		switch operator {
		case "==":
			return l == r, nil
		case "!=":
			return l != r, nil
		case "<":
			return l < r, nil
		case "<=":
			return l <= r, nil
		case ">":
			return l > r, nil
		case ">=":
			return l >= r, nil
		}
		return false, newError(ErrorBadOperandType, "unknown comparison operator %q", operator)
	}

	l, ok := left.AsInt()
	if !ok {
		return false, NewBadOperandError("number", left)
	}
	r, ok := right.AsInt()
	if !ok {
		return false, NewBadOperandError("number", right)
	}
	switch operator {
	case "==":
		return l == r, nil
	case "!=":
		return l != r, nil
	case "<":
		return l < r, nil
	case "<=":
		return l <= r, nil
	case ">":
		return l > r, nil
	case ">=":
		return l >= r, nil
	}
	return false, newError(ErrorBadOperandType, "unknown comparison operator %q", operator)
}

func logic(operator string) Handler {
	return func(c *Context) (Status, error) {
		left, right, err := c.popOperands()
		if err != nil {
			return Halt, err
		}
		switch operator {
		case "&&":
			c.Push(Bool(left.Truthy() && right.Truthy()))
		case "||":
			c.Push(Bool(left.Truthy() || right.Truthy()))
		default:
			return Halt, newError(ErrorBadOperandType, "unknown logical operator %q", operator)
		}
		return Continue, nil
	}
}

func bitwise(operator string) Handler {
	return func(c *Context) (Status, error) {
		left, right, err := c.popOperands()
		if err != nil {
			return Halt, err
		}
		l, err := asInt(left)
		if err != nil {
			return Halt, err
		}
		r, err := asInt(right)
		if err != nil {
			return Halt, err
		}
		switch operator {
		case "&":
			c.Push(Int(l & r))
		case "|":
			c.Push(Int(l | r))
		case "^":
			c.Push(Int(l ^ r))
		default:
			return Halt, newError(ErrorBadOperandType, "unknown bitwise operator %q", operator)
		}
		return Continue, nil
	}
}

func bwnot(c *Context) (Status, error) {
	v, err := c.PopInt()
	if err != nil {
		return Halt, err
	}
	c.Push(Int(^v))
	return Continue, nil
}

func not(c *Context) (Status, error) {
	v, err := c.Pop()
	if err != nil {
		return Halt, err
	}
	c.Push(Bool(!v.Truthy()))
	return Continue, nil
}

func negate(c *Context) (Status, error) {
	v, err := c.Pop()
	if err != nil {
		return Halt, err
	}
	switch v.Kind {
	case KindInt:
		c.Push(Int(-v.Int))
	case KindFloat:
		c.Push(Float(-v.Float))
	default:
		return Halt, NewBadOperandError("number", v)
	}
	return Continue, nil
}

func floor(c *Context) (Status, error) {
	v, err := c.Pop()
	if err != nil {
		return Halt, err
	}
	switch v.Kind {
	case KindInt:
		c.Push(v)
	case KindFloat:
		c.Push(Int(int32(math.Floor(float64(v.Float)))))
	default:
		return Halt, NewBadOperandError("number", v)
	}
	return Continue, nil
}
