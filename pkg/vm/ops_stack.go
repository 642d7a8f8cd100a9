package vm

import (
	"encoding/binary"
	"math"
	"strings"
)

func noop(c *Context) (Status, error) {
	return Continue, nil
}

// critical marks the start or end of a critical section. Execution is already
// exclusive, so there is nothing to lock.
func critical(c *Context) (Status, error) {
	c.Log.Debug("Critical section", "opcode", c.Op.String())
	return Continue, nil
}

func constShort(c *Context) (Status, error) {
	b, err := readLiteral(c.State, 2)
	if err != nil {
		return Halt, err
	}
	c.Push(Int(int32(int16(binary.BigEndian.Uint16(b)))))
	return Continue, nil
}

func constLong(c *Context) (Status, error) {
	b, err := readLiteral(c.State, 4)
	if err != nil {
		return Halt, err
	}
	c.Push(Int(int32(binary.BigEndian.Uint32(b))))
	return Continue, nil
}

func constFloat(c *Context) (Status, error) {
	b, err := readLiteral(c.State, 4)
	if err != nil {
		return Halt, err
	}
	c.Push(Float(math.Float32frombits(binary.BigEndian.Uint32(b))))
	return Continue, nil
}

// constString reads a 2-byte length followed by the string bytes.
func constString(c *Context) (Status, error) {
	hdr, err := readLiteral(c.State, 2)
	if err != nil {
		return Halt, err
	}
	b, err := readLiteral(c.State, int(binary.BigEndian.Uint16(hdr)))
	if err != nil {
		return Halt, err
	}
	c.Push(String(string(b)))
	return Continue, nil
}

func pop(c *Context) (Status, error) {
	_, err := c.Pop()
	return Continue, err
}

func dup(c *Context) (Status, error) {
	v, err := c.State.Top()
	if err != nil {
		return Halt, err
	}
	c.Push(v)
	return Continue, nil
}

func swap(c *Context) (Status, error) {
	vals, err := c.PopN(2)
	if err != nil {
		return Halt, err
	}
	c.Push(vals[1])
	c.Push(vals[0])
	return Continue, nil
}

// dump logs the data stack, bottom first.
func dump(c *Context) (Status, error) {
	parts := make([]string, len(c.State.Stack))
	for i, v := range c.State.Stack {
		parts[i] = v.GoString()
	}
	c.Log.Info("Stack dump", "pc", c.State.PC, "frames", len(c.State.Frames), "stack", "["+strings.Join(parts, " ")+"]")
	return Continue, nil
}

func popFlags(c *Context) (Status, error) {
	flags, err := c.PopInt()
	if err != nil {
		return Halt, err
	}
	c.State.Flags = flags
	return Continue, nil
}
