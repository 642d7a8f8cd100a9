package asm

import (
	"fmt"
	"strings"
)

// AsmError is an assembly error with its source location.
type AsmError struct {
	Message string

	// Line and Column are 1-indexed.
	Line   int
	Column int

	// Context shows the offending line and its neighbours with a ^ pointer.
	Context string
}

func (e *AsmError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("asm error at line %d, column %d: %s\n%s", e.Line, e.Column, e.Message, e.Context)
	}
	return fmt.Sprintf("asm error at line %d, column %d: %s", e.Line, e.Column, e.Message)
}

// GenerateErrorContext renders up to two lines before and after line, marking the
// error line with > and the column with ^.
func GenerateErrorContext(source string, line, column int) string {
	if source == "" || line <= 0 {
		return ""
	}
	lines := strings.Split(source, "\n")
	if line > len(lines) {
		return ""
	}
	start := max(line-3, 0)
	end := min(line+2, len(lines))
	width := len(fmt.Sprintf("%d", end))

	var buf strings.Builder
	for i := start; i < end; i++ {
		n := i + 1
		if n != line {
			fmt.Fprintf(&buf, "  %*d | %s\n", width, n, lines[i])
			continue
		}
		fmt.Fprintf(&buf, "> %*d | %s\n", width, n, lines[i])
		indent := 2 + width + 3
		if column > 0 {
			indent += column - 1
		}
		buf.WriteString(strings.Repeat(" ", indent) + "^\n")
	}
	return buf.String()
}
