// Package asm assembles a line-oriented text form of the script bytecode into a
// program.Program. It stands in for the external compiler in tests, conformance
// suites and the demo scripts.
//
// Syntax, one statement per line, ';' starts a comment:
//
//	.name    <ident>                     program name
//	.lvars   <n>                         script-local variable count
//	.init                                init code starts here
//	.proc    <ident> args=<n> [hook=<h>] [exported] [imported]
//	<ident>:                             label
//	push     <int>|<float>|"str"|@label|&proc|$name
//	short    <int>                       16-bit literal
//	<mnemonic>                           any opcode, case and underscores ignored
//
// @label assembles to the label's code offset, &proc to the procedure's index and
// $name to the index of name in the name pool.
package asm

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/zurustar/scriptvm/pkg/opcode"
	"github.com/zurustar/scriptvm/pkg/program"
)

// fixup is a 4-byte operand patched once all labels and procedures are known.
type fixup struct {
	at  int
	tok Token
}

type assembler struct {
	source string
	lexer  *Lexer
	cur    Token
	peek   Token

	name      string
	lvars     int
	init      int
	code      []byte
	procs     []program.Procedure
	names     []string
	nameIndex map[string]int
	labels    map[string]int
	fixups    []fixup

	errors []error
}

// Assemble assembles source. name is used when the source has no .name directive.
// All errors found are returned.
func Assemble(name, source string) (*program.Program, []error) {
	a := &assembler{
		source:    source,
		lexer:     NewLexer(source),
		name:      name,
		init:      -1,
		nameIndex: make(map[string]int),
		labels:    make(map[string]int),
	}
	a.next()
	a.next()
	for a.cur.Type != EOF {
		a.statement()
	}
	a.resolve()
	if len(a.errors) > 0 {
		return nil, a.errors
	}
	prog, err := program.New(a.name, a.code, a.procs, a.names, a.init, a.lvars)
	if err != nil {
		return nil, []error{err}
	}
	return prog, nil
}

// AssembleFile reads and assembles a UTF-8 source file.
func AssembleFile(path string) (*program.Program, []error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, []error{fmt.Errorf("failed to read %s: %w", path, err)}
	}
	return Assemble(path, string(data))
}

// MustAssemble is Assemble for sources known to be valid, such as test fixtures.
func MustAssemble(source string) *program.Program {
	prog, errs := Assemble("main", source)
	if len(errs) > 0 {
		panic(fmt.Sprintf("asm: %v", errs[0]))
	}
	return prog
}

func (a *assembler) next() {
	a.cur = a.peek
	a.peek = a.lexer.NextToken()
}

func (a *assembler) errorf(tok Token, format string, args ...any) {
	a.errors = append(a.errors, &AsmError{
		Message: fmt.Sprintf(format, args...),
		Line:    tok.Line,
		Column:  tok.Column,
		Context: GenerateErrorContext(a.source, tok.Line, tok.Column),
	})
}

// skipLine discards the rest of the current line after an error.
func (a *assembler) skipLine() {
	for a.cur.Type != NEWLINE && a.cur.Type != EOF {
		a.next()
	}
}

// endLine expects the end of the statement.
func (a *assembler) endLine() {
	switch a.cur.Type {
	case NEWLINE:
		a.next()
	case EOF:
	default:
		a.errorf(a.cur, "unexpected %s %q at end of statement", a.cur.Type, a.cur.Literal)
		a.skipLine()
		if a.cur.Type == NEWLINE {
			a.next()
		}
	}
}

func (a *assembler) statement() {
	switch a.cur.Type {
	case NEWLINE:
		a.next()
	case DIRECTIVE:
		a.directive()
	case IDENT:
		if a.peek.Type == COLON {
			a.label()
			return
		}
		a.instruction()
	case ILLEGAL:
		a.errorf(a.cur, "illegal character %q", a.cur.Literal)
		a.skipLine()
	default:
		a.errorf(a.cur, "unexpected %s %q", a.cur.Type, a.cur.Literal)
		a.skipLine()
	}
}

func (a *assembler) label() {
	tok := a.cur
	if _, dup := a.labels[tok.Literal]; dup {
		a.errorf(tok, "duplicate label %q", tok.Literal)
	}
	a.labels[tok.Literal] = len(a.code)
	a.next() // ident
	a.next() // ':'
	if a.cur.Type == NEWLINE {
		a.next()
	}
}

func (a *assembler) directive() {
	tok := a.cur
	a.next()
	switch tok.Literal {
	case "name":
		if a.cur.Type != IDENT {
			a.errorf(a.cur, ".name expects an identifier")
			a.skipLine()
			break
		}
		a.name = a.cur.Literal
		a.next()
	case "lvars":
		n, ok := a.intArg()
		if ok {
			a.lvars = n
		}
	case "init":
		if a.init >= 0 {
			a.errorf(tok, "duplicate .init")
		}
		a.init = len(a.code)
	case "proc":
		a.proc()
	default:
		a.errorf(tok, "unknown directive .%s", tok.Literal)
		a.skipLine()
	}
	a.endLine()
}

func (a *assembler) intArg() (int, bool) {
	if a.cur.Type != INT_LIT {
		a.errorf(a.cur, "expected an integer, got %s %q", a.cur.Type, a.cur.Literal)
		a.skipLine()
		return 0, false
	}
	n, err := strconv.ParseInt(a.cur.Literal, 0, 32)
	if err != nil {
		a.errorf(a.cur, "invalid integer %q", a.cur.Literal)
		a.skipLine()
		return 0, false
	}
	a.next()
	return int(n), true
}

// proc parses `.proc name args=N [hook=h] [exported] [imported]`.
func (a *assembler) proc() {
	if a.cur.Type != IDENT {
		a.errorf(a.cur, ".proc expects a procedure name")
		a.skipLine()
		return
	}
	p := program.Procedure{Name: a.cur.Literal, Offset: len(a.code), Hook: program.NoHook}
	if h, err := program.ParseHook(p.Name); err == nil && h.String() == p.Name {
		p.Hook = h
	}
	a.next()

	for a.cur.Type == IDENT {
		key := a.cur
		a.next()
		switch key.Literal {
		case "exported":
			p.Flags |= program.ProcExported
			continue
		case "imported":
			p.Flags |= program.ProcImported
			p.Offset = 0
			continue
		case "critical":
			p.Flags |= program.ProcCritical
			continue
		}
		if a.cur.Type != ASSIGN {
			a.errorf(key, "unknown procedure attribute %q", key.Literal)
			a.skipLine()
			return
		}
		a.next()
		switch key.Literal {
		case "args":
			n, ok := a.intArg()
			if !ok {
				return
			}
			p.ArgCount = n
		case "hook":
			h, err := program.ParseHook(a.cur.Literal)
			if err != nil {
				a.errorf(a.cur, "%v", err)
				a.skipLine()
				return
			}
			p.Hook = h
			a.next()
		default:
			a.errorf(key, "unknown procedure attribute %q", key.Literal)
			a.skipLine()
			return
		}
	}

	for _, other := range a.procs {
		if other.Name == p.Name {
			a.errorf(a.cur, "duplicate procedure %q", p.Name)
			return
		}
	}
	a.procs = append(a.procs, p)
}

func (a *assembler) emitOp(op opcode.Opcode) {
	a.code = binary.BigEndian.AppendUint16(a.code, uint16(op))
}

func (a *assembler) instruction() {
	tok := a.cur
	a.next()
	switch tok.Literal {
	case "push":
		a.push()
	case "short":
		n, ok := a.intArg()
		if !ok {
			return
		}
		if n < math.MinInt16 || n > math.MaxInt16 {
			a.errorf(tok, "short literal %d out of range", n)
		}
		a.emitOp(opcode.ConstShort)
		a.code = binary.BigEndian.AppendUint16(a.code, uint16(int16(n)))
	default:
		op, err := opcode.Parse(tok.Literal)
		if err != nil {
			a.errorf(tok, "%v", err)
			a.skipLine()
			return
		}
		if op.HasLiteral() {
			a.push()
			break
		}
		a.emitOp(op)
	}
	a.endLine()
}

// push emits the literal opcode matching the operand's type.
func (a *assembler) push() {
	tok := a.cur
	switch tok.Type {
	case INT_LIT:
		n, err := strconv.ParseInt(tok.Literal, 0, 64)
		if err != nil || n < math.MinInt32 || n > math.MaxUint32 {
			a.errorf(tok, "invalid integer %q", tok.Literal)
			break
		}
		a.emitOp(opcode.ConstLong)
		a.code = binary.BigEndian.AppendUint32(a.code, uint32(int32(n)))
	case FLOAT_LIT:
		f, err := strconv.ParseFloat(tok.Literal, 32)
		if err != nil {
			a.errorf(tok, "invalid float %q", tok.Literal)
			break
		}
		a.emitOp(opcode.ConstFloat)
		a.code = binary.BigEndian.AppendUint32(a.code, math.Float32bits(float32(f)))
	case STRING_LIT:
		if len(tok.Literal) > math.MaxUint16 {
			a.errorf(tok, "string literal too long (%d bytes)", len(tok.Literal))
			break
		}
		a.emitOp(opcode.ConstString)
		a.code = binary.BigEndian.AppendUint16(a.code, uint16(len(tok.Literal)))
		a.code = append(a.code, tok.Literal...)
	case LABEL_REF, PROC_REF:
		a.emitOp(opcode.ConstLong)
		a.fixups = append(a.fixups, fixup{at: len(a.code), tok: tok})
		a.code = append(a.code, 0, 0, 0, 0)
	case NAME_REF:
		a.emitOp(opcode.ConstLong)
		a.code = binary.BigEndian.AppendUint32(a.code, uint32(a.intern(tok.Literal)))
	default:
		a.errorf(tok, "push expects a literal or reference, got %s %q", tok.Type, tok.Literal)
		a.skipLine()
		return
	}
	a.next()
}

func (a *assembler) intern(name string) int {
	if i, ok := a.nameIndex[name]; ok {
		return i
	}
	i := len(a.names)
	a.names = append(a.names, name)
	a.nameIndex[name] = i
	return i
}

// resolve patches label and procedure references.
func (a *assembler) resolve() {
	for _, f := range a.fixups {
		var v int
		switch f.tok.Type {
		case LABEL_REF:
			addr, ok := a.labels[f.tok.Literal]
			if !ok {
				a.errorf(f.tok, "undefined label %q", f.tok.Literal)
				continue
			}
			v = addr
		case PROC_REF:
			v = -1
			for i, p := range a.procs {
				if p.Name == f.tok.Literal {
					v = i
					break
				}
			}
			if v < 0 {
				a.errorf(f.tok, "undefined procedure %q", f.tok.Literal)
				continue
			}
		}
		binary.BigEndian.PutUint32(a.code[f.at:], uint32(v))
	}
}
