package asm

type TokenType string

type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Column  int
}

const (
	ILLEGAL = "ILLEGAL"
	EOF     = "EOF"
	NEWLINE = "NEWLINE"

	// Identifiers + Literals
	IDENT      = "IDENT"     // push, talk_p_proc
	DIRECTIVE  = "DIRECTIVE" // .proc
	INT_LIT    = "INT"       // 123, -4, 0x1f
	FLOAT_LIT  = "FLOAT"     // 1.5
	STRING_LIT = "STRING"    // "abc"

	// Operand references
	LABEL_REF = "LABEL_REF" // @loop
	PROC_REF  = "PROC_REF"  // &talk_p_proc
	NAME_REF  = "NAME_REF"  // $counter

	// Delimiters
	COLON  = ":"
	ASSIGN = "="
)
