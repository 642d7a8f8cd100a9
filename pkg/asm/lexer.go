package asm

import (
	"strings"
)

// Lexer tokenizes assembly source. Line breaks are significant and come out as
// NEWLINE tokens.
type Lexer struct {
	input        string
	position     int  // current position in input
	readPosition int  // current reading position (after current char)
	ch           byte // current char
	line         int  // current line number
	column       int  // current column number
}

// NewLexer creates a new Lexer.
func NewLexer(input string) *Lexer {
	l := &Lexer{
		input:  input,
		line:   1,
		column: 0,
	}
	l.readChar()
	return l
}

// NextToken returns the next token.
func (l *Lexer) NextToken() Token {
	var tok Token

	l.skipWhitespace()
	if l.ch == ';' {
		l.skipComment()
	}

	tok.Line = l.line
	tok.Column = l.column

	switch l.ch {
	case '\n':
		tok = Token{Type: NEWLINE, Literal: "\\n", Line: l.line, Column: l.column}
		l.readChar()
		return tok
	case ':':
		tok = l.newToken(COLON, l.ch)
	case '=':
		tok = l.newToken(ASSIGN, l.ch)
	case '"':
		lit, ok := l.readString()
		if !ok {
			tok.Type = ILLEGAL
			tok.Literal = "unterminated string"
			return tok
		}
		tok.Type = STRING_LIT
		tok.Literal = lit
	case '.':
		if isLetter(l.peekChar()) {
			l.readChar()
			tok.Type = DIRECTIVE
			tok.Literal = l.readIdentifier()
			return tok
		}
		tok = l.newToken(ILLEGAL, l.ch)
	case '@', '&', '$':
		ref := map[byte]TokenType{'@': LABEL_REF, '&': PROC_REF, '$': NAME_REF}[l.ch]
		if !isLetter(l.peekChar()) {
			tok = l.newToken(ILLEGAL, l.ch)
			break
		}
		l.readChar()
		tok.Type = ref
		tok.Literal = l.readIdentifier()
		return tok
	case '-':
		if isDigit(l.peekChar()) {
			return l.readNumber(tok.Line, tok.Column)
		}
		tok = l.newToken(ILLEGAL, l.ch)
	case 0:
		tok.Literal = ""
		tok.Type = EOF
		return tok
	default:
		if isLetter(l.ch) {
			tok.Type = IDENT
			tok.Literal = l.readIdentifier()
			return tok
		} else if isDigit(l.ch) {
			return l.readNumber(tok.Line, tok.Column)
		}
		tok = l.newToken(ILLEGAL, l.ch)
	}

	l.readChar()
	return tok
}

// readChar reads the next character.
func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}
	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
	l.column++
}

// peekChar returns the next character without advancing.
func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

func (l *Lexer) readIdentifier() string {
	position := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

// readNumber reads a number (integer, float, or hexadecimal), with an optional
// leading minus.
func (l *Lexer) readNumber(line, column int) Token {
	position := l.position
	if l.ch == '-' {
		l.readChar()
	}

	if l.ch == '0' && (l.peekChar() == 'x' || l.peekChar() == 'X') {
		l.readChar() // consume '0'
		l.readChar() // consume 'x' or 'X'
		for isHexDigit(l.ch) {
			l.readChar()
		}
		return Token{Type: INT_LIT, Literal: l.input[position:l.position], Line: line, Column: column}
	}

	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar() // consume '.'
		for isDigit(l.ch) {
			l.readChar()
		}
		return Token{Type: FLOAT_LIT, Literal: l.input[position:l.position], Line: line, Column: column}
	}
	return Token{Type: INT_LIT, Literal: l.input[position:l.position], Line: line, Column: column}
}

// readString reads a double-quoted string. \" \\ \n and \t are unescaped.
func (l *Lexer) readString() (string, bool) {
	var sb strings.Builder
	for {
		l.readChar()
		switch l.ch {
		case 0, '\n':
			return sb.String(), false
		case '"':
			return sb.String(), true
		case '\\':
			l.readChar()
			switch l.ch {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 0:
				return sb.String(), false
			default:
				sb.WriteByte(l.ch)
			}
		default:
			sb.WriteByte(l.ch)
		}
	}
}

// skipComment skips a ';' comment up to, not including, the line break.
func (l *Lexer) skipComment() {
	for l.ch != '\n' && l.ch != 0 {
		l.readChar()
	}
}

// skipWhitespace skips blanks but not line breaks.
func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' {
		l.readChar()
	}
}

func (l *Lexer) newToken(tokenType TokenType, ch byte) Token {
	return Token{Type: tokenType, Literal: string(ch), Line: l.line, Column: l.column}
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func isHexDigit(ch byte) bool {
	return ('0' <= ch && ch <= '9') || ('a' <= ch && ch <= 'f') || ('A' <= ch && ch <= 'F')
}
