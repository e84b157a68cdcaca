// Package scanner tokenizes Lox source text. It produces a lazy, finite,
// non-restartable sequence of token.Token values, one per call to Scan.
package scanner

import (
	"unicode"
	"unicode/utf8"

	"github.com/mna/glox/lang/token"
)

// Scanner tokenizes a single source string for the compiler to consume. A
// Scanner is single-use: once Scan returns token.EOF, further calls keep
// returning token.EOF tokens at the same position.
type Scanner struct {
	src  string
	line int

	start int // start offset of the token being scanned
	cur   int // offset of the next unread byte

	// ch is the current lookahead character, or -1 at end of input.
	ch rune
}

// Init prepares s to scan src from the beginning. It must be called before
// the first call to Scan.
func (s *Scanner) Init(src string) {
	s.src = src
	s.line = 1
	s.start = 0
	s.cur = 0
	s.advance()
}

// Scan returns the next token in the source. At the end of input it returns
// a token.EOF token; the compiler stops reading after the first one.
func (s *Scanner) Scan() token.Token {
	s.skipWhitespaceAndComments()
	s.start = s.cur - runeLen(s.ch)
	if s.ch == -1 {
		s.start = len(s.src)
	}

	startLine := s.line

	switch ch := s.ch; {
	case s.atEnd():
		return s.make(token.EOF, startLine)
	case isDigit(ch):
		return s.number(startLine)
	case isAlpha(ch):
		return s.identifier(startLine)
	case ch == '"':
		return s.string(startLine)
	}

	ch := s.ch
	s.advance()
	switch ch {
	case '(':
		return s.make(token.LPAREN, startLine)
	case ')':
		return s.make(token.RPAREN, startLine)
	case '{':
		return s.make(token.LBRACE, startLine)
	case '}':
		return s.make(token.RBRACE, startLine)
	case ';':
		return s.make(token.SEMICOLON, startLine)
	case ',':
		return s.make(token.COMMA, startLine)
	case '.':
		return s.make(token.DOT, startLine)
	case '-':
		return s.make(token.MINUS, startLine)
	case '+':
		return s.make(token.PLUS, startLine)
	case '*':
		return s.make(token.STAR, startLine)
	case '/':
		return s.make(token.SLASH, startLine)
	case '!':
		if s.match('=') {
			return s.make(token.BANG_EQ, startLine)
		}
		return s.make(token.BANG, startLine)
	case '=':
		if s.match('=') {
			return s.make(token.EQ_EQ, startLine)
		}
		return s.make(token.EQ, startLine)
	case '<':
		if s.match('=') {
			return s.make(token.LT_EQ, startLine)
		}
		return s.make(token.LT, startLine)
	case '>':
		if s.match('=') {
			return s.make(token.GT_EQ, startLine)
		}
		return s.make(token.GT, startLine)
	}

	return s.errorToken("Unexpected character.", startLine)
}

func (s *Scanner) atEnd() bool { return s.ch == -1 }

// advance reads the next rune into s.ch, updating the reading offset.
func (s *Scanner) advance() {
	if s.cur >= len(s.src) {
		s.ch = -1
		return
	}
	r, w := rune(s.src[s.cur]), 1
	if r >= utf8.RuneSelf {
		r, w = utf8.DecodeRuneInString(s.src[s.cur:])
	}
	s.cur += w
	s.ch = r
}

// peekNext returns the rune following the current one without advancing, or
// -1 past the end of input.
func (s *Scanner) peekNext() rune {
	if s.cur >= len(s.src) {
		return -1
	}
	r, w := rune(s.src[s.cur]), 1
	if r >= utf8.RuneSelf {
		r, w = utf8.DecodeRuneInString(s.src[s.cur:])
	}
	_ = w
	return r
}

// match consumes the current character if it equals want.
func (s *Scanner) match(want rune) bool {
	if s.ch != want {
		return false
	}
	s.advance()
	return true
}

func (s *Scanner) skipWhitespaceAndComments() {
	for {
		switch s.ch {
		case ' ', '\t', '\r':
			s.advance()
		case '\n':
			s.line++
			s.advance()
		case '/':
			if s.peekNext() != '/' {
				return
			}
			for s.ch != '\n' && !s.atEnd() {
				s.advance()
			}
		default:
			return
		}
	}
}

func (s *Scanner) identifier(startLine int) token.Token {
	for isAlpha(s.ch) || isDigit(s.ch) {
		s.advance()
	}
	lit := s.src[s.start : s.cur-runeLen(s.ch)]
	if s.atEnd() {
		lit = s.src[s.start:]
	}
	return token.Token{Kind: token.Lookup(lit), Lexeme: lit, Line: startLine}
}

func (s *Scanner) number(startLine int) token.Token {
	for isDigit(s.ch) {
		s.advance()
	}
	// a trailing '.' without a following digit is not consumed as part of
	// the number.
	if s.ch == '.' && isDigit(s.peekNext()) {
		s.advance()
		for isDigit(s.ch) {
			s.advance()
		}
	}
	end := s.cur - runeLen(s.ch)
	if s.atEnd() {
		end = len(s.src)
	}
	lit := s.src[s.start:end]
	return token.Token{Kind: token.NUMBER, Lexeme: lit, Line: startLine}
}

func (s *Scanner) string(startLine int) token.Token {
	s.advance() // opening quote
	for s.ch != '"' && !s.atEnd() {
		if s.ch == '\n' {
			s.line++
		}
		s.advance()
	}
	if s.atEnd() {
		return s.errorToken("Unterminated string.", startLine)
	}
	s.advance() // closing quote
	end := s.cur - runeLen(s.ch)
	if s.atEnd() {
		end = len(s.src)
	}
	return token.Token{Kind: token.STRING, Lexeme: s.src[s.start:end], Line: startLine}
}

func (s *Scanner) make(kind token.Kind, line int) token.Token {
	end := s.cur - runeLen(s.ch)
	if s.atEnd() {
		end = len(s.src)
	}
	return token.Token{Kind: kind, Lexeme: s.src[s.start:end], Line: line}
}

func (s *Scanner) errorToken(msg string, line int) token.Token {
	return token.Token{Kind: token.ILLEGAL, Lexeme: msg, Line: line}
}

func runeLen(r rune) int {
	if r == -1 {
		return 0
	}
	return utf8.RuneLen(r)
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isAlpha(r rune) bool {
	return r == '_' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') ||
		(r >= utf8.RuneSelf && unicode.IsLetter(r))
}
