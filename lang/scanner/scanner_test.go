package scanner_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/glox/lang/scanner"
	"github.com/mna/glox/lang/token"
)

func scanAll(t *testing.T, src string) []token.Token {
	t.Helper()
	var s scanner.Scanner
	s.Init(src)
	var toks []token.Token
	for {
		tok := s.Scan()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			return toks
		}
	}
}

func TestScanPunctuationAndOperators(t *testing.T) {
	toks := scanAll(t, "(){},.-+;*!= == <= >= < > =")
	kinds := make([]token.Kind, len(toks))
	for i, tok := range toks {
		kinds[i] = tok.Kind
	}
	require.Equal(t, []token.Kind{
		token.LPAREN, token.RPAREN, token.LBRACE, token.RBRACE, token.COMMA,
		token.DOT, token.MINUS, token.PLUS, token.SEMICOLON, token.STAR,
		token.BANG_EQ, token.EQ_EQ, token.LT_EQ, token.GT_EQ, token.LT,
		token.GT, token.EQ, token.EOF,
	}, kinds)
}

func TestScanNumber(t *testing.T) {
	toks := scanAll(t, "123 45.67 89.")
	require.Equal(t, token.NUMBER, toks[0].Kind)
	require.Equal(t, "123", toks[0].Lexeme)
	require.Equal(t, token.NUMBER, toks[1].Kind)
	require.Equal(t, "45.67", toks[1].Lexeme)
	// trailing '.' without digits is not consumed as part of the number
	require.Equal(t, token.NUMBER, toks[2].Kind)
	require.Equal(t, "89", toks[2].Lexeme)
	require.Equal(t, token.DOT, toks[3].Kind)
}

func TestScanString(t *testing.T) {
	toks := scanAll(t, `"hello world"`)
	require.Equal(t, token.STRING, toks[0].Kind)
	require.Equal(t, `"hello world"`, toks[0].Lexeme)
}

func TestScanUnterminatedString(t *testing.T) {
	toks := scanAll(t, `"hello`)
	require.Equal(t, token.ILLEGAL, toks[0].Kind)
	require.Equal(t, "Unterminated string.", toks[0].Lexeme)
}

func TestScanMultilineString(t *testing.T) {
	toks := scanAll(t, "\"line one\nline two\"")
	require.Equal(t, token.STRING, toks[0].Kind)
}

func TestScanIdentifiersAndKeywords(t *testing.T) {
	toks := scanAll(t, "orchid or class classy")
	require.Equal(t, token.IDENT, toks[0].Kind)
	require.Equal(t, token.OR, toks[1].Kind)
	require.Equal(t, token.CLASS, toks[2].Kind)
	require.Equal(t, token.IDENT, toks[3].Kind)
}

func TestScanSkipsCommentsAndWhitespace(t *testing.T) {
	toks := scanAll(t, "  // a comment\n\tvar x = 1 // trailing\n")
	require.Equal(t, token.VAR, toks[0].Kind)
	require.Equal(t, token.IDENT, toks[1].Kind)
	require.Equal(t, token.EQ, toks[2].Kind)
	require.Equal(t, token.NUMBER, toks[3].Kind)
	require.Equal(t, token.EOF, toks[4].Kind)
}

func TestScanLineTracking(t *testing.T) {
	toks := scanAll(t, "var a = 1;\nvar b = 2;")
	require.Equal(t, 1, toks[0].Line)
	// "var" on line 2
	var secondVarLine int
	seen := 0
	for _, tok := range toks {
		if tok.Kind == token.VAR {
			seen++
			if seen == 2 {
				secondVarLine = tok.Line
			}
		}
	}
	require.Equal(t, 2, secondVarLine)
}

func TestScanEofIsSticky(t *testing.T) {
	var s scanner.Scanner
	s.Init("")
	require.Equal(t, token.EOF, s.Scan().Kind)
	require.Equal(t, token.EOF, s.Scan().Kind)
}
