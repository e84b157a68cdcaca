package token_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/glox/lang/token"
)

func TestLookup(t *testing.T) {
	cases := []struct {
		lit  string
		want token.Kind
	}{
		{"and", token.AND},
		{"class", token.CLASS},
		{"while", token.WHILE},
		{"this", token.THIS},
		{"super", token.SUPER},
		{"notAKeyword", token.IDENT},
		{"", token.IDENT},
	}
	for _, c := range cases {
		require.Equal(t, c.want, token.Lookup(c.lit), "lit=%q", c.lit)
	}
}

func TestKindString(t *testing.T) {
	require.Equal(t, "identifier", token.IDENT.String())
	require.Equal(t, "(", token.LPAREN.String())
	require.Equal(t, "while", token.WHILE.String())
}
