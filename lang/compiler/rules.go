package compiler

import "github.com/mna/glox/lang/token"

// Precedence orders the binding strength of infix operators, from loosest
// to tightest.
type Precedence int

//nolint:revive
const (
	PrecNone       Precedence = iota
	PrecAssignment            // =
	PrecOr                    // or
	PrecAnd                   // and
	PrecEquality              // == !=
	PrecComparison            // < > <= >=
	PrecTerm                  // + -
	PrecFactor                // * /
	PrecUnary                 // ! -
	PrecCall                  // . ()
	PrecPrimary
)

type parseFn func(c *Compiler, canAssign bool)

type parseRule struct {
	prefix parseFn
	infix  parseFn
	prec   Precedence
}

// rules is the fixed Pratt table, keyed by token kind. parsePrecedence
// invokes the prefix action of the current token, then loops invoking the
// infix action of each following token whose rule precedence is at least
// as high as the requested minimum.
var rules = map[token.Kind]parseRule{
	token.LPAREN:    {(*Compiler).grouping, (*Compiler).call, PrecCall},
	token.DOT:       {nil, (*Compiler).dot, PrecCall},
	token.MINUS:     {(*Compiler).unary, (*Compiler).binary, PrecTerm},
	token.PLUS:      {nil, (*Compiler).binary, PrecTerm},
	token.SLASH:     {nil, (*Compiler).binary, PrecFactor},
	token.STAR:      {nil, (*Compiler).binary, PrecFactor},
	token.BANG:      {(*Compiler).unary, nil, PrecNone},
	token.BANG_EQ:   {nil, (*Compiler).binary, PrecEquality},
	token.EQ_EQ:     {nil, (*Compiler).binary, PrecEquality},
	token.GT:        {nil, (*Compiler).binary, PrecComparison},
	token.GT_EQ:     {nil, (*Compiler).binary, PrecComparison},
	token.LT:        {nil, (*Compiler).binary, PrecComparison},
	token.LT_EQ:     {nil, (*Compiler).binary, PrecComparison},
	token.IDENT:     {(*Compiler).variable, nil, PrecNone},
	token.STRING:    {(*Compiler).string_, nil, PrecNone},
	token.NUMBER:    {(*Compiler).number, nil, PrecNone},
	token.AND:       {nil, (*Compiler).and_, PrecAnd},
	token.OR:        {nil, (*Compiler).or_, PrecOr},
	token.FALSE:     {(*Compiler).literal, nil, PrecNone},
	token.TRUE:      {(*Compiler).literal, nil, PrecNone},
	token.NIL:       {(*Compiler).literal, nil, PrecNone},
	token.THIS:      {(*Compiler).this_, nil, PrecNone},
	token.SUPER:     {(*Compiler).super_, nil, PrecNone},
}

func getRule(kind token.Kind) parseRule {
	return rules[kind] // zero value {nil, nil, PrecNone} for anything not listed
}
