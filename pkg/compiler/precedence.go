package compiler

import "github.com/chazu/kozi/pkg/compiler/lexer"

// Precedence levels, increasing, per spec.md §4.3.
type Precedence int

const (
	PrecNone Precedence = iota
	PrecAssignment
	PrecOr
	PrecAnd
	PrecEquality
	PrecComparison
	PrecTerm
	PrecFactor
	PrecUnary
	PrecCall
	PrecPrimary
)

type parseFn func(c *Compiler, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence Precedence
}

var rules map[lexer.Kind]parseRule

func init() {
	rules = map[lexer.Kind]parseRule{
		lexer.KindLeftParen:     {prefix: parseGrouping},
		lexer.KindMinus:         {prefix: parseUnary, infix: parseBinary, precedence: PrecTerm},
		lexer.KindPlus:          {infix: parseBinary, precedence: PrecTerm},
		lexer.KindSlash:         {infix: parseBinary, precedence: PrecFactor},
		lexer.KindStar:          {infix: parseBinary, precedence: PrecFactor},
		lexer.KindBang:          {prefix: parseUnary},
		lexer.KindBangEqual:     {infix: parseBinary, precedence: PrecEquality},
		lexer.KindEqualEqual:    {infix: parseBinary, precedence: PrecEquality},
		lexer.KindGreater:       {infix: parseBinary, precedence: PrecComparison},
		lexer.KindGreaterEqual:  {infix: parseBinary, precedence: PrecComparison},
		lexer.KindLess:          {infix: parseBinary, precedence: PrecComparison},
		lexer.KindLessEqual:     {infix: parseBinary, precedence: PrecComparison},
		lexer.KindIdentifier:    {prefix: parseVariableExpr},
		lexer.KindString:        {prefix: parseString},
		lexer.KindNumber:        {prefix: parseNumber},
		lexer.KindFalse:         {prefix: parseLiteral},
		lexer.KindNil:           {prefix: parseLiteral},
		lexer.KindTrue:          {prefix: parseLiteral},
	}
}

func getRule(kind lexer.Kind) parseRule {
	return rules[kind]
}
