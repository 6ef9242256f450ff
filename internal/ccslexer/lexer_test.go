package ccslexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func typesOf(toks []Token) []TokenType {
	out := make([]TokenType, len(toks))
	for i, t := range toks {
		out[i] = t.Type
	}
	return out
}

func TestTokenizeIdentifiersAndKeyword(t *testing.T) {
	toks, err := Tokenize("t.ccs", "P when true")
	assert.NoError(t, err)
	assert.Equal(t, []TokenType{IDENT, WHEN, IDENT, EOF}, typesOf(toks))
	assert.Equal(t, "P", toks[0].Lexeme)
	assert.Equal(t, "when", toks[1].Lexeme)
}

func TestTokenizeIntegers(t *testing.T) {
	toks, err := Tokenize("t.ccs", "42 0 7")
	assert.NoError(t, err)
	assert.Equal(t, []TokenType{INT, INT, INT, EOF}, typesOf(toks))
	assert.Equal(t, "42", toks[0].Lexeme)
}

func TestTokenizeMultiCharOperators(t *testing.T) {
	toks, err := Tokenize("t.ccs", ":= || && == != <= >=")
	assert.NoError(t, err)
	assert.Equal(t, []TokenType{COLONEQ, OROR, ANDAND, EQEQ, NEQ, LE, GE, EOF}, typesOf(toks))
}

func TestTokenizeSingleCharOperatorsDoNotSwallowFollowers(t *testing.T) {
	toks, err := Tokenize("t.ccs", "a!b?c|d")
	assert.NoError(t, err)
	assert.Equal(t, []TokenType{IDENT, BANG, IDENT, QUESTION, IDENT, PIPE, IDENT, EOF}, typesOf(toks))
}

func TestTokenizeCommentsAndWhitespaceAreSkipped(t *testing.T) {
	toks, err := Tokenize("t.ccs", "a # a trailing comment\n\t  b")
	assert.NoError(t, err)
	assert.Equal(t, []TokenType{IDENT, IDENT, EOF}, typesOf(toks))
}

func TestTokenizePositionsAreOneBased(t *testing.T) {
	toks, err := Tokenize("t.ccs", "a\nb")
	assert.NoError(t, err)
	assert.Equal(t, 1, toks[0].Position.Line)
	assert.Equal(t, 2, toks[1].Position.Line)
}

func TestTokenizeRestrictionSyntax(t *testing.T) {
	toks, err := Tokenize("t.ccs", `P\{a,*b}`)
	assert.NoError(t, err)
	assert.Equal(t, []TokenType{IDENT, BACKSLASH, LBRACE, IDENT, COMMA, STAR, IDENT, RBRACE, EOF}, typesOf(toks))
}

func TestTokenizeEndsWithEOF(t *testing.T) {
	toks, err := Tokenize("t.ccs", "")
	assert.NoError(t, err)
	assert.Len(t, toks, 1)
	assert.Equal(t, EOF, toks[0].Type)
}
