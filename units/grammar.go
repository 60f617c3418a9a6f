package units

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Expression is a compound unit such as `kg/m^3` or `m/s^2`: a first factor
// followed by factors joined with `*` or `/`.
type Expression struct {
	Pos   lexer.Position
	First *Factor      `parser:"@@"`
	Rest  []*Operation `parser:"@@*"`
}

// Operation joins a factor to the expression on its left.
type Operation struct {
	Pos    lexer.Position
	Op     string  `parser:"@('*' | '/')"`
	Factor *Factor `parser:"@@"`
}

// Factor is a unit name with an optional integer exponent.
type Factor struct {
	Pos      lexer.Position
	Name     string `parser:"@Ident"`
	Exponent *int   `parser:"('^' @Int)?"`
}

// Power returns the exponent, defaulting to 1.
func (f *Factor) Power() int {
	if f.Exponent == nil {
		return 1
	}
	return *f.Exponent
}

var (
	unitLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `\s+`},
		{Name: "Int", Pattern: `[-+]?\d+`},
		{Name: "Ident", Pattern: `%?[A-Za-z_µ][A-Za-z0-9_µ]*|%`},
		{Name: "Punct", Pattern: `[*/^]`},
	})

	unitParser = participle.MustBuild[Expression](
		participle.Lexer(unitLexer),
		participle.Elide("Whitespace"),
	)
)

// ParseExpression parses a unit string into its grammar tree.
func ParseExpression(text string) (*Expression, error) {
	return unitParser.ParseString("", text)
}
