package manifest

import (
	"fmt"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// offerLexer tokenizes the compact offer form
var offerLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Arrow", Pattern: `->`},
	{Name: "String", Pattern: `"(?:\\.|[^"])*"|'(?:\\.|[^'])*'`},
	{Name: "Name", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*(?:[./:][a-zA-Z_][a-zA-Z0-9_]*)*`},
})

type compactOffer struct {
	From    string `parser:"@Name"`
	To      string `parser:"Arrow @Name"`
	Factory string `parser:"'via' @Name"`
	When    string `parser:"( 'when' @String )?"`
}

var offerParser = participle.MustBuild[compactOffer](
	participle.Lexer(offerLexer),
	participle.Elide("Whitespace"),
	participle.Unquote("String"),
)

// ParseOffer parses "FROM -> TO via CONVERTER [when 'GUARD']"
func ParseOffer(s string) (*Offer, error) {
	parsed, err := offerParser.ParseString("", s)
	if err != nil {
		return nil, fmt.Errorf("invalid offer %q: %w", s, err)
	}
	return &Offer{
		From:    parsed.From,
		To:      parsed.To,
		Factory: parsed.Factory,
		When:    parsed.When,
	}, nil
}
