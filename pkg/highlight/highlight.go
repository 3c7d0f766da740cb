package highlight

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"

	"github.com/elseano/mdcat/pkg/util"
)

// ErrNoHighlighter means the code has to be shown without highlighting.
var ErrNoHighlighter = errors.New("no highlighter available")

// Span is a byte range of the highlighted code and the token type chroma gave it.
type Span struct {
	Start int
	End   int
	Token chroma.TokenType
}

type Highlighter interface {
	Highlight(code, language string) ([]Span, error)
}

// Chroma highlights with chroma's lexers. When Guess is set, code without a language tag
// is run through chroma's content analysers.
type Chroma struct {
	Guess bool
}

func New(guess bool) *Chroma {
	return &Chroma{Guess: guess}
}

func (c *Chroma) lexer(code, language string) chroma.Lexer {
	language = strings.TrimSpace(language)
	if language != "" {
		return lexers.Get(language)
	}
	if c.Guess {
		return lexers.Analyse(code)
	}
	return nil
}

func (c *Chroma) Highlight(code, language string) ([]Span, error) {
	lexer := c.lexer(code, language)
	if lexer == nil {
		return nil, fmt.Errorf("%w for %q", ErrNoHighlighter, language)
	}

	util.Logger.Trace().Str("language", language).Str("lexer", lexer.Config().Name).Msg("Highlighting code")

	iterator, err := chroma.Coalesce(lexer).Tokenise(&chroma.TokeniseOptions{State: "root"}, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoHighlighter, err)
	}

	var spans []Span
	pos := 0
	for token := iterator(); token != chroma.EOF; token = iterator() {
		if pos >= len(code) {
			break
		}
		end := pos + len(token.Value)
		if end > len(code) {
			end = len(code)
		}
		if end > pos {
			spans = append(spans, Span{Start: pos, End: end, Token: token.Type})
		}
		pos = end
	}

	if pos < len(code) {
		spans = append(spans, Span{Start: pos, End: len(code), Token: chroma.Text})
	}

	return spans, nil
}
