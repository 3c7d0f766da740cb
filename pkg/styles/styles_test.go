package styles

import (
	"testing"

	"github.com/alecthomas/chroma/v2"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/elseano/mdcat/pkg/terminal"
)

const testTheme = `
name: test
classes:
  h1: "#ff8700 bg:#000080 bold"
  link: "39"
  strikethrough: "strike"
  emph: "italic"
  code: "#c0c0c0"
`

func caps(depth terminal.ColorDepth) terminal.Capabilities {
	return terminal.Capabilities{Name: "test", ColorDepth: depth, Strikethrough: true, Italic: true, Width: 80}
}

func loadTestTheme(t *testing.T) *Theme {
	theme, err := ParseTheme([]byte(testTheme))
	require.NoError(t, err)
	return theme
}

func TestResolveTrueColor(t *testing.T) {
	style := Resolve(Heading1, loadTestTheme(t), caps(terminal.TrueColor))

	assert.Equal(t, termenv.RGBColor("#ff8700"), style.Fg)
	assert.Equal(t, termenv.RGBColor("#000080"), style.Bg)
	assert.True(t, style.Bold)
	assert.Regexp(t, `^\x1b\[1;38;2;\d+;\d+;\d+;48;2;\d+;\d+;\d+m$`, style.SGR())
}

func TestResolveQuantisesTo256(t *testing.T) {
	style := Resolve(Heading1, loadTestTheme(t), caps(terminal.ANSI256))

	assert.IsType(t, termenv.ANSI256Color(0), style.Fg)
	assert.Equal(t, termenv.ANSI256Color(208), style.Fg)
}

func TestResolveQuantisesTo16(t *testing.T) {
	style := Resolve(Link, loadTestTheme(t), caps(terminal.ANSI16))

	assert.IsType(t, termenv.ANSIColor(0), style.Fg)
}

func TestMonoFallsBackToAttributes(t *testing.T) {
	theme := loadTestTheme(t)

	heading := Resolve(Heading1, theme, caps(terminal.Mono))
	assert.Nil(t, heading.Fg)
	assert.Nil(t, heading.Bg)
	assert.True(t, heading.Bold)

	link := Resolve(Link, theme, caps(terminal.Mono))
	assert.Nil(t, link.Fg)
	assert.True(t, link.Underline)
	assert.Equal(t, "\x1b[4m", link.SGR())

	code := Resolve(CodeSpan, theme, caps(terminal.Mono))
	assert.True(t, code.IsZero())
}

func TestUnsupportedAttributesAreDropped(t *testing.T) {
	theme := loadTestTheme(t)
	limited := caps(terminal.ANSI256)
	limited.Strikethrough = false
	limited.Italic = false

	assert.True(t, Resolve(Strikethrough, theme, limited).IsZero())
	assert.True(t, Resolve(Emphasis, theme, limited).IsZero())
	assert.True(t, Resolve(Strikethrough, theme, caps(terminal.ANSI256)).Strikethrough)
}

func TestPlainHasNoStyle(t *testing.T) {
	plain := caps(terminal.TrueColor)
	plain.Plain = true

	assert.True(t, Resolve(Heading1, loadTestTheme(t), plain).IsZero())
}

func TestCombineInnermostColourWins(t *testing.T) {
	outer := Style{Fg: termenv.ANSIColor(1), Bold: true}
	inner := Style{Fg: termenv.ANSIColor(4), Italic: true}

	combined := outer.Combine(inner)
	assert.Equal(t, termenv.ANSIColor(4), combined.Fg)
	assert.True(t, combined.Bold)
	assert.True(t, combined.Italic)

	assert.Equal(t, termenv.ANSIColor(1), outer.Combine(Style{Underline: true}).Fg)
}

func TestStackCombinesOutermostFirst(t *testing.T) {
	r := NewResolver(loadTestTheme(t), caps(terminal.TrueColor))

	style := r.Stack(Heading1, Emphasis, Link)
	assert.True(t, style.Bold)
	assert.True(t, style.Italic)
	assert.Equal(t, termenv.ANSI256Color(39), style.Fg)
	assert.Equal(t, termenv.RGBColor("#000080"), style.Bg)
}

func TestWrap(t *testing.T) {
	assert.Equal(t, "plain", Style{}.Wrap("plain"))
	assert.Equal(t, "\x1b[1mbold\x1b[0m", Style{Bold: true}.Wrap("bold"))
}

func TestBuiltinThemes(t *testing.T) {
	names := Names()
	assert.Contains(t, names, "dark")
	assert.Contains(t, names, "light")

	for _, name := range names {
		theme, err := Builtin(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, theme.Name)
	}

	dark, err := Builtin("dark")
	require.NoError(t, err)
	assert.NotEmpty(t, dark.Spec(Heading1).Fg)
	assert.NotEmpty(t, dark.Spec(TokenKeyword).Fg)

	_, err = Builtin("nope")
	assert.Error(t, err)
}

func TestThemeExtendsBuiltin(t *testing.T) {
	theme, err := ParseTheme([]byte("extends: dark\nclasses:\n  h1: \"#ffffff\"\n"))
	require.NoError(t, err)

	dark, _ := Builtin("dark")
	assert.Equal(t, "#ffffff", theme.Spec(Heading1).Fg)
	assert.Equal(t, dark.Spec(Heading2), theme.Spec(Heading2))
}

func TestThemeRejectsUnknownClass(t *testing.T) {
	_, err := ParseTheme([]byte("classes:\n  sparkle: bold\n"))
	assert.Error(t, err)

	_, err = ParseSpec("bold #zz")
	assert.Error(t, err)
}

func TestTokenClass(t *testing.T) {
	assert.Equal(t, TokenKeyword, TokenClass(chroma.Keyword))
	assert.Equal(t, TokenType, TokenClass(chroma.KeywordType))
	assert.Equal(t, TokenString, TokenClass(chroma.LiteralStringDouble))
	assert.Equal(t, TokenNumber, TokenClass(chroma.LiteralNumberInteger))
	assert.Equal(t, TokenComment, TokenClass(chroma.CommentSingle))
	assert.Equal(t, TokenPreproc, TokenClass(chroma.CommentPreproc))
	assert.Equal(t, TokenFunction, TokenClass(chroma.NameFunction))
	assert.Equal(t, CodeBlock, TokenClass(chroma.Text))
}

func TestResolveIsIdempotent(t *testing.T) {
	dark, err := Builtin("dark")
	require.NoError(t, err)

	rapid.Check(t, func(rt *rapid.T) {
		class := Class(rapid.IntRange(0, int(classCount)-1).Draw(rt, "class"))
		c := terminal.Capabilities{
			ColorDepth:    terminal.ColorDepth(rapid.IntRange(0, 3).Draw(rt, "depth")),
			Strikethrough: rapid.Bool().Draw(rt, "strike"),
			Italic:        rapid.Bool().Draw(rt, "italic"),
			Plain:         rapid.Bool().Draw(rt, "plain"),
		}

		assert.Equal(rt, Resolve(class, dark, c), Resolve(class, dark, c))
	})
}

func TestReducingDepthNeverGrowsSequences(t *testing.T) {
	names := Names()

	rapid.Check(t, func(rt *rapid.T) {
		theme, err := Builtin(rapid.SampledFrom(names).Draw(rt, "theme"))
		require.NoError(rt, err)
		class := Class(rapid.IntRange(0, int(classCount)-1).Draw(rt, "class"))

		previous := -1
		for _, depth := range []terminal.ColorDepth{terminal.TrueColor, terminal.ANSI256, terminal.ANSI16, terminal.Mono} {
			size := len(Resolve(class, theme, caps(depth)).SGR())
			if previous >= 0 {
				assert.LessOrEqual(rt, size, previous, "%s at %s", class, depth)
			}
			previous = size
		}
	})
}
