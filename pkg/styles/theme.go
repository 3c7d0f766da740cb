package styles

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour/ansi"
	glamourstyles "github.com/charmbracelet/glamour/styles"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

const DefaultTheme = "dark"

// Spec is what a theme says about one class, before the terminal's capabilities are taken
// into account. Colours are "#rrggbb" or an ANSI palette index.
type Spec struct {
	Fg            string
	Bg            string
	Bold          bool
	Italic        bool
	Underline     bool
	Strikethrough bool
	Faint         bool
}

// Theme maps classes to specs. Once built it is never modified.
type Theme struct {
	Name    string
	classes map[Class]Spec
}

func (t *Theme) Spec(c Class) Spec {
	if t == nil {
		return Spec{}
	}
	return t.classes[c]
}

// Names lists the built-in themes.
func Names() []string {
	names := maps.Keys(glamourstyles.DefaultStyles)
	slices.Sort(names)
	return names
}

// Builtin builds one of the named built-in themes.
func Builtin(name string) (*Theme, error) {
	cfg, ok := glamourstyles.DefaultStyles[name]
	if !ok || cfg == nil {
		return nil, fmt.Errorf("unknown theme %q, expected one of %s", name, strings.Join(Names(), ", "))
	}

	return fromGlamour(name, *cfg), nil
}

// Load returns the theme from file when one is given, otherwise the named built-in.
func Load(name, file string) (*Theme, error) {
	if file != "" {
		return LoadFile(file)
	}
	if name == "" {
		name = DefaultTheme
	}
	return Builtin(name)
}

type themeFile struct {
	Name    string            `yaml:"name"`
	Extends string            `yaml:"extends"`
	Classes map[string]string `yaml:"classes"`
}

// LoadFile reads a YAML theme. Class values use the "#fg bg:#bg bold italic" notation; a
// theme may extend a built-in and only override some classes.
func LoadFile(path string) (*Theme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading theme: %w", err)
	}

	return ParseTheme(data)
}

func ParseTheme(data []byte) (*Theme, error) {
	var file themeFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing theme: %w", err)
	}

	theme := &Theme{Name: file.Name, classes: map[Class]Spec{}}
	if file.Extends != "" {
		base, err := Builtin(file.Extends)
		if err != nil {
			return nil, err
		}
		maps.Copy(theme.classes, base.classes)
	}

	if theme.Name == "" {
		theme.Name = "custom"
	}

	for key, value := range file.Classes {
		class, err := ParseClass(key)
		if err != nil {
			return nil, err
		}
		spec, err := ParseSpec(value)
		if err != nil {
			return nil, fmt.Errorf("class %s: %w", key, err)
		}
		theme.classes[class] = spec
	}

	return theme, nil
}

// ParseSpec reads the compact notation used in theme files, e.g. "#f1f1f1 bg:#f05b5b bold".
func ParseSpec(value string) (Spec, error) {
	var spec Spec

	for _, word := range strings.Fields(value) {
		switch word {
		case "bold":
			spec.Bold = true
		case "italic":
			spec.Italic = true
		case "underline":
			spec.Underline = true
		case "strike", "strikethrough":
			spec.Strikethrough = true
		case "faint":
			spec.Faint = true
		default:
			if bg, ok := strings.CutPrefix(word, "bg:"); ok {
				if !validColor(bg) {
					return spec, fmt.Errorf("invalid colour %q", bg)
				}
				spec.Bg = bg
			} else if validColor(word) {
				spec.Fg = word
			} else {
				return spec, fmt.Errorf("unknown style word %q", word)
			}
		}
	}

	return spec, nil
}

func validColor(s string) bool {
	if strings.HasPrefix(s, "#") {
		return len(s) == 7 || len(s) == 4
	}
	if s == "" || len(s) > 3 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func fromPrimitive(p ansi.StylePrimitive) Spec {
	return Spec{
		Fg:            deref(p.Color),
		Bg:            deref(p.BackgroundColor),
		Bold:          derefBool(p.Bold),
		Italic:        derefBool(p.Italic),
		Underline:     derefBool(p.Underline),
		Strikethrough: derefBool(p.CrossedOut),
		Faint:         derefBool(p.Faint),
	}
}

// over layers b's settings on top of a.
func over(a, b Spec) Spec {
	if b.Fg != "" {
		a.Fg = b.Fg
	}
	if b.Bg != "" {
		a.Bg = b.Bg
	}
	a.Bold = a.Bold || b.Bold
	a.Italic = a.Italic || b.Italic
	a.Underline = a.Underline || b.Underline
	a.Strikethrough = a.Strikethrough || b.Strikethrough
	a.Faint = a.Faint || b.Faint
	return a
}

func fromGlamour(name string, cfg ansi.StyleConfig) *Theme {
	classes := map[Class]Spec{
		Text:          fromPrimitive(cfg.Text),
		Emphasis:      fromPrimitive(cfg.Emph),
		Strong:        fromPrimitive(cfg.Strong),
		Strikethrough: fromPrimitive(cfg.Strikethrough),
		CodeSpan:      fromPrimitive(cfg.Code.StylePrimitive),
		CodeBlock:     fromPrimitive(cfg.CodeBlock.StylePrimitive),
		Link:          fromPrimitive(cfg.LinkText),
		LinkURL:       fromPrimitive(cfg.Link),
		ImageFallback: fromPrimitive(cfg.ImageText),
		QuoteMarker:   fromPrimitive(cfg.BlockQuote.StylePrimitive),
		ListMarker:    fromPrimitive(cfg.Item),
		Rule:          fromPrimitive(cfg.HorizontalRule),
		TableBorder:   fromPrimitive(cfg.Table.StylePrimitive),
		TableHeader:   over(fromPrimitive(cfg.Table.StylePrimitive), Spec{Bold: true}),
		HTML:          fromPrimitive(cfg.HTMLSpan.StylePrimitive),
	}

	heading := fromPrimitive(cfg.Heading.StylePrimitive)
	levels := []ansi.StyleBlock{cfg.H1, cfg.H2, cfg.H3, cfg.H4, cfg.H5, cfg.H6}
	for i, block := range levels {
		classes[Heading1+Class(i)] = over(heading, fromPrimitive(block.StylePrimitive))
	}

	if c := cfg.CodeBlock.Chroma; c != nil {
		tokens := map[Class]ansi.StylePrimitive{
			TokenKeyword:     c.Keyword,
			TokenType:        c.KeywordType,
			TokenName:        c.Name,
			TokenBuiltin:     c.NameBuiltin,
			TokenFunction:    c.NameFunction,
			TokenTag:         c.NameTag,
			TokenAttribute:   c.NameAttribute,
			TokenConstant:    c.NameConstant,
			TokenString:      c.LiteralString,
			TokenNumber:      c.LiteralNumber,
			TokenOperator:    c.Operator,
			TokenPunctuation: c.Punctuation,
			TokenComment:     c.Comment,
			TokenPreproc:     c.CommentPreproc,
			TokenDeleted:     c.GenericDeleted,
			TokenInserted:    c.GenericInserted,
			TokenSubheading:  c.GenericSubheading,
			TokenError:       c.Error,
		}
		for class, p := range tokens {
			classes[class] = fromPrimitive(p)
		}
	}

	return &Theme{Name: name, classes: classes}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefBool(b *bool) bool {
	return b != nil && *b
}
