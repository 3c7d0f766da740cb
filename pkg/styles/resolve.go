package styles

import (
	"github.com/muesli/termenv"

	"github.com/elseano/mdcat/pkg/terminal"
)

// Resolve turns a semantic class into the style the given terminal can display. Colours
// are quantised to the terminal's depth. Mono terminals lose colours and classes that
// depended on them get bold or underline instead. Attributes the terminal can't render are
// dropped.
func Resolve(class Class, theme *Theme, caps terminal.Capabilities) Style {
	if caps.Plain {
		return Style{}
	}

	spec := theme.Spec(class)
	style := Style{
		Bold:          spec.Bold,
		Italic:        spec.Italic,
		Underline:     spec.Underline,
		Strikethrough: spec.Strikethrough,
		Faint:         spec.Faint,
	}

	if caps.ColorDepth == terminal.Mono {
		if spec.Fg != "" || spec.Bg != "" {
			style = monoFallback(class, style)
		}
	} else {
		profile := caps.ColorDepth.Profile()
		style.Fg = convert(profile, spec.Fg)
		style.Bg = convert(profile, spec.Bg)
	}

	if !caps.Strikethrough {
		style.Strikethrough = false
	}
	if !caps.Italic {
		style.Italic = false
	}

	return style
}

func convert(profile termenv.Profile, value string) termenv.Color {
	if value == "" {
		return nil
	}

	c := profile.Color(value)
	if _, none := c.(termenv.NoColor); none {
		return nil
	}
	return c
}

func monoFallback(class Class, style Style) Style {
	switch {
	case class.IsHeading(), class == Strong, class == TableHeader:
		style.Bold = true
	case class == Link, class == LinkURL:
		style.Underline = true
	}
	return style
}

// Resolver binds the theme and capabilities a render works against.
type Resolver struct {
	Theme *Theme
	Caps  terminal.Capabilities
}

func NewResolver(theme *Theme, caps terminal.Capabilities) Resolver {
	return Resolver{Theme: theme, Caps: caps}
}

func (r Resolver) Resolve(class Class) Style {
	return Resolve(class, r.Theme, r.Caps)
}

// Stack resolves several classes from the outermost to the innermost and combines them.
func (r Resolver) Stack(classes ...Class) Style {
	var style Style
	for _, c := range classes {
		style = style.Combine(r.Resolve(c))
	}
	return style
}
