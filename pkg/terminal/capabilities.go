package terminal

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/muesli/termenv"
	"gopkg.in/guregu/null.v4"
)

type ColorDepth int

const (
	Mono ColorDepth = iota
	ANSI16
	ANSI256
	TrueColor
)

func (d ColorDepth) String() string {
	switch d {
	case ANSI16:
		return "ansi16"
	case ANSI256:
		return "ansi256"
	case TrueColor:
		return "truecolor"
	default:
		return "mono"
	}
}

// Profile is the termenv colour profile colours must be converted to for this depth.
func (d ColorDepth) Profile() termenv.Profile {
	switch d {
	case ANSI16:
		return termenv.ANSI
	case ANSI256:
		return termenv.ANSI256
	case TrueColor:
		return termenv.TrueColor
	default:
		return termenv.Ascii
	}
}

type ImageProtocol int

const (
	NoImages ImageProtocol = iota
	ITerm2
	Kitty
	Terminology
)

func (p ImageProtocol) String() string {
	switch p {
	case ITerm2:
		return "iterm2"
	case Kitty:
		return "kitty"
	case Terminology:
		return "terminology"
	default:
		return "none"
	}
}

func ParseImageProtocol(name string) (ImageProtocol, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "none", "off", "":
		return NoImages, nil
	case "iterm2", "iterm":
		return ITerm2, nil
	case "kitty":
		return Kitty, nil
	case "terminology":
		return Terminology, nil
	}

	return NoImages, fmt.Errorf("unknown image protocol %q", name)
}

// Capabilities describes what the target terminal understands. It is computed once per
// run and never modified afterwards.
type Capabilities struct {
	Name          string
	ColorDepth    ColorDepth
	ImageProtocol ImageProtocol
	Hyperlinks    bool
	JumpMarks     bool
	Strikethrough bool
	Italic        bool

	// Plain disables every escape sequence, styles included.
	Plain bool

	// ImagesDisabled is set when images were switched off explicitly rather than
	// because the terminal was not recognised as supporting them.
	ImagesDisabled bool

	Width int
}

// Conservative is the set every unrecognised terminal resolves to.
func Conservative(width int) Capabilities {
	return Capabilities{Name: "unknown", ColorDepth: Mono, ImageProtocol: NoImages, Width: width}
}

// Environ is a snapshot of environment variables. It satisfies termenv.Environ so colour
// profile detection can run against it instead of the live process environment.
type Environ map[string]string

func EnvironFromOS() Environ {
	env := Environ{}
	for _, kv := range os.Environ() {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) == 2 {
			env[parts[0]] = parts[1]
		} else {
			env[parts[0]] = ""
		}
	}
	return env
}

func (e Environ) Getenv(key string) string {
	return e[key]
}

func (e Environ) Environ() []string {
	out := make([]string, 0, len(e))
	for k, v := range e {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

// Overrides are explicit user choices. A set value always beats detection.
type Overrides struct {
	NoColor       null.Bool
	ANSIOnly      null.Bool
	NoImages      null.Bool
	ImageProtocol null.String
	Hyperlinks    null.Bool
	JumpMarks     null.Bool
	Width         null.Int
}

// Signals is everything detection looks at.
type Signals struct {
	Env       Environ
	IsTTY     bool
	Width     int
	Overrides Overrides
}

const defaultWidth = 80

// Detect derives the capability set from the given signals. It has no side effects and
// never fails; anything it cannot recognise resolves to the conservative set.
func Detect(s Signals) Capabilities {
	width := s.Width
	if width <= 0 {
		width = defaultWidth
	}

	env := s.Env
	if env == nil {
		env = Environ{}
	}

	caps := identify(env, width)

	forced := cliColorForced(env)
	if !s.IsTTY && !forced {
		caps = plain(caps)
	} else if caps.Name != "unknown" {
		output := termenv.NewOutput(io.Discard, termenv.WithEnvironment(env), termenv.WithTTY(true))
		caps.ColorDepth = depthFromProfile(output.EnvColorProfile())
	}

	return applyOverrides(caps, s.Overrides)
}

func identify(env Environ, width int) Capabilities {
	term := env.Getenv("TERM")
	program := env.Getenv("TERM_PROGRAM")

	caps := Conservative(width)
	generic := func(name string) Capabilities {
		return Capabilities{Name: name, Strikethrough: true, Italic: true, Width: width}
	}

	switch {
	case term == "dumb":
		return caps
	case env.Getenv("KITTY_WINDOW_ID") != "" || term == "xterm-kitty":
		caps = generic("kitty")
		caps.ImageProtocol = Kitty
		caps.Hyperlinks = true
	case program == "ghostty" || term == "xterm-ghostty":
		caps = generic("ghostty")
		caps.ImageProtocol = Kitty
		caps.Hyperlinks = true
	case program == "iTerm.app" || env.Getenv("LC_TERMINAL") == "iTerm2":
		caps = generic("iterm2")
		caps.ImageProtocol = ITerm2
		caps.Hyperlinks = true
		caps.JumpMarks = true
	case program == "WezTerm":
		caps = generic("wezterm")
		caps.ImageProtocol = ITerm2
		caps.Hyperlinks = true
	case env.Getenv("TERMINOLOGY") == "1":
		caps = generic("terminology")
		caps.ImageProtocol = Terminology
		caps.Hyperlinks = true
	case vteVersion(env) >= 5000:
		caps = generic("vte")
		caps.Hyperlinks = true
	case program == "Apple_Terminal":
		caps = generic("apple-terminal")
		caps.Strikethrough = false
	case env.Getenv("TMUX") != "" || strings.HasPrefix(term, "screen") || strings.HasPrefix(term, "tmux"):
		caps = generic("multiplexer")
	case term == "linux":
		caps = generic("linux-console")
		caps.Strikethrough = false
		caps.Italic = false
	case strings.HasPrefix(term, "xterm"), strings.HasPrefix(term, "rxvt"),
		strings.HasPrefix(term, "alacritty"), strings.HasPrefix(term, "foot"),
		strings.HasPrefix(term, "wezterm"), strings.HasPrefix(term, "contour"),
		env.Getenv("COLORTERM") != "":
		caps = generic("xterm-compatible")
	}

	return caps
}

func vteVersion(env Environ) int {
	v, err := strconv.Atoi(env.Getenv("VTE_VERSION"))
	if err != nil {
		return 0
	}
	return v
}

func cliColorForced(env Environ) bool {
	v := env.Getenv("CLICOLOR_FORCE")
	return v != "" && v != "0"
}

func depthFromProfile(p termenv.Profile) ColorDepth {
	switch p {
	case termenv.TrueColor:
		return TrueColor
	case termenv.ANSI256:
		return ANSI256
	case termenv.ANSI:
		return ANSI16
	default:
		return Mono
	}
}

func plain(caps Capabilities) Capabilities {
	caps.Plain = true
	caps.ColorDepth = Mono
	caps.ImageProtocol = NoImages
	caps.Hyperlinks = false
	caps.JumpMarks = false
	return caps
}

func applyOverrides(caps Capabilities, o Overrides) Capabilities {
	if o.NoColor.Valid && o.NoColor.Bool {
		caps = plain(caps)
		caps.ImagesDisabled = true
	}

	if o.ANSIOnly.Valid && o.ANSIOnly.Bool && !caps.Plain {
		caps.Name = "ansi"
		caps.ColorDepth = ANSI16
		caps.ImageProtocol = NoImages
		caps.ImagesDisabled = true
		caps.Hyperlinks = false
		caps.JumpMarks = false
		caps.Strikethrough = true
		caps.Italic = true
	}

	// Plain output drops every control sequence, so escapes can't be forced onto it.
	if o.ImageProtocol.Valid && !caps.Plain {
		if proto, err := ParseImageProtocol(o.ImageProtocol.String); err == nil {
			caps.ImageProtocol = proto
			caps.ImagesDisabled = proto == NoImages
		}
	}

	if o.NoImages.Valid && o.NoImages.Bool {
		caps.ImageProtocol = NoImages
		caps.ImagesDisabled = true
	}

	if o.Hyperlinks.Valid && !caps.Plain {
		caps.Hyperlinks = o.Hyperlinks.Bool
	}

	if o.JumpMarks.Valid && !caps.Plain {
		caps.JumpMarks = o.JumpMarks.Bool
	}

	if o.Width.Valid && o.Width.Int64 > 0 {
		caps.Width = int(o.Width.Int64)
	}

	return caps
}
