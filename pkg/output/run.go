package output

import "github.com/elseano/mdcat/pkg/styles"

type Kind int

const (
	TextRun Kind = iota
	ControlRun
)

// Run is the unit the renderer hands to the writer: styled text, or raw control bytes.
type Run struct {
	Kind  Kind
	Style styles.Style
	Text  string

	// Abort is written by Finish when output stops right after this control run, so the
	// terminal isn't left inside an unterminated sequence. A later control run replaces it.
	Abort string

	// Link marks hyperlink boundaries. The writer keeps an open hyperlink apart from the
	// current sequence, so sequences written inside a link can't hide it.
	Link bool
}

// HyperlinkEnd closes an OSC 8 hyperlink.
const HyperlinkEnd = "\x1b]8;;\x1b\\"

func Text(style styles.Style, text string) Run {
	return Run{Kind: TextRun, Style: style, Text: text}
}

func Control(sequence, abort string) Run {
	return Run{Kind: ControlRun, Text: sequence, Abort: abort}
}

// Hyperlink opens an OSC 8 hyperlink to target.
func Hyperlink(target string) Run {
	return Run{Kind: ControlRun, Text: "\x1b]8;;" + target + "\x1b\\", Abort: HyperlinkEnd, Link: true}
}

func EndHyperlink() Run {
	return Run{Kind: ControlRun, Text: HyperlinkEnd, Link: true}
}
