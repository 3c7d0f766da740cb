package util

import (
	"regexp"

	"github.com/charmbracelet/x/ansi"
)

var linkMarker = regexp.MustCompile("\x1b\\]8;;(.*?)\x1b\\\\(.*?)\x1b\\]8;;\x1b\\\\")

// RemoveColors strips every escape sequence from input. Hyperlinks are kept readable as
// "url|text" so tests can still see where a link pointed.
func RemoveColors(input string) string {
	delinked := linkMarker.ReplaceAllString(input, "$1|$2")
	return ansi.Strip(delinked)
}

// DisplayWidth is the number of terminal cells input occupies, ignoring escape sequences.
func DisplayWidth(input string) int {
	return ansi.StringWidth(input)
}
