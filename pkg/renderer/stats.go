package renderer

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/rivo/uniseg"
)

const wordsPerMinute = 225

// Anchor is a heading that received a jump mark.
type Anchor struct {
	ID    int
	Level int
	Title string
}

// Stats describes a rendered document. It is collected while rendering and never affects
// the rendered output.
type Stats struct {
	Characters int
	Words      int
	Lines      int
	Headings   int
	CodeBlocks int
	Links      int
	Images     int
	Lists      int
	Tables     int
	Anchors    []Anchor

	inWord bool
}

// countText adds the words and characters of text. Words may continue across calls until
// breakWord is called.
func (s *Stats) countText(text string) {
	s.Characters += uniseg.GraphemeClusterCount(text)

	for _, r := range text {
		if unicode.IsSpace(r) {
			s.inWord = false
		} else if !s.inWord {
			s.Words++
			s.inWord = true
		}
	}
}

func (s *Stats) breakWord() {
	s.inWord = false
}

// ReadingTime is the estimated reading time in whole minutes, rounded up.
func (s Stats) ReadingTime() int {
	return (s.Words + wordsPerMinute - 1) / wordsPerMinute
}

// Add accumulates the counts of other, for reports covering several documents.
func (s *Stats) Add(other Stats) {
	s.Characters += other.Characters
	s.Words += other.Words
	s.Lines += other.Lines
	s.Headings += other.Headings
	s.CodeBlocks += other.CodeBlocks
	s.Links += other.Links
	s.Images += other.Images
	s.Lists += other.Lists
	s.Tables += other.Tables
	s.Anchors = append(s.Anchors, other.Anchors...)
}

// Rows returns the report as label/value pairs in display order.
func (s Stats) Rows() [][2]string {
	minutes := s.ReadingTime()
	unit := "minutes"
	if minutes == 1 {
		unit = "minute"
	}

	return [][2]string{
		{"Characters", fmt.Sprint(s.Characters)},
		{"Words", fmt.Sprint(s.Words)},
		{"Lines", fmt.Sprint(s.Lines)},
		{"Headings", fmt.Sprint(s.Headings)},
		{"Code blocks", fmt.Sprint(s.CodeBlocks)},
		{"Links", fmt.Sprint(s.Links)},
		{"Images", fmt.Sprint(s.Images)},
		{"Lists", fmt.Sprint(s.Lists)},
		{"Tables", fmt.Sprint(s.Tables)},
		{"Estimated reading time", fmt.Sprintf("%d %s", minutes, unit)},
	}
}

// String formats the report as plain text.
func (s Stats) String() string {
	var b strings.Builder
	b.WriteString("Document Statistics:\n")
	b.WriteString(strings.Repeat("─", 19) + "\n")
	for _, row := range s.Rows() {
		fmt.Fprintf(&b, "%s: %s\n", row[0], row[1])
	}
	return b.String()
}
