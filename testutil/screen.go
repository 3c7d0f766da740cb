package testutil

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	a "github.com/Azure/go-ansiterm"
)

// Screen interprets rendered output the way a terminal would, keeping the text of every
// line with SGR sequences preserved. Hyperlinks and marks are recorded apart from the text.
type Screen struct {
	parser *a.AnsiParser
	cursor cursor
	lines  []*strings.Builder
	errs   []error

	links []Link
	open  *Link
	marks []int
}

// Link is a hyperlink as the terminal saw it.
type Link struct {
	URL  string
	Text string
	Line int
}

type cursor struct {
	line   int
	column int
}

func NewScreen() *Screen {
	s := &Screen{}
	s.parser = a.CreateParser("Ground", s)
	return s
}

// Feed parses everything r yields. Non-ASCII text goes straight to the screen since the
// parser only understands 7-bit input; it must not appear inside escape sequences.
func (s *Screen) Feed(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	for len(data) > 0 {
		ascii := 0
		for ascii < len(data) && data[ascii] < utf8.RuneSelf {
			ascii++
		}

		if ascii > 0 {
			if _, err := s.parser.Parse(data[:ascii]); err != nil {
				return err
			}
			data = data[ascii:]
			continue
		}

		_, size := utf8.DecodeRune(data)
		s.text(string(data[:size]))
		data = data[size:]
	}

	return nil
}

func (s *Screen) FeedString(str string) error {
	return s.Feed(strings.NewReader(str))
}

// Lines returns the visible text of each line, styles removed.
func (s *Screen) Lines() []string {
	out := make([]string, len(s.lines))
	for i, line := range s.lines {
		out[i] = stripSGR(line.String())
	}
	return out
}

// Styled returns each line with its SGR sequences.
func (s *Screen) Styled() []string {
	out := make([]string, len(s.lines))
	for i, line := range s.lines {
		out[i] = line.String()
	}
	return out
}

// Unsupported lists the sequences the screen saw but couldn't interpret.
func (s *Screen) Unsupported() []error {
	return s.errs
}

// Links returns every closed hyperlink in order.
func (s *Screen) Links() []Link {
	return s.links
}

// OpenLink reports whether a hyperlink was left open.
func (s *Screen) OpenLink() bool {
	return s.open != nil
}

// Marks returns the line of every jump mark.
func (s *Screen) Marks() []int {
	return s.marks
}

func (s *Screen) String() string {
	return strings.Join(s.Lines(), "\n")
}

func stripSGR(line string) string {
	var b strings.Builder
	for {
		i := strings.Index(line, "\x1b[")
		if i < 0 {
			b.WriteString(line)
			return b.String()
		}
		b.WriteString(line[:i])
		j := strings.IndexByte(line[i:], 'm')
		if j < 0 {
			return b.String()
		}
		line = line[i+j+1:]
	}
}

func (s *Screen) current() *strings.Builder {
	for len(s.lines) <= s.cursor.line {
		s.lines = append(s.lines, &strings.Builder{})
	}
	return s.lines[s.cursor.line]
}

func (s *Screen) write(str string) {
	s.current().WriteString(str)
	s.cursor.column += len(str)
}

func (s *Screen) unsupported(format string, args ...interface{}) error {
	s.errs = append(s.errs, fmt.Errorf(format, args...))
	return nil
}

// text puts one printed character on the screen.
func (s *Screen) text(char string) {
	if s.open != nil {
		s.open.Text += char
	}
	s.current().WriteString(char)
	s.cursor.column++
}

func (s *Screen) Print(b byte) error {
	s.text(string([]byte{b}))
	return nil
}

func (s *Screen) Execute(b byte) error {
	switch b {
	case '\n':
		s.cursor.line++
		s.cursor.column = 0
		s.current()
	case '\r':
		s.cursor.column = 0
	case '\a':
	default:
		s.write(fmt.Sprintf("<EXEC %d>", b))
	}
	return nil
}

func (s *Screen) CUU(count int) error {
	s.cursor.line -= count
	if s.cursor.line < 0 {
		s.cursor.line = 0
	}
	return nil
}

func (s *Screen) CUD(count int) error {
	s.cursor.line += count
	return nil
}

func (s *Screen) CUF(count int) error {
	s.cursor.column += count
	return nil
}

func (s *Screen) CUB(count int) error {
	s.cursor.column -= count
	if s.cursor.column < 0 {
		s.cursor.column = 0
	}
	return nil
}

func (s *Screen) CNL(count int) error {
	s.cursor.line += count
	s.cursor.column = 0
	return nil
}

func (s *Screen) CPL(count int) error {
	s.cursor.line -= count
	s.cursor.column = 0
	if s.cursor.line < 0 {
		s.cursor.line = 0
	}
	return nil
}

func (s *Screen) CHA(pos int) error {
	s.cursor.column = pos
	return nil
}

func (s *Screen) VPA(pos int) error {
	s.cursor.line = pos
	return nil
}

func (s *Screen) CUP(x int, y int) error {
	s.cursor.line = y
	s.cursor.column = x
	return nil
}

func (s *Screen) HVP(x int, y int) error {
	return s.CUP(x, y)
}

func (s *Screen) DECTCEM(enable bool) error { return s.unsupported("DECTCEM %v", enable) }
func (s *Screen) DECOM(enable bool) error   { return s.unsupported("DECOM %v", enable) }
func (s *Screen) DECCOLM(enable bool) error { return s.unsupported("DECCOLM %v", enable) }
func (s *Screen) ED(count int) error        { return s.unsupported("ED %d", count) }
func (s *Screen) EL(count int) error        { return s.unsupported("EL %d", count) }
func (s *Screen) IL(count int) error        { return s.unsupported("IL %d", count) }
func (s *Screen) DL(count int) error        { return s.unsupported("DL %d", count) }
func (s *Screen) ICH(count int) error       { return s.unsupported("ICH %d", count) }
func (s *Screen) DCH(count int) error       { return s.unsupported("DCH %d", count) }
func (s *Screen) SU(count int) error        { return s.unsupported("SU %d", count) }
func (s *Screen) SD(count int) error        { return s.unsupported("SD %d", count) }
func (s *Screen) DA(values []string) error  { return s.unsupported("DA %v", values) }
func (s *Screen) DECSTBM(x, y int) error    { return s.unsupported("DECSTBM %d %d", x, y) }
func (s *Screen) IND() error                { return s.unsupported("IND") }
func (s *Screen) RI() error                 { return s.unsupported("RI") }

func (s *Screen) SGR(values []int) error {
	formatting := make([]string, len(values))
	for i, v := range values {
		formatting[i] = fmt.Sprint(v)
	}
	s.current().WriteString("\x1b[" + strings.Join(formatting, ";") + "m")
	return nil
}

func (s *Screen) OSC(b []byte) error {
	command := string(b)

	switch {
	case command == "1337;SetMark":
		s.marks = append(s.marks, s.cursor.line)
	case strings.HasPrefix(command, "8;"):
		parts := strings.SplitN(command, ";", 3)
		if len(parts) < 3 {
			return s.unsupported("OSC %q", command)
		}
		if parts[2] == "" {
			if s.open == nil {
				return s.unsupported("hyperlink closed while none is open")
			}
			s.links = append(s.links, *s.open)
			s.open = nil
			return nil
		}
		s.open = &Link{URL: parts[2], Line: s.cursor.line}
	default:
		return s.unsupported("OSC %q", command)
	}
	return nil
}

func (s *Screen) Flush() error {
	return nil
}
