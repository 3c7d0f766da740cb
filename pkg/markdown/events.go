package markdown

import "fmt"

type EventType int

const (
	Enter EventType = iota
	Exit
	Text
	SoftBreak
	HardBreak
	Rule
	TaskMarker
	HTML
)

var eventTypeNames = map[EventType]string{
	Enter:      "enter",
	Exit:       "exit",
	Text:       "text",
	SoftBreak:  "softbreak",
	HardBreak:  "hardbreak",
	Rule:       "rule",
	TaskMarker: "task",
	HTML:       "html",
}

func (t EventType) String() string {
	if name, ok := eventTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("event(%d)", int(t))
}

// Kind is the construct an Enter or Exit event opens or closes.
type Kind int

const (
	Document Kind = iota
	Paragraph
	Heading
	BlockQuote
	List
	Item
	CodeBlock
	Table
	TableHead
	TableRow
	TableCell
	Emphasis
	Strong
	Strikethrough
	CodeSpan
	Link
	Image
)

var kindNames = map[Kind]string{
	Document:      "Document",
	Paragraph:     "Paragraph",
	Heading:       "Heading",
	BlockQuote:    "BlockQuote",
	List:          "List",
	Item:          "Item",
	CodeBlock:     "CodeBlock",
	Table:         "Table",
	TableHead:     "TableHead",
	TableRow:      "TableRow",
	TableCell:     "TableCell",
	Emphasis:      "Emphasis",
	Strong:        "Strong",
	Strikethrough: "Strikethrough",
	CodeSpan:      "CodeSpan",
	Link:          "Link",
	Image:         "Image",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// IsBlock reports whether k starts on its own line.
func (k Kind) IsBlock() bool {
	switch k {
	case Document, Paragraph, Heading, BlockQuote, List, Item, CodeBlock, Table, TableHead, TableRow, TableCell:
		return true
	}
	return false
}

type Alignment int

const (
	AlignNone Alignment = iota
	AlignLeft
	AlignCenter
	AlignRight
)

// Event is one step of a document walk. Which fields are set depends on Type and Kind.
type Event struct {
	Type EventType
	Kind Kind

	// Heading level.
	Level int

	// Lists. Tight is also set on paragraphs inside tight lists.
	Ordered bool
	Start   int
	Tight   bool

	// Code block info string, first word only.
	Language string

	// Links and images.
	Destination string
	Title       string

	// Table column alignments, and a cell's own alignment.
	Alignments []Alignment
	Align      Alignment

	// Task list marker state.
	Checked bool

	// Text, code and raw HTML content.
	Text string

	// HTML is a block rather than inline.
	Block bool
}

func (e Event) String() string {
	switch e.Type {
	case Enter, Exit:
		return fmt.Sprintf("%s(%s)", e.Type, e.Kind)
	case Text, HTML:
		return fmt.Sprintf("%s(%q)", e.Type, e.Text)
	}
	return e.Type.String()
}

func EnterEvent(kind Kind) Event { return Event{Type: Enter, Kind: kind} }

func ExitEvent(kind Kind) Event { return Event{Type: Exit, Kind: kind} }

func TextEvent(text string) Event { return Event{Type: Text, Text: text} }
