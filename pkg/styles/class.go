package styles

import (
	"fmt"

	"github.com/alecthomas/chroma/v2"
)

// Class is a semantic style request. The renderer asks for classes, themes map them to
// colours and attributes.
type Class int

const (
	Text Class = iota
	Heading1
	Heading2
	Heading3
	Heading4
	Heading5
	Heading6
	Emphasis
	Strong
	Strikethrough
	CodeSpan
	CodeBlock
	Link
	LinkURL
	ImageFallback
	QuoteMarker
	ListMarker
	Rule
	TableBorder
	TableHeader
	HTML

	TokenKeyword
	TokenType
	TokenName
	TokenBuiltin
	TokenFunction
	TokenTag
	TokenAttribute
	TokenConstant
	TokenString
	TokenNumber
	TokenOperator
	TokenPunctuation
	TokenComment
	TokenPreproc
	TokenDeleted
	TokenInserted
	TokenSubheading
	TokenError

	classCount
)

var classNames = [classCount]string{
	Text:             "text",
	Heading1:         "h1",
	Heading2:         "h2",
	Heading3:         "h3",
	Heading4:         "h4",
	Heading5:         "h5",
	Heading6:         "h6",
	Emphasis:         "emph",
	Strong:           "strong",
	Strikethrough:    "strikethrough",
	CodeSpan:         "code",
	CodeBlock:        "code_block",
	Link:             "link",
	LinkURL:          "link_url",
	ImageFallback:    "image",
	QuoteMarker:      "quote",
	ListMarker:       "item",
	Rule:             "rule",
	TableBorder:      "table_border",
	TableHeader:      "table_header",
	HTML:             "html",
	TokenKeyword:     "keyword",
	TokenType:        "type",
	TokenName:        "name",
	TokenBuiltin:     "builtin",
	TokenFunction:    "function",
	TokenTag:         "tag",
	TokenAttribute:   "attribute",
	TokenConstant:    "constant",
	TokenString:      "string",
	TokenNumber:      "number",
	TokenOperator:    "operator",
	TokenPunctuation: "punctuation",
	TokenComment:     "comment",
	TokenPreproc:     "preproc",
	TokenDeleted:     "deleted",
	TokenInserted:    "inserted",
	TokenSubheading:  "subheading",
	TokenError:       "error",
}

func (c Class) String() string {
	if c < 0 || c >= classCount {
		return fmt.Sprintf("class(%d)", int(c))
	}
	return classNames[c]
}

func ParseClass(name string) (Class, error) {
	for i, n := range classNames {
		if n == name {
			return Class(i), nil
		}
	}
	return Text, fmt.Errorf("unknown style class %q", name)
}

// Heading returns the class for a heading level, clamped to 1..6.
func Heading(level int) Class {
	if level < 1 {
		level = 1
	}
	if level > 6 {
		level = 6
	}
	return Heading1 + Class(level-1)
}

func (c Class) IsHeading() bool {
	return c >= Heading1 && c <= Heading6
}

// TokenClass maps a chroma token type onto the class used to style it.
func TokenClass(t chroma.TokenType) Class {
	switch {
	case t == chroma.Error:
		return TokenError
	case t == chroma.KeywordType, t == chroma.NameClass:
		return TokenType
	case t.InCategory(chroma.Keyword):
		return TokenKeyword
	case t == chroma.NameBuiltin, t == chroma.NameBuiltinPseudo:
		return TokenBuiltin
	case t == chroma.NameFunction, t == chroma.NameFunctionMagic, t == chroma.NameDecorator:
		return TokenFunction
	case t == chroma.NameTag:
		return TokenTag
	case t == chroma.NameAttribute:
		return TokenAttribute
	case t == chroma.NameConstant:
		return TokenConstant
	case t.InCategory(chroma.Name):
		return TokenName
	case t.InSubCategory(chroma.LiteralNumber):
		return TokenNumber
	case t.InCategory(chroma.Literal):
		return TokenString
	case t.InCategory(chroma.Operator):
		return TokenOperator
	case t.InCategory(chroma.Punctuation):
		return TokenPunctuation
	case t.InSubCategory(chroma.CommentPreproc):
		return TokenPreproc
	case t.InCategory(chroma.Comment):
		return TokenComment
	case t == chroma.GenericDeleted:
		return TokenDeleted
	case t == chroma.GenericInserted:
		return TokenInserted
	case t == chroma.GenericEmph:
		return Emphasis
	case t == chroma.GenericStrong:
		return Strong
	case t == chroma.GenericSubheading, t == chroma.GenericHeading:
		return TokenSubheading
	}

	return CodeBlock
}
