package markdown

import (
	"strings"

	"golang.org/x/net/html"
)

// htmlEvents splits raw HTML into events. Image tags become image events and line breaks
// become hard breaks; everything else stays raw HTML.
func htmlEvents(raw string, block bool) []Event {
	var events []Event
	var pending strings.Builder

	flush := func() {
		if pending.Len() > 0 {
			events = append(events, Event{Type: HTML, Text: pending.String(), Block: block})
			pending.Reset()
		}
	}

	z := html.NewTokenizer(strings.NewReader(raw))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}

		rawToken := string(z.Raw())
		token := z.Token()
		isTag := tt == html.StartTagToken || tt == html.SelfClosingTagToken

		switch {
		case isTag && token.Data == "img":
			flush()
			src, alt, title := attr(token, "src"), attr(token, "alt"), attr(token, "title")
			events = append(events, Event{Type: Enter, Kind: Image, Destination: src, Title: title})
			if alt != "" {
				events = append(events, TextEvent(alt))
			}
			events = append(events, ExitEvent(Image))
		case isTag && token.Data == "br":
			flush()
			events = append(events, Event{Type: HardBreak})
		default:
			pending.WriteString(rawToken)
		}
	}

	flush()
	return events
}

func attr(token html.Token, key string) string {
	for _, a := range token.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
