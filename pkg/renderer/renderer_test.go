package renderer

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v4"
	"pgregory.net/rapid"

	"github.com/elseano/mdcat/pkg/errs"
	"github.com/elseano/mdcat/pkg/highlight"
	"github.com/elseano/mdcat/pkg/images"
	"github.com/elseano/mdcat/pkg/markdown"
	"github.com/elseano/mdcat/pkg/output"
	"github.com/elseano/mdcat/pkg/terminal"
	"github.com/elseano/mdcat/pkg/util"
)

type recorder struct {
	runs []output.Run
	fail error
}

func (r *recorder) Write(run output.Run) error {
	if r.fail != nil {
		return r.fail
	}
	r.runs = append(r.runs, run)
	return nil
}

func (r *recorder) text() string {
	var b strings.Builder
	for _, run := range r.runs {
		if run.Kind == output.TextRun {
			b.WriteString(run.Text)
		}
	}
	return b.String()
}

func (r *recorder) controls() []string {
	var out []string
	for _, run := range r.runs {
		if run.Kind == output.ControlRun {
			out = append(out, run.Text)
		}
	}
	return out
}

type mapFetcher struct {
	files map[string][]byte
	calls int
}

func (m *mapFetcher) Fetch(_ context.Context, source string) ([]byte, error) {
	m.calls++
	if data, ok := m.files[source]; ok {
		return data, nil
	}
	return nil, images.ErrNotFound
}

func testPNG(t *testing.T, w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: uint8(y), B: uint8(x), A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func plainCaps(width int) terminal.Capabilities {
	return terminal.Capabilities{Name: "test", Plain: true, Width: width}
}

func colorCaps(depth terminal.ColorDepth) terminal.Capabilities {
	return terminal.Capabilities{Name: "test", ColorDepth: depth, Strikethrough: true, Italic: true, Width: 80}
}

func render(t *testing.T, cfg Config, source string) (*recorder, Stats) {
	t.Helper()

	rec := &recorder{}
	stats, err := New(rec, cfg).Render(context.Background(), markdown.Parse([]byte(source)))
	require.NoError(t, err)
	return rec, stats
}

func renderBytes(t *testing.T, cfg Config, source string) string {
	t.Helper()

	var buf bytes.Buffer
	w := output.NewWriter(&buf, output.Options{Plain: cfg.Caps.Plain})
	_, err := New(w, cfg).Render(context.Background(), markdown.Parse([]byte(source)))
	require.NoError(t, err)
	require.NoError(t, w.Finish())
	return buf.String()
}

func TestHeadingWithJumpMark(t *testing.T) {
	caps := colorCaps(terminal.TrueColor)
	caps.JumpMarks = true

	rec, stats := render(t, Config{Caps: caps}, "# Intro\n\nHello world\n")

	require.NotEmpty(t, rec.runs)
	assert.Equal(t, output.ControlRun, rec.runs[0].Kind)
	assert.Equal(t, "\x1b]1337;SetMark\a", rec.runs[0].Text)
	assert.Equal(t, "# Intro\n\nHello world\n", rec.text())

	heading := rec.runs[1]
	assert.Equal(t, "# ", heading.Text)
	assert.False(t, heading.Style.IsZero())

	assert.Equal(t, []Anchor{{ID: 1, Level: 1, Title: "Intro"}}, stats.Anchors)
}

func TestHeadingWithoutJumpMarks(t *testing.T) {
	rec, _ := render(t, Config{Caps: colorCaps(terminal.ANSI256)}, "## Setup\n")

	assert.Empty(t, rec.controls())
	assert.Equal(t, "## Setup\n", rec.text())
}

func TestParagraphWrapping(t *testing.T) {
	rec, _ := render(t, Config{Caps: plainCaps(20)}, "aaa bbb ccc ddd eee fff\n")

	assert.Equal(t, "aaa bbb ccc ddd eee\nfff\n", rec.text())
}

func TestWrappingLeavesRoomForLineNumbers(t *testing.T) {
	cfg := Config{Caps: plainCaps(80), Options: Options{Width: 20, LineNumberWidth: 3}}
	rec, _ := render(t, cfg, "aaa bbb ccc ddd eee fff\n")

	assert.Equal(t, "aaa bbb ccc\nddd eee fff\n", rec.text())
}

func TestLongWordIsNotBroken(t *testing.T) {
	long := strings.Repeat("x", 30)
	rec, _ := render(t, Config{Caps: plainCaps(10)}, "a "+long+" b\n")

	assert.Equal(t, "a\n"+long+"\nb\n", rec.text())
}

func TestSoftBreakBecomesSpace(t *testing.T) {
	rec, _ := render(t, Config{Caps: plainCaps(80)}, "one\ntwo\n")

	assert.Equal(t, "one two\n", rec.text())
}

func TestHardBreak(t *testing.T) {
	rec, _ := render(t, Config{Caps: plainCaps(80)}, "one  \ntwo\n")

	assert.Equal(t, "one\ntwo\n", rec.text())
}

func TestBulletList(t *testing.T) {
	rec, stats := render(t, Config{Caps: plainCaps(80)}, "- one\n- two\n  - nested\n")

	assert.Equal(t, "• one\n• two\n  ◦ nested\n", rec.text())
	assert.Equal(t, 2, stats.Lists)
}

func TestOrderedListStartsAtItsStart(t *testing.T) {
	rec, _ := render(t, Config{Caps: plainCaps(80)}, "3. three\n4. four\n")

	assert.Equal(t, "3. three\n4. four\n", rec.text())
}

func TestLooseListSeparatesItems(t *testing.T) {
	rec, _ := render(t, Config{Caps: plainCaps(80)}, "- one\n\n- two\n")

	assert.Equal(t, "• one\n\n• two\n", rec.text())
}

func TestTaskList(t *testing.T) {
	rec, _ := render(t, Config{Caps: plainCaps(80)}, "- [x] done\n- [ ] todo\n")

	assert.Equal(t, "☒ done\n☐ todo\n", rec.text())
}

func TestListItemsWrapUnderTheirText(t *testing.T) {
	rec, _ := render(t, Config{Caps: plainCaps(12)}, "- aaa bbb ccc\n")

	assert.Equal(t, "• aaa bbb\n  ccc\n", rec.text())
}

func TestBlockQuote(t *testing.T) {
	rec, _ := render(t, Config{Caps: plainCaps(80)}, "> quoted text\n>\n> second\n")

	assert.Equal(t, "┃ quoted text\n┃\n┃ second\n", rec.text())
}

func TestCodeBlockIsIndentedAndNotWrapped(t *testing.T) {
	source := "```\nfunc main() { fmt.Println(\"a long line that is wider than the terminal\") }\n\nx\n```\n"
	rec, stats := render(t, Config{Caps: plainCaps(20)}, source)

	assert.Equal(t, "    func main() { fmt.Println(\"a long line that is wider than the terminal\") }\n\n    x\n", rec.text())
	assert.Equal(t, 1, stats.CodeBlocks)
}

func TestCodeBlockHighlighting(t *testing.T) {
	cfg := Config{Caps: colorCaps(terminal.TrueColor), Highlighter: highlight.New(false)}
	rec, _ := render(t, cfg, "```go\npackage main\n```\n")

	assert.Equal(t, "    package main\n", rec.text())

	var keyword *output.Run
	for i, run := range rec.runs {
		if run.Text == "package" {
			keyword = &rec.runs[i]
		}
	}
	require.NotNil(t, keyword)
	assert.False(t, keyword.Style.IsZero())
}

func TestUnknownLanguageIsUnstyled(t *testing.T) {
	cfg := Config{Caps: colorCaps(terminal.TrueColor), Highlighter: highlight.New(false)}
	rec, _ := render(t, cfg, "```nosuchlanguage\nplain words\n```\n")

	for _, run := range rec.runs {
		if strings.Contains(run.Text, "plain") {
			assert.True(t, run.Style.IsZero())
		}
	}
}

func TestRule(t *testing.T) {
	rec, _ := render(t, Config{Caps: plainCaps(10)}, "---\n")

	assert.Equal(t, strings.Repeat("─", 10)+"\n", rec.text())
}

func TestHTMLBlockIsVerbatim(t *testing.T) {
	rec, _ := render(t, Config{Caps: plainCaps(80)}, "<div>\nhi\n</div>\n")

	assert.Equal(t, "<div>\nhi\n</div>\n", rec.text())
}

func TestLinkWithoutHyperlinks(t *testing.T) {
	rec, stats := render(t, Config{Caps: plainCaps(80)}, "See [site](https://example.com) and <https://example.com>.\n")

	assert.Equal(t, "See site (https://example.com) and https://example.com.\n", rec.text())
	assert.Equal(t, 2, stats.Links)
}

func TestLinkWithHyperlinks(t *testing.T) {
	caps := colorCaps(terminal.TrueColor)
	caps.Hyperlinks = true

	rec, _ := render(t, Config{Caps: caps}, "See [the site](https://example.com) now\n")

	assert.Equal(t, "See the site now\n", rec.text())
	assert.Equal(t, []string{"\x1b]8;;https://example.com\x1b\\", "\x1b]8;;\x1b\\"}, rec.controls())

	// The hyperlink opens right before its text, after the separating space.
	var order []string
	for _, run := range rec.runs {
		order = append(order, run.Text)
	}
	assert.Equal(t, []string{"See", " ", "\x1b]8;;https://example.com\x1b\\", "the", " ", "site", "\x1b]8;;\x1b\\", " ", "now", "\n"}, order)
}

func TestRelativeLinkBecomesFileURL(t *testing.T) {
	caps := colorCaps(terminal.TrueColor)
	caps.Hyperlinks = true

	rec, _ := render(t, Config{Caps: caps, Options: Options{BaseDir: "/docs"}}, "[other](other.md)\n")

	require.NotEmpty(t, rec.controls())
	assert.Equal(t, "\x1b]8;;file:///docs/other.md\x1b\\", rec.controls()[0])
}

func TestForcedProtocolOnPlainOutputKeepsAltText(t *testing.T) {
	caps := terminal.Detect(terminal.Signals{
		Env:       terminal.Environ{"TERM": "xterm-kitty"},
		IsTTY:     false,
		Width:     80,
		Overrides: terminal.Overrides{ImageProtocol: null.StringFrom("kitty")},
	})
	fetcher := &mapFetcher{files: map[string][]byte{"a.png": testPNG(t, 8, 8)}}
	pipeline := images.NewPipeline(fetcher, "/docs", terminal.DefaultCellSize)

	out := renderBytes(t, Config{Caps: caps, Images: pipeline}, "before ![diagram](a.png) after\n")
	assert.Equal(t, "before diagram after\n", out)

	// Even capabilities built by hand never lose the image on plain output.
	handmade := plainCaps(80)
	handmade.ImageProtocol = terminal.Kitty
	out = renderBytes(t, Config{Caps: handmade, Images: pipeline}, "before ![diagram](a.png) after\n")
	assert.Equal(t, "before diagram after\n", out)
}

func TestBrokenImageFallsBackToAlt(t *testing.T) {
	caps := colorCaps(terminal.TrueColor)
	caps.ImageProtocol = terminal.Kitty
	pipeline := images.NewPipeline(&mapFetcher{}, "/docs", terminal.DefaultCellSize)

	rec, stats := render(t, Config{Caps: caps, Images: pipeline}, "![diagram](missing.png)\n")

	assert.Equal(t, "diagram\n", rec.text())
	assert.Empty(t, rec.controls())
	assert.Equal(t, 1, stats.Images)
}

func TestImageWithoutAltUsesPlaceholder(t *testing.T) {
	rec, _ := render(t, Config{Caps: plainCaps(80)}, "![](missing.png)\n")

	assert.Equal(t, "[image]\n", rec.text())
}

func TestImageIsEmbeddedOnItsOwnLine(t *testing.T) {
	caps := colorCaps(terminal.TrueColor)
	caps.ImageProtocol = terminal.Kitty
	fetcher := &mapFetcher{files: map[string][]byte{"a.png": testPNG(t, 16, 16)}}
	pipeline := images.NewPipeline(fetcher, "/docs", terminal.DefaultCellSize)

	rec, _ := render(t, Config{Caps: caps, Images: pipeline}, "Before ![a](a.png) after\n")

	assert.Equal(t, "Before\n\nafter\n", rec.text())
	require.NotEmpty(t, rec.controls())
	assert.True(t, strings.HasPrefix(rec.controls()[0], "\x1b_Ga=T,f=100"))
	assert.Equal(t, 1, fetcher.calls)
}

func TestForcedNoImagesNeverFetches(t *testing.T) {
	caps := terminal.Detect(terminal.Signals{
		Env:       terminal.Environ{"TERM": "xterm-kitty"},
		IsTTY:     true,
		Overrides: terminal.Overrides{NoImages: null.BoolFrom(true)},
	})
	require.Equal(t, terminal.NoImages, caps.ImageProtocol)

	fetcher := &mapFetcher{files: map[string][]byte{"a.png": testPNG(t, 4, 4)}}
	pipeline := images.NewPipeline(fetcher, "/docs", terminal.DefaultCellSize)

	rec, _ := render(t, Config{Caps: caps, Images: pipeline}, "![logo](a.png)\n")

	assert.Equal(t, "logo\n", rec.text())
	assert.Empty(t, rec.controls())
	assert.Zero(t, fetcher.calls)
}

func TestTableOverflowIsNotWrapped(t *testing.T) {
	long := strings.Repeat("w", 200)
	source := "| a | b |\n|---|---|\n| x | " + long + " |\n"

	rec, stats := render(t, Config{Caps: plainCaps(80)}, source)

	lines := strings.Split(strings.TrimSuffix(rec.text(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "a │ b", lines[0])
	assert.Equal(t, "─"+"─┼─"+strings.Repeat("─", 200), lines[1])
	assert.Equal(t, "x │ "+long, lines[2])
	assert.Equal(t, 1, stats.Tables)
}

func TestTableAlignment(t *testing.T) {
	source := "| left | mid | right |\n|:-----|:---:|------:|\n| a | b | c |\n"
	rec, _ := render(t, Config{Caps: plainCaps(80)}, source)

	lines := strings.Split(strings.TrimSuffix(rec.text(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "left │ mid │ right", lines[0])
	assert.Equal(t, "a    │  b  │     c", lines[2])
}

func TestTableHeaderIsStyled(t *testing.T) {
	rec, _ := render(t, Config{Caps: colorCaps(terminal.TrueColor)}, "| head |\n|---|\n| body |\n")

	for _, run := range rec.runs {
		if run.Text == "head" {
			assert.True(t, run.Style.Bold)
		}
	}
}

func TestImagesInTablesFallBack(t *testing.T) {
	caps := colorCaps(terminal.TrueColor)
	caps.ImageProtocol = terminal.Kitty
	fetcher := &mapFetcher{files: map[string][]byte{"a.png": testPNG(t, 4, 4)}}
	pipeline := images.NewPipeline(fetcher, "/docs", terminal.DefaultCellSize)

	rec, _ := render(t, Config{Caps: caps, Images: pipeline}, "| pic |\n|---|\n| ![logo](a.png) |\n")

	assert.Contains(t, rec.text(), "logo")
	assert.Empty(t, rec.controls())
	assert.Zero(t, fetcher.calls)
}

func TestUnbalancedStreamsAreFatal(t *testing.T) {
	tests := map[string][]markdown.Event{
		"mismatched exit": {
			markdown.EnterEvent(markdown.Paragraph), markdown.ExitEvent(markdown.Heading),
		},
		"exit on root": {
			markdown.ExitEvent(markdown.Paragraph),
		},
		"left open": {
			markdown.EnterEvent(markdown.List), markdown.EnterEvent(markdown.Item),
		},
		"inline left open": {
			markdown.EnterEvent(markdown.Paragraph), markdown.EnterEvent(markdown.Emphasis),
			markdown.TextEvent("x"), markdown.ExitEvent(markdown.Paragraph),
		},
		"document never closed": {
			markdown.EnterEvent(markdown.Document),
		},
		"item outside list": {
			markdown.EnterEvent(markdown.Item), markdown.ExitEvent(markdown.Item),
		},
		"events after document": {
			markdown.EnterEvent(markdown.Document), markdown.ExitEvent(markdown.Document), markdown.TextEvent("x"),
		},
	}

	for name, events := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := New(&recorder{}, Config{Caps: plainCaps(80)}).Render(context.Background(), events)

			require.Error(t, err)
			assert.True(t, errs.IsFatal(err), err.Error())
		})
	}
}

func TestMismatchNamesBothKinds(t *testing.T) {
	events := []markdown.Event{
		markdown.EnterEvent(markdown.List), markdown.EnterEvent(markdown.Item), markdown.ExitEvent(markdown.List),
	}

	_, err := New(&recorder{}, Config{Caps: plainCaps(80)}).Render(context.Background(), events)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "exit List while Item is open")
}

func TestOutputClosedStopsRendering(t *testing.T) {
	rec := &recorder{fail: errs.ErrOutputClosed}

	_, err := New(rec, Config{Caps: plainCaps(80)}).Render(context.Background(), markdown.Parse([]byte("a\n\nb\n")))

	assert.True(t, errors.Is(err, errs.ErrOutputClosed))
	assert.False(t, errs.IsFatal(err))
}

func TestCancelledContextInterrupts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(&recorder{}, Config{Caps: plainCaps(80)}).Render(ctx, markdown.Parse([]byte("a\n")))

	assert.True(t, errors.Is(err, errs.ErrInterrupted))
}

// interruptingEmbedder cancels the render while handing back the first chunk of a Kitty
// transmission.
type interruptingEmbedder struct {
	cancel context.CancelFunc
}

func (e interruptingEmbedder) Embed(context.Context, images.Ref, images.Box, terminal.Capabilities) images.Result {
	e.cancel()
	return images.Result{Runs: []output.Run{
		output.Control("\x1b_Ga=T,f=100,q=2,c=1,r=1,m=1;eA==\x1b\\", images.KittyAbort),
	}}
}

func TestInterruptedImageInsideLinkClosesBoth(t *testing.T) {
	caps := colorCaps(terminal.TrueColor)
	caps.Hyperlinks = true
	caps.ImageProtocol = terminal.Kitty

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var buf bytes.Buffer
	w := output.NewWriter(&buf, output.Options{})
	_, err := New(w, Config{Caps: caps, Images: interruptingEmbedder{cancel}}).
		Render(ctx, markdown.Parse([]byte("[![badge](b.png)](https://example.com)\n")))
	require.True(t, errors.Is(err, errs.ErrInterrupted))
	require.NoError(t, w.Finish())

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "\x1b]8;;https://example.com\x1b\\"))
	assert.Equal(t, 1, strings.Count(out, images.KittyAbort))
	assert.Equal(t, 1, strings.Count(out, output.HyperlinkEnd))
	assert.Less(t, strings.Index(out, images.KittyAbort), strings.Index(out, output.HyperlinkEnd))
}

const sampleDocument = `# Title

Some *emphasis*, **strong**, ~~struck~~ and ` + "`code`" + ` text with a [link](https://example.com).

> A quote
> spanning lines.

- one
- two
  1. nested

| a | b |
|---|:-:|
| x | y |

` + "```go\nfunc main() {}\n```\n\n---\n\n![missing](missing.png)\n"

func TestRenderingIsStable(t *testing.T) {
	cfg := Config{Caps: colorCaps(terminal.TrueColor), Highlighter: highlight.New(false)}

	first := renderBytes(t, cfg, sampleDocument)
	second := renderBytes(t, cfg, sampleDocument)

	assert.Equal(t, first, second)
}

func TestDegradationKeepsTextAndShrinksOutput(t *testing.T) {
	depths := []terminal.ColorDepth{terminal.TrueColor, terminal.ANSI256, terminal.ANSI16, terminal.Mono}

	var outputs []string
	for _, depth := range depths {
		cfg := Config{Caps: colorCaps(depth), Highlighter: highlight.New(false)}
		outputs = append(outputs, renderBytes(t, cfg, sampleDocument))
	}

	plain := renderBytes(t, Config{Caps: plainCaps(80)}, sampleDocument)
	assert.NotContains(t, plain, "\x1b")

	for i, out := range outputs {
		assert.Equal(t, plain, util.RemoveColors(out), depths[i].String())
		if i > 0 {
			assert.LessOrEqual(t, len(out), len(outputs[i-1]), "%s is longer than %s", depths[i], depths[i-1])
		}
	}
}

func TestImageFallbackAlwaysShowsAlt(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		words := rapid.SliceOfN(rapid.StringMatching(`[a-z]{1,8}`), 1, 4).Draw(t, "words")
		protocol := rapid.SampledFrom([]terminal.ImageProtocol{
			terminal.NoImages, terminal.ITerm2, terminal.Kitty, terminal.Terminology,
		}).Draw(t, "protocol")
		alt := strings.Join(words, " ")

		caps := colorCaps(terminal.TrueColor)
		caps.ImageProtocol = protocol
		pipeline := images.NewPipeline(&mapFetcher{}, "/docs", terminal.DefaultCellSize)

		rec := &recorder{}
		_, err := New(rec, Config{Caps: caps, Images: pipeline}).Render(context.Background(),
			markdown.Parse([]byte("![  "+alt+"  ](gone.png)\n")))
		if err != nil {
			t.Fatal(err)
		}

		if !strings.Contains(rec.text(), alt) {
			t.Fatalf("%q does not contain %q", rec.text(), alt)
		}
		if len(rec.controls()) != 0 {
			t.Fatalf("unexpected control runs %q", rec.controls())
		}
	})
}

func TestWrappedLinesFitTheWidth(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		width := rapid.IntRange(10, 60).Draw(t, "width")
		words := rapid.SliceOfN(rapid.StringMatching(`[a-z]{1,9}`), 1, 40).Draw(t, "words")

		rec := &recorder{}
		_, err := New(rec, Config{Caps: plainCaps(width)}).Render(context.Background(),
			markdown.Parse([]byte(strings.Join(words, " ")+"\n")))
		if err != nil {
			t.Fatal(err)
		}

		for _, line := range strings.Split(rec.text(), "\n") {
			if runewidth.StringWidth(line) > width {
				t.Fatalf("line %q is wider than %d", line, width)
			}
		}
		if strings.Join(strings.Fields(rec.text()), " ") != strings.Join(words, " ") {
			t.Fatalf("words changed: %q", rec.text())
		}
	})
}

func TestStats(t *testing.T) {
	_, stats := render(t, Config{Caps: plainCaps(80), Options: Options{SourceLines: 3}}, "# Title\n\nOne two *thr*ee.\n")

	assert.Equal(t, 4, stats.Words)
	assert.Equal(t, 19, stats.Characters)
	assert.Equal(t, 3, stats.Lines)
	assert.Equal(t, 1, stats.Headings)
	assert.Equal(t, 1, stats.ReadingTime())
}

func TestStatsReport(t *testing.T) {
	stats := Stats{Characters: 10, Words: 450, Lines: 3, Headings: 1, Tables: 2}

	assert.Equal(t, "Document Statistics:\n"+
		"───────────────────\n"+
		"Characters: 10\n"+
		"Words: 450\n"+
		"Lines: 3\n"+
		"Headings: 1\n"+
		"Code blocks: 0\n"+
		"Links: 0\n"+
		"Images: 0\n"+
		"Lists: 0\n"+
		"Tables: 2\n"+
		"Estimated reading time: 2 minutes\n", stats.String())

	stats.Words = 10
	assert.Contains(t, stats.String(), "Estimated reading time: 1 minute\n")
}
