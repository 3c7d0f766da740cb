package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/thecodeteam/goodbye"

	"github.com/elseano/mdcat/pkg/config"
	"github.com/elseano/mdcat/pkg/errs"
	"github.com/elseano/mdcat/pkg/highlight"
	"github.com/elseano/mdcat/pkg/images"
	"github.com/elseano/mdcat/pkg/markdown"
	"github.com/elseano/mdcat/pkg/output"
	"github.com/elseano/mdcat/pkg/renderer"
	"github.com/elseano/mdcat/pkg/styles"
	"github.com/elseano/mdcat/pkg/terminal"
	"github.com/elseano/mdcat/pkg/util"
)

const cleanupTimeout = 2 * time.Second

func run(cmd *cobra.Command, v *viper.Viper, args []string) error {
	cfg, err := loadSettings(cmd, v)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	signals := outputSignals(out, cfg)

	if flagDetect {
		printCapabilities(out, signals)
		return nil
	}

	if len(args) == 0 {
		args = []string{"-"}
	}

	theme, err := cfg.LoadTheme()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrorUsage, err)
	}

	caps := terminal.Detect(signals)
	util.Logger.Debug().Str("terminal", caps.Name).Str("colours", caps.ColorDepth.String()).
		Str("images", caps.ImageProtocol.String()).Bool("plain", caps.Plain).Msg("Detected terminal")

	cell := terminal.DefaultCellSize
	if f, ok := out.(*os.File); ok {
		cell = terminal.CellPixels(f)
	}

	r := &runner{
		cfg:         cfg,
		caps:        caps,
		theme:       theme,
		highlighter: highlight.New(cfg.GuessLanguage),
		parser:      markdown.NewParser(),
		stdin:       cmd.InOrStdin(),
		cell:        cell,
		userAgent:   "mdcat/" + Version,
	}

	dest := out
	var pg *pager
	if cfg.Paginate && !flagNoPager && signals.IsTTY {
		if pg, err = startPager(pagerCommand(cfg), out, cmd.ErrOrStderr()); err != nil {
			util.Logger.Warn().Err(err).Msg("Showing output without a pager")
		} else {
			dest = pg.Writer()
		}
	}

	ctx, cancel := context.WithCancel(contextOf(cmd))
	defer cancel()
	interrupts.watch(cancel)

	total, err := r.renderAll(ctx, cmd.ErrOrStderr(), dest, args)

	if pg != nil {
		if perr := pg.Close(); perr != nil {
			util.Logger.Debug().Err(perr).Msg("Pager exited")
		}
		// Quitting the pager early is how paging normally ends.
		if errors.Is(err, errs.ErrOutputClosed) {
			err = nil
		}
	}

	if cfg.Stats && !errors.Is(err, errs.ErrOutputClosed) {
		printStats(cmd.ErrOrStderr(), total, !caps.Plain)
	}

	return err
}

type runner struct {
	cfg         config.Config
	caps        terminal.Capabilities
	theme       *styles.Theme
	highlighter highlight.Highlighter
	parser      *markdown.Parser
	stdin       io.Reader
	cell        terminal.CellSize
	userAgent   string
}

// renderAll renders each file in turn. Files which can't be read are reported and skipped
// unless --fail is set; every other error ends the run.
func (r *runner) renderAll(ctx context.Context, errOut, dest io.Writer, files []string) (renderer.Stats, error) {
	var total renderer.Stats
	var inputErr error
	rendered := 0

	for _, name := range files {
		source, baseDir, err := readInput(name, r.stdin)
		if err != nil {
			inputErr = fmt.Errorf("%w: %v", ErrorInput, err)
			if flagFail {
				return total, inputErr
			}
			handleError(errOut, inputErr, terminalColors(errOut))
			continue
		}

		if rendered > 0 {
			if _, err := io.WriteString(dest, "\n"); err != nil {
				return total, errs.ErrOutputClosed
			}
		}

		stats, err := r.renderFile(ctx, dest, source, baseDir)
		total.Add(stats)
		rendered++
		if err != nil {
			return total, fmt.Errorf("%s: %w", name, err)
		}
	}

	if inputErr != nil {
		return total, reportedError{inputErr}
	}
	return total, nil
}

func (r *runner) renderFile(ctx context.Context, dest io.Writer, source []byte, baseDir string) (renderer.Stats, error) {
	lines := bytes.Count(source, []byte("\n"))
	if len(source) > 0 && !bytes.HasSuffix(source, []byte("\n")) {
		lines++
	}

	lineNumberWidth := 0
	if r.cfg.LineNumbers {
		lineNumberWidth = output.LineNumberWidth(lines)
	}

	w := output.NewWriter(dest, output.Options{
		LineNumberWidth: lineNumberWidth,
		Plain:           r.caps.Plain,
		FlushLines:      !r.caps.Plain,
	})
	interrupts.track(w)
	defer interrupts.track(nil)

	fetcher := images.NewResourceFetcher(baseDir, r.cfg.LocalOnly, r.cfg.FetchTimeout, r.userAgent)
	pipeline := images.NewPipeline(fetcher, baseDir, r.cell)
	pipeline.Placeholder = r.cfg.ImagePlaceholder
	pipeline.Describe = r.cfg.ImageDescribe
	pipeline.Blocks = r.cfg.BlockImages()

	rd := renderer.New(w, renderer.Config{
		Caps:        r.caps,
		Theme:       r.theme,
		Highlighter: r.highlighter,
		Images:      pipeline,
		Options: renderer.Options{
			LineNumberWidth: lineNumberWidth,
			ImageMaxHeight:  r.cfg.ImageMaxHeight,
			SourceLines:     lines,
			BaseDir:         baseDir,
		},
	})

	stats, err := rd.Render(ctx, r.parser.Parse(source))
	if finishErr := w.Finish(); err == nil {
		err = finishErr
	}
	return stats, err
}

// readInput reads a file, or standard input for "-". The base directory resolves the
// document's relative references.
func readInput(name string, stdin io.Reader) ([]byte, string, error) {
	if name == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read standard input: %w", err)
		}
		dir, err := os.Getwd()
		if err != nil {
			dir = "."
		}
		return data, dir, nil
	}

	data, err := os.ReadFile(name)
	if err != nil {
		return nil, "", err
	}

	abs, err := filepath.Abs(name)
	if err != nil {
		return nil, "", err
	}
	return data, filepath.Dir(abs), nil
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func terminalColors(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && terminal.IsTerminal(f)
}

// interruptHandler cancels the render on SIGINT or SIGTERM and makes sure the output is
// left in a clean state before the process exits.
type interruptHandler struct {
	once   sync.Once
	mu     sync.Mutex
	cancel context.CancelFunc
	writer *output.Writer
}

var interrupts = &interruptHandler{}

var exit = os.Exit

func (h *interruptHandler) watch(cancel context.CancelFunc) {
	h.mu.Lock()
	h.cancel = cancel
	h.mu.Unlock()

	h.once.Do(func() {
		goodbye.Register(h.handle)
	})
}

func (h *interruptHandler) track(w *output.Writer) {
	h.mu.Lock()
	h.writer = w
	h.mu.Unlock()
}

func (h *interruptHandler) handle(ctx context.Context, sig os.Signal) {
	// Normal exits come through here too.
	if sig == nil || goodbye.IsNormalExit(sig) {
		return
	}

	h.mu.Lock()
	cancel, w := h.cancel, h.writer
	h.mu.Unlock()

	util.Logger.Debug().Str("signal", sig.String()).Msg("Interrupted")

	if cancel != nil {
		cancel()
	}
	if w != nil {
		done := make(chan struct{})
		go func() {
			w.Finish()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(cleanupTimeout):
		}
	}

	exit(ExitInterrupted)
}
