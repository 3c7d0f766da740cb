package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/elseano/mdcat/pkg/config"
	"github.com/elseano/mdcat/pkg/terminal"
)

const overrideNote = "Detection can be overridden with --image-protocol, --no-colour, --ansi and " +
	"--columns, or the matching settings in the config file."

func newDetectCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "detect",
		Short: "Show what mdcat detected about the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadSettings(cmd, v)
			if err != nil {
				return err
			}
			printCapabilities(cmd.OutOrStdout(), outputSignals(cmd.OutOrStdout(), cfg))
			return nil
		},
	}
}

func printCapabilities(w io.Writer, signals terminal.Signals) {
	caps := terminal.Detect(signals)

	header := color.New(color.Bold)
	yes := color.New(color.FgGreen).Sprint("yes")
	no := color.New(color.FgRed).Sprint("no")
	flag := func(b bool) string {
		if b {
			return yes
		}
		return no
	}

	var details strings.Builder
	row := func(label, value string) {
		fmt.Fprintf(&details, "%-15s %s\n", label+":", value)
	}
	row("Colours", caps.ColorDepth.String())
	row("Images", caps.ImageProtocol.String())
	row("Hyperlinks", flag(caps.Hyperlinks))
	row("Jump marks", flag(caps.JumpMarks))
	row("Strikethrough", flag(caps.Strikethrough))
	row("Italic", flag(caps.Italic))
	row("Plain output", flag(caps.Plain))
	row("Width", fmt.Sprintf("%d columns", caps.Width))

	header.Fprintf(w, "Terminal: %s\n", caps.Name)
	fmt.Fprint(w, indent.String(details.String(), 2))
	fmt.Fprintf(w, "\n%s\n", wordwrap.String(overrideNote, caps.Width))
}

// outputSignals gathers detection signals for the given output. Anything which isn't an
// open file is treated as a pipe.
func outputSignals(out io.Writer, cfg config.Config) terminal.Signals {
	if f, ok := out.(*os.File); ok {
		return terminal.SignalsFromProcess(f, cfg.Overrides())
	}
	return terminal.Signals{Env: terminal.EnvironFromOS(), Overrides: cfg.Overrides()}
}
