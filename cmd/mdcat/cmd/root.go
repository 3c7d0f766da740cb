package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/elseano/mdcat/pkg/config"
	"github.com/elseano/mdcat/pkg/util"
)

// Execute runs the command line named after the running binary. Invoked as mdless it
// paginates by default.
func Execute(version string, gitCommit string) error {
	rootCmd := NewRootCmd(filepath.Base(os.Args[0]))
	rootCmd.Version = version + " (" + gitCommit + ")"

	err := rootCmd.Execute()
	return handleError(rootCmd.ErrOrStderr(), err, terminalColors(rootCmd.ErrOrStderr()))
}

func NewRootCmd(name string) *cobra.Command {
	name = strings.TrimSuffix(name, filepath.Ext(name))
	mdless := name == "mdless"

	v := config.New()
	v.SetDefault("paginate", mdless)

	use := "mdcat"
	if mdless {
		use = "mdless"
	}

	rootCmd := &cobra.Command{
		Use:   use + " [flags] [file...]",
		Short: "Render markdown in the terminal",
		Long: `Render CommonMark documents with colours, hyperlinks and inline images, adapted to
what the terminal supports. Reads standard input when no file or "-" is given.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, v, args)
		},
	}

	flags := rootCmd.Flags()
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "config file (default: "+config.DefaultPath()+")")
	flags.BoolVar(&flagFail, "fail", false, "Stop at the first file which can't be read")
	flags.BoolVar(&flagDetect, "detect-terminal", false, "Print what was detected about the terminal and exit")
	flags.BoolVarP(&flagNoPager, "no-pager", "P", false, "Never paginate")

	flags.String("theme", config.Defaults().Theme, "Built-in theme")
	flags.String("theme-file", "", "YAML theme file")
	flags.String("images", config.ImagesAuto, "Show images: auto, on or off")
	flags.String("image-protocol", "", "Image protocol to use regardless of detection: iterm2, kitty, terminology or none")
	flags.Bool("no-colour", false, "Disable all colours and other styles")
	flags.Bool("ansi", false, "Use plain ANSI formatting only, no hyperlinks or images")
	flags.Int("columns", 0, "Maximum number of columns to use for output")
	flags.Bool("local", false, "Do not load remote resources like images")
	flags.BoolP("line-numbers", "n", false, "Prefix every output line with its number")
	flags.Bool("stats", false, "Print document statistics after rendering")
	flags.Bool("guess-language", false, "Guess the language of code blocks without a language tag")
	flags.BoolP("paginate", "p", mdless, "Paginate the output")
	flags.CountP("verbose", "v", "Log more, repeat for even more")

	flags.SetNormalizeFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		if name == "no-color" {
			name = "no-colour"
		}
		return pflag.NormalizedName(name)
	})

	bindings := map[string]string{
		"theme":          "theme",
		"theme_file":     "theme-file",
		"images":         "images",
		"image_protocol": "image-protocol",
		"no_color":       "no-colour",
		"ansi_only":      "ansi",
		"columns":        "columns",
		"local_only":     "local",
		"line_numbers":   "line-numbers",
		"stats":          "stats",
		"guess_language": "guess-language",
		"paginate":       "paginate",
		"verbose":        "verbose",
	}
	for key, flag := range bindings {
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", ErrorUsage, err)
	})

	rootCmd.AddCommand(newDetectCmd(v), newCompletionCmd())

	return rootCmd
}

// loadSettings reads the configuration and sets up logging from it.
func loadSettings(cmd *cobra.Command, v *viper.Viper) (config.Config, error) {
	cfg, err := config.Load(v, flagConfig)
	if err != nil {
		return cfg, fmt.Errorf("%w: %v", ErrorUsage, err)
	}

	util.SetupLogger(cfg.Verbose, cmd.ErrOrStderr())
	return cfg, nil
}
