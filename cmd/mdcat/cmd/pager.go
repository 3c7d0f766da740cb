package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/elseano/mdcat/pkg/config"
	"github.com/elseano/mdcat/pkg/util"
)

type pager struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
}

// pagerCommand is the configured pager. $PAGER wins over the built-in default but not
// over an explicit setting.
func pagerCommand(cfg config.Config) string {
	if env := os.Getenv("PAGER"); env != "" && cfg.Pager == config.Defaults().Pager {
		return env
	}
	return cfg.Pager
}

func startPager(command string, stdout, stderr io.Writer) (*pager, error) {
	args := strings.Fields(command)
	if len(args) == 0 {
		return nil, errors.New("empty pager command")
	}

	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to pager: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start pager %q: %w", args[0], err)
	}

	util.Logger.Debug().Str("pager", command).Msg("Paginating output")
	return &pager{cmd: cmd, stdin: stdin}, nil
}

func (p *pager) Writer() io.Writer {
	return p.stdin
}

// Close ends the pager's input and waits until the user quits it.
func (p *pager) Close() error {
	p.stdin.Close()
	return p.cmd.Wait()
}
