package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
var version = "dev"

// exitErr carries a numeric exit code through the cobra error path.
type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

// codeError returns an exitErr for the given code.
func codeError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}

// rootFlags holds the persistent flags shared by every command.
type rootFlags struct {
	configPath string
	baseURL    string
	store      string
	storePath  string
	logLevel   string
}

func main() {
	root := newRootCmd(os.Stdout, os.Stderr)
	if err := root.Execute(); err != nil {
		var ee *exitErr
		if errors.As(err, &ee) {
			fmt.Fprintln(os.Stderr, "Error:", ee.msg)
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	var flags rootFlags

	root := &cobra.Command{
		Use:           "talentctl",
		Short:         "Talent matching API client",
		Long:          "talentctl signs in to the talent matching API, keeps the session credential and reads profiles and shortlists.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "Path to a TOML config file")
	pf.StringVar(&flags.baseURL, "base-url", "", "API base URL (overrides config)")
	pf.StringVar(&flags.store, "store", "", "Credential store driver: memory, file or sqlite")
	pf.StringVar(&flags.storePath, "store-path", "", "Credential store path for the file and sqlite drivers")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn or error")

	root.AddCommand(
		newLoginCmd(&flags),
		newRegisterCmd(&flags),
		newLogoutCmd(&flags),
		newWhoamiCmd(&flags),
		newAccessCmd(&flags),
		newProfileCmd(&flags),
		newRecruiterCmd(&flags),
		newWatchCmd(&flags),
	)

	return root
}
