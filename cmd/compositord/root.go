package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gogpu/compositor"
	"github.com/gogpu/compositor/output"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	logLevel  string
	settings  string
	overrides []string
	sink      string
}

func newRootCmd() *cobra.Command {
	var g globalFlags
	root := &cobra.Command{
		Use:           "compositord",
		Short:         "Run a compositor pipeline over a scene scenario",
		Version:       compositor.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			l, err := newLogger(cmd.ErrOrStderr(), g.logLevel)
			if err != nil {
				return err
			}
			compositor.SetLogger(l)
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	pf.StringVar(&g.settings, "settings", "", "YAML settings file")
	pf.StringArrayVar(&g.overrides, "set", nil, "settings override as key=value, repeatable")
	pf.StringVar(&g.sink, "sink", "", "output backend name (default: best available)")

	root.AddCommand(newSimulateCmd(&g), newServeCmd(&g), newSinksCmd())
	return root
}

// newLogger builds the CLI logger: text on w, "error" attributes renamed
// to "err".
func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lv slog.Level
	if err := lv.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: lv,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == "error" {
				a.Key = "err"
			}
			return a
		},
	})), nil
}

// loadSettings reads --settings, or the defaults, and applies --set.
func (g *globalFlags) loadSettings() (compositor.Settings, error) {
	s := compositor.DefaultSettings()
	if g.settings != "" {
		var err error
		if s, err = compositor.LoadSettings(g.settings); err != nil {
			return compositor.Settings{}, err
		}
	}
	if err := s.ApplyOverrides(g.overrides); err != nil {
		return compositor.Settings{}, err
	}
	return s, nil
}

func (g *globalFlags) newSink() (output.Sink, error) {
	if g.sink == "" {
		return output.NewSink(output.Options{})
	}
	return output.NewSinkByName(g.sink, output.Options{})
}

func newSinksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sinks",
		Short: "List the registered output backends",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(output.List(), "\n"))
			return nil
		},
	}
}
