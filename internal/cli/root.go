// Package cli implements homologctl, the back-office command line for
// homologation submissions.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/homologa/vehicle-homologation/internal/config"
	"github.com/homologa/vehicle-homologation/internal/domain/entity"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	ActorID    string
	Admin      bool
	Format     string // "json" | "text"

	factory BackendFactory
	backend *Backend
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// Actor returns the actor the command runs as
func (o *RootOptions) Actor() entity.Actor {
	return entity.Actor{ID: o.ActorID, Elevated: o.Admin}
}

// Formatter returns an output formatter bound to the command's writers
func (o *RootOptions) Formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr()}
}

// openBackend lazily opens the backend; commands that need no storage never call it
func (o *RootOptions) openBackend(ctx context.Context) (*Backend, error) {
	if o.backend != nil {
		return o.backend, nil
	}
	b, err := o.factory(ctx, o.ConfigPath)
	if err != nil {
		return nil, err
	}
	o.backend = b
	return b, nil
}

func (o *RootOptions) closeBackend() error {
	if o.backend == nil || o.backend.Close == nil {
		return nil
	}
	err := o.backend.Close()
	o.backend = nil
	return err
}

// NewRootCommand creates the root command using the given backend factory.
func NewRootCommand(factory BackendFactory) (*cobra.Command, *RootOptions) {
	opts := &RootOptions{factory: factory}

	cmd := &cobra.Command{
		Use:   "homologctl",
		Short: "Back-office tool for vehicle homologation submissions",
		Long: `homologctl inspects and moves vehicle homologation submissions through
their review lifecycle, using the same database as the HTTP server.

Exit codes: 0 success, 1 caller-correctable failure, 2 internal failure,
3 concurrent modification (retry).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return usageError("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			opts.ActorID = strings.TrimSpace(opts.ActorID)
			if opts.ActorID == "" {
				return usageError("--actor must not be empty")
			}
			return nil
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError("%v", err)
	})

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", config.DefaultPath, "path to configuration file")
	cmd.PersistentFlags().StringVar(&opts.ActorID, "actor", "homologctl", "actor id recorded in the audit log")
	cmd.PersistentFlags().BoolVar(&opts.Admin, "admin", false, "act with elevated privilege")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewAllowedCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewTransitionCommand(opts))
	for _, verb := range convenienceVerbs {
		cmd.AddCommand(newConvenienceCommand(opts, verb))
	}
	cmd.AddCommand(NewExportCommand(opts))

	return cmd, opts
}

// Execute runs homologctl with args and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer, factory BackendFactory) int {
	cmd, opts := NewRootCommand(factory)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err != nil && isCobraUsageError(err) {
		err = usageError("%v", err)
	}
	if closeErr := opts.closeBackend(); err == nil && closeErr != nil {
		err = fmt.Errorf("close backend: %w", closeErr)
	}
	if err != nil {
		if opts.Format != "json" {
			opts.Format = "text"
		}
		(&OutputFormatter{Format: opts.Format, Writer: stdout, ErrWriter: stderr}).Failure(err)
	}
	return GetExitCode(err)
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// isCobraUsageError recognises command-line errors cobra reports as plain errors
func isCobraUsageError(err error) bool {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return false
	}
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") || strings.HasPrefix(msg, "required flag")
}

// exactArgs is cobra.ExactArgs with a usage exit code
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return usageError("%s: accepts %d arg(s), received %d", cmd.CommandPath(), n, len(args))
		}
		return nil
	}
}
