package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/homologa/vehicle-homologation/internal/domain/entity"
	"github.com/homologa/vehicle-homologation/internal/domain/workflow"
)

const timeLayout = "2006-01-02 15:04:05"

// AllowedResult is the output of the allowed command
type AllowedResult struct {
	Status   string   `json:"status"`
	Terminal bool     `json:"terminal"`
	Allowed  []string `json:"allowed"`
}

// ExportResult is the output of the export command
type ExportResult struct {
	Path string `json:"path"`
	Rows int    `json:"rows"`
}

// NewAllowedCommand lists legal targets from a status. It never opens the database.
func NewAllowedCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "allowed <status>",
		Short: "List the statuses reachable from a status",
		Example: `  homologctl allowed PENDING_REVIEW
  homologctl allowed paid --format json`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := workflow.ParseState(args[0])
			if err != nil {
				return err
			}

			targets := workflow.AllowedTargets(from)
			result := AllowedResult{
				Status:   from.String(),
				Terminal: from.IsTerminal(),
				Allowed:  make([]string, len(targets)),
			}
			for i, t := range targets {
				result.Allowed[i] = t.String()
			}

			return opts.Formatter(cmd).Success(result, func(w io.Writer) {
				if result.Terminal {
					fmt.Fprintf(w, "%s is terminal; no transitions allowed\n", result.Status)
					return
				}
				for _, t := range targets {
					marker := ""
					if workflow.RequiresElevation(t) {
						marker = " (admin)"
					}
					fmt.Fprintf(w, "%s -> %s%s\n", result.Status, t, marker)
				}
			})
		},
	}
}

// NewShowCommand prints one submission.
func NewShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <submission-id>",
		Short: "Show a submission",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := opts.openBackend(cmd.Context())
			if err != nil {
				return err
			}

			sub, err := backend.Submissions.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return opts.Formatter(cmd).Success(sub, func(w io.Writer) {
				writeSubmission(w, sub)
			})
		},
	}
}

// NewHistoryCommand prints the audit trail of a submission, oldest first.
func NewHistoryCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "history <submission-id>",
		Short: "Show the audit trail of a submission",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := opts.openBackend(cmd.Context())
			if err != nil {
				return err
			}

			entries, err := backend.Submissions.History(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if entries == nil {
				entries = []*entity.AuditEntry{}
			}

			return opts.Formatter(cmd).Success(entries, func(w io.Writer) {
				if len(entries) == 0 {
					fmt.Fprintln(w, "No history recorded")
					return
				}
				for _, e := range entries {
					writeAuditEntry(w, e)
				}
			})
		},
	}
}

// NewTransitionCommand moves a submission to an explicit target status.
func NewTransitionCommand(opts *RootOptions) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "transition <submission-id> <target>",
		Short: "Move a submission to a target status",
		Example: `  homologctl transition 1b9d... PENDING_REVIEW --actor clerk-7
  homologctl transition 1b9d... REJECTED --admin --reason "chassis number mismatch"`,
		Args: exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := workflow.ParseState(args[1])
			if err != nil {
				return err
			}

			return runTransition(cmd, opts, func(ctx context.Context, b *Backend) (*entity.Submission, error) {
				return b.Engine.Transition(ctx, args[0], target, opts.Actor(), reason)
			})
		},
	}
	cmd.Flags().StringVarP(&reason, "reason", "r", "", "reason recorded with the transition")

	return cmd
}

type convenienceVerb struct {
	name      string
	short     string
	hasReason bool
	run       func(ctx context.Context, b *Backend, id string, actor entity.Actor, reason string) (*entity.Submission, error)
}

var convenienceVerbs = []convenienceVerb{
	{
		name:  "submit",
		short: "Submit a draft or incomplete submission for review",
		run: func(ctx context.Context, b *Backend, id string, actor entity.Actor, _ string) (*entity.Submission, error) {
			return b.Engine.SubmitForReview(ctx, id, actor)
		},
	},
	{
		name:      "approve",
		short:     "Approve a submission (admin)",
		hasReason: true,
		run: func(ctx context.Context, b *Backend, id string, actor entity.Actor, reason string) (*entity.Submission, error) {
			return b.Engine.Approve(ctx, id, actor, reason)
		},
	},
	{
		name:      "reject",
		short:     "Reject a submission (admin)",
		hasReason: true,
		run: func(ctx context.Context, b *Backend, id string, actor entity.Actor, reason string) (*entity.Submission, error) {
			return b.Engine.Reject(ctx, id, actor, reason)
		},
	},
	{
		name:      "incomplete",
		short:     "Send a submission back to the owner for corrections",
		hasReason: true,
		run: func(ctx context.Context, b *Backend, id string, actor entity.Actor, reason string) (*entity.Submission, error) {
			return b.Engine.MarkIncomplete(ctx, id, actor, reason)
		},
	},
	{
		name:      "complete",
		short:     "Close an approved submission (admin)",
		hasReason: true,
		run: func(ctx context.Context, b *Backend, id string, actor entity.Actor, reason string) (*entity.Submission, error) {
			return b.Engine.Complete(ctx, id, actor, reason)
		},
	},
}

func newConvenienceCommand(opts *RootOptions, verb convenienceVerb) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   verb.name + " <submission-id>",
		Short: verb.short,
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransition(cmd, opts, func(ctx context.Context, b *Backend) (*entity.Submission, error) {
				return verb.run(ctx, b, args[0], opts.Actor(), reason)
			})
		},
	}
	if verb.hasReason {
		cmd.Flags().StringVarP(&reason, "reason", "r", "", "reason recorded with the transition")
	}

	return cmd
}

func runTransition(cmd *cobra.Command, opts *RootOptions, op func(ctx context.Context, b *Backend) (*entity.Submission, error)) error {
	backend, err := opts.openBackend(cmd.Context())
	if err != nil {
		return err
	}

	sub, err := op(cmd.Context(), backend)
	if err != nil {
		return err
	}

	return opts.Formatter(cmd).Success(sub, func(w io.Writer) {
		fmt.Fprintf(w, "Submission %s is now %s (version %d)\n", sub.ID, sub.Status, sub.Version)
	})
}

// NewExportCommand writes the submission workbook to a file.
func NewExportCommand(opts *RootOptions) *cobra.Command {
	var (
		out         string
		status      string
		vehicleType string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export submissions to an Excel workbook (admin)",
		Example: `  homologctl export --admin --out submissions.xlsx
  homologctl export --admin --out approved.xlsx --status APPROVED`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := entity.SubmissionFilter{VehicleType: entity.VehicleType(strings.ToUpper(vehicleType))}
			if status != "" {
				s, err := workflow.ParseState(status)
				if err != nil {
					return err
				}
				filter.Status = s
			}

			backend, err := opts.openBackend(cmd.Context())
			if err != nil {
				return err
			}

			rows, err := exportToFile(cmd.Context(), backend, filter, opts.Actor(), out)
			if err != nil {
				return err
			}

			result := ExportResult{Path: out, Rows: rows}
			return opts.Formatter(cmd).Success(result, func(w io.Writer) {
				fmt.Fprintf(w, "Exported %d submission(s) to %s\n", rows, out)
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output .xlsx path (required)")
	_ = cmd.MarkFlagRequired("out")
	cmd.Flags().StringVar(&status, "status", "", "only export submissions in this status")
	cmd.Flags().StringVar(&vehicleType, "vehicle-type", "", "only export this vehicle type")

	return cmd
}

// exportToFile writes to a temp file next to path and renames it into place
func exportToFile(ctx context.Context, b *Backend, filter entity.SubmissionFilter, actor entity.Actor, path string) (int, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".homologctl-export-*")
	if err != nil {
		return 0, fmt.Errorf("create output: %w", err)
	}
	defer os.Remove(tmp.Name())

	rows, err := b.Reports.ExportSubmissions(ctx, filter, actor, tmp)
	if closeErr := tmp.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("write output: %w", closeErr)
	}
	if err != nil {
		return 0, err
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, fmt.Errorf("write output: %w", err)
	}
	return rows, nil
}

func writeSubmission(w io.Writer, s *entity.Submission) {
	fmt.Fprintf(w, "ID:           %s\n", s.ID)
	fmt.Fprintf(w, "Status:       %s\n", s.Status)
	fmt.Fprintf(w, "Owner:        %s\n", s.OwnerFullName)
	fmt.Fprintf(w, "National ID:  %s\n", s.OwnerNationalID)
	fmt.Fprintf(w, "Phone:        %s\n", s.OwnerPhone)
	fmt.Fprintf(w, "Email:        %s\n", s.OwnerEmail)
	fmt.Fprintf(w, "Vehicle type: %s\n", s.VehicleType)
	fmt.Fprintf(w, "Version:      %d\n", s.Version)
	fmt.Fprintf(w, "Created:      %s by %s\n", formatTime(s.CreatedAt), s.CreatedBy)
	fmt.Fprintf(w, "Updated:      %s by %s\n", formatTime(s.UpdatedAt), s.UpdatedBy)
}

func writeAuditEntry(w io.Writer, e *entity.AuditEntry) {
	line := fmt.Sprintf("%s  %-14s  %-16s", formatTime(e.CreatedAt), e.Action, e.ActorID)

	if e.Action == entity.AuditActionStatusChange {
		line += fmt.Sprintf("  %v -> %v", e.OldValues["status"], e.NewValues["status"])
	} else if changed := changedKeys(e); changed != "" {
		line += "  " + changed
	}
	if e.Reason != "" {
		line += fmt.Sprintf("  (%s)", e.Reason)
	}

	fmt.Fprintln(w, strings.TrimRight(line, " "))
}

// changedKeys lists the fields an entry touched, sorted
func changedKeys(e *entity.AuditEntry) string {
	keys := make([]string, 0, len(e.NewValues))
	for k := range e.NewValues {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(timeLayout)
}
