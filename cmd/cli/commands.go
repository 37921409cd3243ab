package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wadjakorntonsri/kind-letters/pkg/core/domain"
)

// withApp opens the store, runs fn and closes the store again.
func withApp(cmd *cobra.Command, open opener, fn func(a *app) error) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	a, err := open(verbose)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func newPendingCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List letters waiting for moderation, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, open, func(a *app) error {
				letters, err := a.letters.ListPending(cmd.Context())
				if err != nil {
					return err
				}
				if len(letters) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No pending letters.")
					return nil
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tSUBMITTED\tNICKNAME\tLETTER")
				for _, l := range letters {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", l.ID, l.CreatedAt.Format(time.RFC3339), l.Nickname, preview(l.LetterText, 60))
				}
				return tw.Flush()
			})
		},
	}
}

func newApproveCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "approve [id]",
		Short: "Publish a pending letter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, open, func(a *app) error {
				if err := a.letters.Approve(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Approved %s\n", args[0])
				return nil
			})
		},
	}
}

func newRejectCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "reject [id]",
		Short: "Delete a pending letter (no error if it is already gone)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, open, func(a *app) error {
				if err := a.letters.Reject(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Rejected %s\n", args[0])
				return nil
			})
		},
	}
}

func newStatsCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show visitor and letter counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, open, func(a *app) error {
				stats, err := a.letters.Stats(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Unique visitors:  %d\n", stats.UniqueVisitors)
				fmt.Fprintf(out, "Pending letters:  %d\n", stats.PendingLetters)
				fmt.Fprintf(out, "Approved letters: %d\n", stats.ApprovedLetters)
				return nil
			})
		},
	}
}

func newExportCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Write every record set to stdout as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, open, func(a *app) error {
				snap, err := a.store.Dump(cmd.Context())
				if err != nil {
					return fmt.Errorf("export failed: %w", err)
				}
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(snap)
			})
		},
	}
}

func newImportCmd(open opener) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load an export file, skipping ids that already exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("failed to open file: %w", err)
			}
			defer f.Close()

			var snap domain.Snapshot
			if err := json.NewDecoder(f).Decode(&snap); err != nil {
				return fmt.Errorf("decode failed: %w", err)
			}

			return withApp(cmd, open, func(a *app) error {
				n, err := a.store.Restore(cmd.Context(), &snap)
				if err != nil {
					return err
				}
				a.log.Debug("import finished", zap.String("file", file), zap.Int("inserted", n))
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d records\n", n)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON file to import")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func preview(s string, n int) string {
	r := []rune(s)
	for i, c := range r {
		if c == '\n' || c == '\t' {
			r[i] = ' '
		}
	}
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n-1]) + "…"
}
