package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tatianab/grave-master/internal/models"
	"github.com/tatianab/grave-master/internal/store"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List stored conversations and YAML exports",
	Args:  cobra.NoArgs,
	RunE:  runSessions,
}

var exportCmd = &cobra.Command{
	Use:   "export <conversation-id> [dir]",
	Short: "Write a conversation's world as YAML files",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runExport,
}

var importCmd = &cobra.Command{
	Use:   "import <name> [dir]",
	Short: "Start a new conversation from a YAML export",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runImport,
}

var contextCmd = &cobra.Command{
	Use:   "context <conversation-id> <query...>",
	Short: "Show the earlier turns the narrator would be given for a query",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runContext,
}

func exportRoot(args []string, i int) string {
	if len(args) > i {
		return args[i]
	}
	return filepath.Join(cfg.SaveDir, "exports")
}

func runSessions(cmd *cobra.Command, args []string) error {
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	convs, err := st.Conversations(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list conversations: %w", err)
	}
	out := cmd.OutOrStdout()
	if len(convs) == 0 {
		fmt.Fprintln(out, "No stored conversations.")
	} else {
		fmt.Fprintln(out, "Conversations:")
		for _, c := range convs {
			fmt.Fprintf(out, "  %s  %3d turns  %s\n", c.ID, c.Turns, c.UpdatedAt.Local().Format("2006-01-02 15:04"))
		}
	}

	exports, err := models.ListExports(exportRoot(nil, 0))
	if err != nil {
		return fmt.Errorf("failed to list exports: %w", err)
	}
	if len(exports) > 0 {
		fmt.Fprintln(out, "\nExports:")
		for _, name := range exports {
			fmt.Fprintf(out, "  %s\n", name)
		}
	}
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	eng, cleanup, err := openEngine(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer cleanup()

	root := exportRoot(args, 1)
	if err := eng.Export(cmd.Context(), args[0], root); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", filepath.Join(root, args[0]))
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	eng, cleanup, err := openEngine(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer cleanup()

	view, err := eng.Import(cmd.Context(), exportRoot(args, 1), args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported as %s\nResume with: grave --conversation %s\n", view.ID, view.ID)
	return nil
}

func runContext(cmd *cobra.Command, args []string) error {
	eng, cleanup, err := openEngine(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer cleanup()

	query := strings.Join(args[1:], " ")
	selected, err := eng.Context(cmd.Context(), args[0], query)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(selected) == 0 {
		fmt.Fprintln(out, "No earlier turns selected.")
		return nil
	}
	for _, s := range selected {
		fmt.Fprintf(out, "#%d  score=%.4f  words=%d\n> %s\n%s\n\n", s.Index, s.Score, s.Words, s.Prompt, s.Response)
	}
	return nil
}
