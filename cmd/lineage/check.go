package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jward/lineage"
)

var flagStrict bool

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run the check scripts over every person",
	Long:  "Resolves every person and runs each Risor script under checks/. Exits non-zero when any error note is raised, or any warning with --strict.",
	Args:  cobra.NoArgs,
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&flagStrict, "strict", false, "treat warnings as failures")
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, err := openEngine(ctx)
	if err != nil {
		return outputError("check", err)
	}
	defer e.Close()

	notes, err := e.Check(ctx)
	if err != nil {
		return outputError("check", err)
	}
	result := CLICheckResult{
		Notes:    notes,
		Errors:   notes.Count(lineage.NoteError),
		Warnings: notes.Count(lineage.NoteWarning),
		Infos:    notes.Count(lineage.NoteInfo),
	}
	if result.Notes == nil {
		result.Notes = []lineage.Note{}
	}
	if err := outputResult(CLIResult{Command: "check", Results: result, TotalCount: intPtr(len(notes))}); err != nil {
		return err
	}

	failing := result.Errors
	if flagStrict {
		failing += result.Warnings
	}
	if failing > 0 {
		return fmt.Errorf("check found %d failing note(s)", failing)
	}
	return nil
}
