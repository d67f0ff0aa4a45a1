package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	flagForce bool
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load the configured Turtle sources into the database",
	Long:  "Walks the configured sources, honouring .gitignore, loads new and changed .ttl files and forgets files that were removed.",
	Args:  cobra.NoArgs,
	RunE:  runLoad,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what the database holds",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	loadCmd.Flags().BoolVar(&flagForce, "force", false, "delete database and load from scratch")
}

func runLoad(cmd *cobra.Command, args []string) error {
	if flagForce {
		root, err := repoRoot()
		if err != nil {
			return err
		}
		dbPath := resolvePath(root, cfg.DB)
		if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing database for --force: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Cleared database: %s\n", dbPath)
	}

	e, err := openEngine(cmd.Context())
	if err != nil {
		return outputError("load", err)
	}
	defer e.Close()

	status, err := e.Status(cmd.Context())
	if err != nil {
		return outputError("load", err)
	}
	color.New(color.FgGreen).Fprintf(os.Stderr, "Loaded %d files, %d facts, %d persons\n",
		status.Files, status.Triples, status.Persons)
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	e, err := openEngine(cmd.Context())
	if err != nil {
		return outputError("status", err)
	}
	defer e.Close()

	status, err := e.Status(cmd.Context())
	if err != nil {
		return outputError("status", err)
	}
	return outputResult(CLIResult{Command: "status", Results: status})
}
