package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/noted-app/noted-api/cmd/notedctl/commands"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "notedctl",
		Short: "Operations tool for the noted API",
		Long:  "CLI tool for inspecting notes, tasks, and folders and running maintenance jobs",
	}

	rootCmd.AddCommand(commands.NewNotesCmd())
	rootCmd.AddCommand(commands.NewTasksCmd())
	rootCmd.AddCommand(commands.NewFoldersCmd())
	rootCmd.AddCommand(commands.NewMigrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
