package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewMigrateCmd creates the migrate command.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Convert legacy standalone tasks into notes",
		Long: "Convert every standalone task into a note holding one task-formatted entry. " +
			"Safe to run repeatedly; a backend without migration support makes this a no-op.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			eng, store, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if err := store.Close(); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: failed to close storage: %v\n", err)
				}
			}()

			before := len(eng.StandaloneTasks())
			if err := eng.MigrateStandaloneTasks(ctx); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			after := len(eng.StandaloneTasks())

			if before == after {
				fmt.Println("Nothing to migrate")
			} else {
				fmt.Printf("Migrated %d standalone task(s) into notes\n", before-after)
			}
			return nil
		},
	}
	return cmd
}
