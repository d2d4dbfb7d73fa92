package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/noted-app/noted-api/internal/engine"
)

// NewTasksCmd creates the tasks command.
func NewTasksCmd() *cobra.Command {
	var showCompleted bool

	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List tasks",
		Long:  "List the merged task view (standalone and note-embedded) sorted by priority",
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

			tasks := engine.FilterByCompletion(eng.CombinedTasks(), showCompleted)
			if len(tasks) == 0 {
				fmt.Println("No tasks found")
				return nil
			}

			now := time.Now()
			for _, task := range tasks {
				marker := " "
				if task.IsCompleted {
					marker = "x"
				}
				fmt.Printf("[%s] %s  %s\n", marker, task.ID, task.Description)
				fmt.Printf("      urgency=%s importance=%d origin=%s", task.Urgency, task.Importance, task.Origin)
				if task.NoteTitle != "" {
					fmt.Printf(" note=%q", task.NoteTitle)
				}
				if label := engine.DueDateLabel(task.DueDate, now); label != "" {
					fmt.Printf("  (%s)", label)
				}
				fmt.Println()
				for _, step := range task.Steps {
					stepMarker := " "
					if step.IsCompleted {
						stepMarker = "x"
					}
					fmt.Printf("      [%s] %s\n", stepMarker, step.Description)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showCompleted, "completed", false, "show completed tasks instead of active ones")
	return cmd
}
