package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/noted-app/noted-api/internal/engine"
	"github.com/noted-app/noted-api/internal/models"
)

// NewNotesCmd creates the notes command.
func NewNotesCmd() *cobra.Command {
	var folder string
	var query string
	var format string

	cmd := &cobra.Command{
		Use:   "notes",
		Short: "List notes",
		Long:  "List notes sorted by priority, optionally filtered by folder, format, or a search query",
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

			notes := eng.SearchNotes(engine.NoteFilter{
				Query:  query,
				Folder: folder,
				Format: models.EntryFormat(format),
			})
			if len(notes) == 0 {
				fmt.Println("No notes found")
				return nil
			}

			for _, note := range notes {
				fmt.Printf("%s  %s\n", note.ID, note.Title)
				fmt.Printf("    urgency=%s importance=%d entries=%d tasks=%d modified=%s\n",
					note.Urgency, note.Importance, len(note.Entries), len(note.Tasks),
					formatTime(note.LastModified))
				if len(note.Hashtags) > 0 {
					fmt.Printf("    tags: %s\n", strings.Join(note.Hashtags, ", "))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&folder, "folder", "", "only notes tagged with this folder's name")
	cmd.Flags().StringVarP(&query, "query", "q", "", "match against titles and entry content")
	cmd.Flags().StringVar(&format, "format", "", "only notes with this primary format (note, task, project, goal)")
	return cmd
}
