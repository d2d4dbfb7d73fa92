package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewFoldersCmd creates the folders command.
func NewFoldersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "folders",
		Short: "List folders",
		Long:  "List all folders, auto-generated and manual",
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

			folders := eng.Folders()
			if len(folders) == 0 {
				fmt.Println("No folders")
				return nil
			}
			for _, folder := range folders {
				kind := "manual"
				if folder.IsAutoGenerated {
					kind = "auto"
				}
				fmt.Printf("%s  %-30s %s  created=%s\n", folder.ID, folder.Name, kind, formatTime(folder.CreatedAt))
			}
			return nil
		},
	}
	return cmd
}
