package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"manganime/pkg/models"
	"manganime/pkg/utils"
)

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "Manage your reading/watching library",
	Long:  "Library writes always land on this device first and sync to the server when it is reachable.",
}

var libraryListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the merged library",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, store, err := openLibrary(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		items, err := svc.GetAll(ctx)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Println("Library is empty.")
			return nil
		}

		fmt.Printf("\nYour library (%d items):\n\n", len(items))
		for i, item := range items {
			fmt.Printf("%d. [%s] %s\n", i+1, item.Type, item.ID)
			if item.Status != models.StatusUnset {
				fmt.Printf("   Status: %s\n", item.Status)
			}
			if item.TotalItems != nil {
				fmt.Printf("   Progress: %d/%d\n", item.Progress, *item.TotalItems)
			} else if item.Progress > 0 {
				fmt.Printf("   Progress: %d\n", item.Progress)
			}
			if item.Score != nil {
				fmt.Printf("   Score: %d/10\n", *item.Score)
			}
			fmt.Printf("   Updated: %s\n\n", utils.TimeAgo(item.LastUpdated))
		}
		return nil
	},
}

var libraryStatusCmd = &cobra.Command{
	Use:   "status <type> <content-id> <status>",
	Short: "Set an item's status",
	Long:  "Status is one of: reading, completed, on_hold, dropped, plan_to_read.",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, store, err := openLibrary(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		item, err := svc.UpdateStatus(ctx, args[0], args[1], models.LibraryStatus(args[2]))
		return reportWrite(item, err)
	},
}

var libraryProgressCmd = &cobra.Command{
	Use:   "progress <type> <content-id> <number>",
	Short: "Set the chapter/episode position",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		var progress int
		if _, err := fmt.Sscanf(args[2], "%d", &progress); err != nil {
			return fmt.Errorf("progress must be a number: %q", args[2])
		}

		svc, store, err := openLibrary(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		item, err := svc.UpdateProgress(ctx, args[0], args[1], progress)
		return reportWrite(item, err)
	},
}

var libraryScoreCmd = &cobra.Command{
	Use:   "score <type> <content-id> <0-10>",
	Short: "Score an item",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		var score int
		if _, err := fmt.Sscanf(args[2], "%d", &score); err != nil {
			return fmt.Errorf("score must be a number: %q", args[2])
		}

		svc, store, err := openLibrary(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		item, err := svc.UpdateScore(ctx, args[0], args[1], score)
		return reportWrite(item, err)
	},
}

var libraryRemoveCmd = &cobra.Command{
	Use:   "remove <type> <content-id>",
	Short: "Remove an item",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, store, err := openLibrary(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		err = svc.Remove(ctx, args[0], args[1])
		if errors.Is(err, models.ErrLocalOnly) {
			fmt.Println("Removed locally; server sync pending.")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Println("Removed.")
		return nil
	},
}

// reportWrite prints the saved item, downgrading a pending sync to a notice.
func reportWrite(item *models.LibraryItem, err error) error {
	if errors.Is(err, models.ErrLocalOnly) {
		fmt.Println("Saved locally, sync pending.")
		err = nil
	} else if err != nil {
		return err
	} else {
		fmt.Println("Saved.")
	}

	if item != nil {
		fmt.Printf("  [%s] %s", item.Type, item.ID)
		if item.Status != models.StatusUnset {
			fmt.Printf("  status=%s", item.Status)
		}
		fmt.Printf("  progress=%d", item.Progress)
		if item.Score != nil {
			fmt.Printf("  score=%d", *item.Score)
		}
		fmt.Println()
	}
	return nil
}

func init() {
	libraryCmd.AddCommand(libraryListCmd)
	libraryCmd.AddCommand(libraryStatusCmd)
	libraryCmd.AddCommand(libraryProgressCmd)
	libraryCmd.AddCommand(libraryScoreCmd)
	libraryCmd.AddCommand(libraryRemoveCmd)
}
