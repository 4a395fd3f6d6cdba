package commands

import (
	"context"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

var clearYes bool

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every bucket in the store",
	Long: `clear deletes every bucket file in the store. This cannot be
undone; by default fcstorectl prompts for confirmation.`,
	RunE: runClear,
}

func init() {
	clearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "Skip the confirmation prompt")
}

func runClear(cmd *cobra.Command, args []string) error {
	if !clearYes {
		confirmed, err := confirm(fmt.Sprintf("Clear every bucket under %q?", location))
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Println("aborted")
			return nil
		}
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Stop()

	if err := store.Clear(context.Background()); err != nil {
		return err
	}

	fmt.Println("store cleared")
	return nil
}

// confirm prompts for a y/n response, defaulting to no. Returns false
// without error if the user aborts with Ctrl+C.
func confirm(label string) (bool, error) {
	prompt := promptui.Prompt{
		Label:     fmt.Sprintf("%s [y/N]", label),
		IsConfirm: true,
	}
	_, err := prompt.Run()
	if err != nil {
		if err == promptui.ErrAbort || err == promptui.ErrInterrupt {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
