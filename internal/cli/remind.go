package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/existflow/binge/internal/reminder"
)

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Manage daily project reminders",
	Long: `Manage daily project reminders.

Set a reminder with 'binge project remind <project> HH:MM'. Reminders are
shown while 'binge remind run' (or the TUI) is running.`,
}

var remindRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Show reminders as they come due",
	RunE:  runRemindRun,
}

var remindListCmd = &cobra.Command{
	Use:   "list",
	Short: "List scheduled reminders",
	RunE:  runRemindList,
}

var remindAllowCmd = &cobra.Command{
	Use:   "allow",
	Short: "Allow reminders",
	RunE: func(cmd *cobra.Command, args []string) error {
		return setReminderStatus(reminder.Authorized)
	},
}

var remindDenyCmd = &cobra.Command{
	Use:   "deny",
	Short: "Turn reminders off",
	RunE: func(cmd *cobra.Command, args []string) error {
		return setReminderStatus(reminder.Denied)
	},
}

func init() {
	remindCmd.AddCommand(remindRunCmd)
	remindCmd.AddCommand(remindListCmd)
	remindCmd.AddCommand(remindAllowCmd)
	remindCmd.AddCommand(remindDenyCmd)
}

func printNotification(ctx context.Context, n reminder.Notification) error {
	fmt.Printf("\a🔔 %s  %s", n.At.Format("15:04"), n.Title)
	if n.Subtitle != "" {
		fmt.Printf(" · %s", n.Subtitle)
	}
	fmt.Println()
	return nil
}

func runRemindRun(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println("Waiting for reminders. Press Ctrl+C to stop.")
	return reminder.NewRunner(a.center, reminder.DelivererFunc(printNotification)).Run(ctx)
}

func runRemindList(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := context.Background()

	status, err := a.center.AuthorizationStatus(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Reminders: %s\n", status)

	pending, err := a.center.Pending(ctx)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		fmt.Println("No reminders scheduled.")
		return nil
	}
	for _, r := range pending {
		fmt.Printf("  %s  %-8s  %s\n", r.Time, shortID(r.ProjectID), r.Title)
	}
	return nil
}

func setReminderStatus(status reminder.AuthorizationStatus) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.center.SetStatus(context.Background(), status); err != nil {
		return err
	}
	fmt.Printf("✓ Reminders %s\n", status)
	return nil
}
