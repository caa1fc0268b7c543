package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/existflow/binge/internal/config"
	"github.com/existflow/binge/internal/model"
)

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Manage the current project",
	Long: `Set or view the current project.

When a current project is set, 'add' and 'list' use it by default.

Examples:
  binge context              # Show current project
  binge context set Garden   # Switch by title or id prefix
  binge context clear`,
	RunE: runContextShow,
}

var contextSetCmd = &cobra.Command{
	Use:   "set [project]",
	Short: "Set the current project",
	Args:  cobra.ExactArgs(1),
	RunE:  runContextSet,
}

var contextClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget the current project",
	RunE:  runContextClear,
}

func init() {
	contextCmd.AddCommand(contextSetCmd)
	contextCmd.AddCommand(contextClearCmd)
}

func contextFilePath() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "context"), nil
}

// GetCurrentContext returns the current project id, or "" if none is set
func GetCurrentContext() string {
	path, err := contextFilePath()
	if err != nil {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// SetContext saves the current project id
func SetContext(projectID string) error {
	path, err := contextFilePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(projectID), 0644)
}

// ClearContext removes the context file
func ClearContext() error {
	path, err := contextFilePath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// projectRef picks the explicit reference, falling back to the current project
func projectRef(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if ctx := GetCurrentContext(); ctx != "" {
		return ctx, nil
	}
	return "", errors.New("no project given and no current project set (see 'binge context set')")
}

func runContextShow(cmd *cobra.Command, args []string) error {
	current := GetCurrentContext()
	if current == "" {
		fmt.Println("No current project")
		return nil
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := a.ctrl.Project(context.Background(), current)
	if err != nil {
		fmt.Printf("⚠️  Current project %s no longer exists\n", shortID(current))
		return nil
	}

	fmt.Printf("📁 Current project: %s (%s)\n", model.ProjectTitle(p), model.AccessibleLabel(p))
	return nil
}

func runContextSet(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := a.findProject(context.Background(), args[0])
	if err != nil {
		return err
	}

	if err := SetContext(p.ID); err != nil {
		return fmt.Errorf("failed to set context: %w", err)
	}

	fmt.Printf("📁 Switched to: %s\n", model.ProjectTitle(p))
	return nil
}

func runContextClear(cmd *cobra.Command, args []string) error {
	if err := ClearContext(); err != nil {
		return fmt.Errorf("failed to clear context: %w", err)
	}
	fmt.Println("Current project cleared")
	return nil
}
