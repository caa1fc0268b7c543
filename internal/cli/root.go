package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/existflow/binge/internal/config"
	"github.com/existflow/binge/internal/logger"
	"github.com/existflow/binge/internal/reminder"
	"github.com/existflow/binge/internal/sync"
	"github.com/existflow/binge/internal/tui"
)

var (
	logLevel   string
	logFile    string
	logConsole bool
	sortFlag   string
)

var rootCmd = &cobra.Command{
	Use:   "binge",
	Short: "binge - track projects and the items that make them up",
	Long: `binge keeps projects and their items, ranks what to do next,
awards progress and syncs across devices.

Run 'binge' without arguments to launch the interactive TUI.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			logger.Warn("Failed to load config, using defaults", logger.F("error", err))
			loaded = config.DefaultConfig()
		}
		cfg = loaded

		configChanged := false
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
			configChanged = true
		}
		if cmd.Flags().Changed("log-file") {
			cfg.LogFile = logFile
			configChanged = true
		}
		if cmd.Flags().Changed("log-console") {
			cfg.LogConsole = logConsole
			configChanged = true
		}
		if cmd.Flags().Changed("sort") {
			cfg.SortOrder = sortFlag
			configChanged = true
		}

		if configChanged {
			if err := cfg.Save(); err != nil {
				logger.Warn("Failed to save config", logger.F("error", err))
			}
		}

		logConfig := logger.DefaultConfig()
		logConfig.Level = logger.ParseLevel(cfg.LogLevel)
		logConfig.FilePath = cfg.LogFile
		logConfig.Console = cfg.LogConsole

		if err := logger.Init(logConfig); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		logger.Info("binge started", logger.F("command", cmd.Name()))
		return nil
	},

	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		var auto *sync.AutoSync
		if cfg.AutoSync {
			if client, err := sync.NewClient(); err == nil && client.CanAutoSync() {
				auto = sync.NewAutoSync(client, a.store)
				defer func() {
					if err := auto.SyncNowIfPending(); err != nil {
						logger.Warn("Final sync failed", logger.F("error", err))
					}
					auto.Stop()
				}()
			}
		}

		logger.Info("Launching TUI")
		m := tui.NewModel(context.Background(), a.ctrl, sortOrder())
		m.SetPurchaser(newUnlockManager(a), userLanguage())
		p := tea.NewProgram(m, tea.WithAltScreen())

		a.store.OnChange(tui.Notify(p))
		if auto != nil {
			auto.SetOnPull(func() { p.Send(tui.RefreshMsg{}) })
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		runner := reminder.NewRunner(a.center, reminder.DelivererFunc(func(ctx context.Context, n reminder.Notification) error {
			go p.Send(tui.ReminderMsg{Title: n.Title, Subtitle: n.Subtitle})
			return nil
		}))
		go func() {
			if err := runner.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Warn("Reminder runner stopped", logger.F("error", err))
			}
		}()

		if _, err := p.Run(); err != nil {
			logger.Error("TUI error", logger.F("error", err))
			return fmt.Errorf("failed to run TUI: %w", err)
		}

		logger.Info("TUI exited normally")
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Info("binge exiting", logger.F("command", cmd.Name()))
		_ = logger.Close()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (DEBUG, INFO, WARN, ERROR)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Path to log file")
	rootCmd.PersistentFlags().BoolVar(&logConsole, "log-console", false, "Enable console logging")
	rootCmd.PersistentFlags().StringVar(&sortFlag, "sort", "", "Item sort order (optimized, title, created)")

	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(doneCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(contextCmd)
	rootCmd.AddCommand(homeCmd)
	rootCmd.AddCommand(awardsCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(widgetCmd)
	rootCmd.AddCommand(sampleCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(unlockCmd)
	rootCmd.AddCommand(remindCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(authCmd)
}
