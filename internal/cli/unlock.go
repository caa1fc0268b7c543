package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/existflow/binge/internal/sync"
	"github.com/existflow/binge/internal/unlock"
)

var unlockCmd = &cobra.Command{
	Use:   "unlock",
	Short: "Unlock unlimited projects",
	Long: `Show the unlock product, buy it, or restore an earlier purchase.

Free use is limited to 3 open projects at a time.`,
	RunE: runUnlockStatus,
}

var unlockBuyCmd = &cobra.Command{
	Use:   "buy",
	Short: "Buy the full version",
	RunE:  runUnlockBuy,
}

var unlockRestoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore an earlier purchase",
	RunE:  runUnlockRestore,
}

func init() {
	unlockCmd.AddCommand(unlockBuyCmd)
	unlockCmd.AddCommand(unlockRestoreCmd)
}

// newUnlockManager talks to the sync server's storefront with the current session
func newUnlockManager(a *app) *unlock.Manager {
	serverURL, token := sync.DefaultServerURL, ""
	if client, err := sync.NewClient(); err == nil {
		serverURL, _, _ = client.GetStatus()
		token = client.Token()
	}
	return unlock.NewManager(unlock.NewHTTPStorefront(serverURL, token), a.ctrl, cfg.ProductID)
}

// userLanguage reads the locale from the environment, e.g. LANG=de_DE.UTF-8
func userLanguage() language.Tag {
	for _, key := range []string{"LC_ALL", "LC_MONETARY", "LANG"} {
		v := os.Getenv(key)
		if v == "" || v == "C" || v == "POSIX" {
			continue
		}
		v, _, _ = strings.Cut(v, ".")
		if tag, err := language.Parse(strings.ReplaceAll(v, "_", "-")); err == nil {
			return tag
		}
	}
	return language.English
}

func printUnlockState(s unlock.RequestState) {
	switch s.State {
	case unlock.Purchased:
		fmt.Println("✓ Full version unlocked. Create as many projects as you like.")
	case unlock.Loaded:
		p := s.Product
		fmt.Printf("%s: %s\n", p.Title, p.LocalizedPrice(userLanguage()))
		if p.Description != "" {
			fmt.Printf("  %s\n", p.Description)
		}
		fmt.Println("Run 'binge unlock buy' to purchase or 'binge unlock restore' if you already did.")
	case unlock.Deferred:
		fmt.Println("⏳ Purchase is waiting for approval.")
	case unlock.Failed:
		fmt.Printf("⚠️  Store unavailable: %v\n", s.Err)
	default:
		fmt.Println("Loading...")
	}
}

func runUnlockStatus(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	printUnlockState(newUnlockManager(a).Start(context.Background()))
	return nil
}

func runUnlockBuy(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := context.Background()

	m := newUnlockManager(a)
	s := m.Start(ctx)
	if s.State != unlock.Loaded {
		printUnlockState(s)
		return nil
	}

	if !confirm(fmt.Sprintf("Buy %s for %s?", s.Product.Title, s.Product.LocalizedPrice(userLanguage()))) {
		fmt.Println("Cancelled.")
		return nil
	}

	s = m.Buy(ctx)
	if s.State == unlock.Loaded {
		fmt.Println("⚠️  Purchase was not completed.")
		return nil
	}
	printUnlockState(s)
	return nil
}

func runUnlockRestore(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := context.Background()

	m := newUnlockManager(a)
	if s := m.Start(ctx); s.State == unlock.Purchased {
		printUnlockState(s)
		return nil
	}

	s := m.Restore(ctx)
	if s.State != unlock.Purchased {
		fmt.Println("No earlier purchase found.")
		return nil
	}
	printUnlockState(s)
	return nil
}
