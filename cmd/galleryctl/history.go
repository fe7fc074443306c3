package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abelbrown/gallery/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect or extend the stored search terms",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print stored search terms in insertion order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withHistory(func(h *store.History) error {
			return printHistory(os.Stdout, h)
		})
	},
}

var historyAddCmd = &cobra.Command{
	Use:   "add <term>",
	Short: "Store a search term (no-op if already present)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		term := strings.TrimSpace(strings.Join(args, " "))
		if term == "" {
			return errors.New("term must not be blank")
		}
		return withHistory(func(h *store.History) error {
			if err := h.Add(term); err != nil {
				return err
			}
			return printHistory(os.Stdout, h)
		})
	},
}

func init() {
	historyCmd.AddCommand(historyListCmd, historyAddCmd)
	rootCmd.AddCommand(historyCmd)
}

func withHistory(fn func(h *store.History) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(store.NewHistory(st))
}

// printHistory writes the terms numbered the way the TUI shows them.
func printHistory(w io.Writer, h *store.History) error {
	terms, err := h.List()
	if errors.Is(err, store.ErrCorruptSlot) {
		return fmt.Errorf("%w (the next search will overwrite it)", err)
	}
	if err != nil {
		return err
	}
	if len(terms) == 0 {
		fmt.Fprintln(w, "no stored searches")
		return nil
	}
	for i, t := range terms {
		fmt.Fprintf(w, "%3d  %s\n", i+1, t)
	}
	return nil
}
