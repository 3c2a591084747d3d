package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ayusman/facekiosk/internal/plugin"
)

var hooksCmd = &cobra.Command{
	Use:   "hooks",
	Short: "List the arrival hooks found in the hooks directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHooks()
	},
}

func init() {
	rootCmd.AddCommand(hooksCmd)
}

func runHooks() error {
	manager := plugin.NewManager(cfg.Hooks.Dir)
	if err := manager.Discover(); err != nil {
		return fmt.Errorf("discover hooks: %w", err)
	}

	hooks := manager.List()
	if len(hooks) == 0 {
		fmt.Printf("No hooks in %s.\n", cfg.Hooks.Dir)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "NAME\tVERSION\tEVENTS\tDESCRIPTION")
	fmt.Fprintln(w, "----\t-------\t------\t-----------")
	for _, h := range hooks {
		events := h.Manifest.Events
		if len(events) == 0 {
			events = []string{plugin.EventArrival}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", h.Manifest.Name, h.Manifest.Version, strings.Join(events, ","), h.Manifest.Description)
	}
	return w.Flush()
}
