package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ayusman/facekiosk/internal/store"
)

var visitsOpts struct {
	limit  int
	counts bool
}

var visitsCmd = &cobra.Command{
	Use:   "visits",
	Short: "List recent arrivals",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVisits()
	},
}

func init() {
	visitsCmd.Flags().IntVarP(&visitsOpts.limit, "limit", "n", 20, "number of visits to show")
	visitsCmd.Flags().BoolVar(&visitsOpts.counts, "counts", false, "show visit counts per name instead")
	rootCmd.AddCommand(visitsCmd)
}

func runVisits() error {
	st, err := store.New(cfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)

	if visitsOpts.counts {
		counts, err := st.Visits().CountByName()
		if err != nil {
			return fmt.Errorf("count visits: %w", err)
		}
		fmt.Fprintln(w, "NAME\tVISITS")
		fmt.Fprintln(w, "----\t------")
		for _, c := range counts {
			fmt.Fprintf(w, "%s\t%d\n", c.Name, c.Count)
		}
		return w.Flush()
	}

	visits, err := st.Visits().List(visitsOpts.limit)
	if err != nil {
		return fmt.Errorf("list visits: %w", err)
	}
	if len(visits) == 0 {
		fmt.Println("No visits recorded.")
		return nil
	}

	fmt.Fprintln(w, "SEEN\tNAME\tKNOWN\tDISTANCE")
	fmt.Fprintln(w, "----\t----\t-----\t--------")
	for _, v := range visits {
		fmt.Fprintf(w, "%s\t%s\t%v\t%.3f\n", v.SeenAt.Local().Format("2006-01-02 15:04:05"), v.Name, v.Known, v.Distance)
	}
	return w.Flush()
}
