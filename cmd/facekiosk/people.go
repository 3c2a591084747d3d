package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ayusman/facekiosk/internal/people"
)

var peopleCmd = &cobra.Command{
	Use:   "people",
	Short: "List the person records in the info file",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPeople()
	},
}

func init() {
	rootCmd.AddCommand(peopleCmd)
}

func runPeople() error {
	directory := people.NewDirectory(cfg.People.InfoFile, cfg.Recognition.GalleryDir)
	if err := directory.Err(); err != nil {
		return fmt.Errorf("read %s: %w", cfg.People.InfoFile, err)
	}

	records := directory.All()
	if len(records) == 0 {
		fmt.Printf("No records in %s.\n", cfg.People.InfoFile)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "NAME\tGENDER\tSTUDENT ID\tCOLLEGE\tTYPE\tENROLLED")
	fmt.Fprintln(w, "----\t------\t----------\t-------\t----\t--------")
	for _, p := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", p.Name, p.Gender, p.StudentID, p.College, p.PersonType, p.EnrollmentTime)
	}
	return w.Flush()
}
