package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/ayusman/facekiosk/internal/recognition"
)

var galleryCmd = &cobra.Command{
	Use:   "gallery",
	Short: "Encode the known-faces gallery and list the identities found",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGallery()
	},
}

func init() {
	rootCmd.AddCommand(galleryCmd)
}

func runGallery() error {
	enc, err := recognition.NewDlibEncoder(cfg.Recognition.ModelDir)
	if err != nil {
		return err
	}
	defer enc.Close()

	var bar *progressbar.ProgressBar
	progress := func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription("Encoding gallery"),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
			)
		}
		bar.Set(done)
	}

	gallery, err := recognition.LoadGallery(cfg.Recognition.GalleryDir, enc, recognition.WithProgress(progress))
	if bar != nil {
		bar.Finish()
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		return fmt.Errorf("load gallery: %w", err)
	}

	if gallery.Len() == 0 {
		fmt.Printf("No known faces in %s.\n", cfg.Recognition.GalleryDir)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "NAME\tIMAGE")
	fmt.Fprintln(w, "----\t-----")
	for _, f := range gallery.Faces() {
		fmt.Fprintf(w, "%s\t%s\n", f.Name, f.ImagePath)
	}
	return w.Flush()
}
