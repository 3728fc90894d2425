package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func galleryExportCmd() *cobra.Command {
	var (
		format     string
		outputPath string
	)

	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Render a saved map as png, jpg or pdf",
		Long: `Render a saved map server-side and write the image or PDF.
The layout is stabilized before capture, so the result matches what the
interactive view shows after it settles.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var buf bytes.Buffer
			if _, err := apiClient.Gallery.Export(cmd.Context(), args[0], format, &buf); err != nil {
				return fmt.Errorf("export failed: %w", err)
			}

			if outputPath == "" {
				outputPath = exportFilename(format)
			}

			if outputPath == "-" {
				_, err := os.Stdout.Write(buf.Bytes())
				return err
			}

			if err := os.WriteFile(outputPath, buf.Bytes(), 0o600); err != nil {
				return fmt.Errorf("writing export file: %w", err)
			}

			fmt.Fprintf(os.Stderr, "Exported %s to %s\n", humanize.Bytes(uint64(buf.Len())), outputPath)

			return nil
		},
	}

	cmd.Flags().StringVar(&format, "as", "png", "Output format: png|jpg|pdf")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: graph.<format>, use - for stdout)")

	return cmd
}

// exportFilename matches the download name the server suggests.
func exportFilename(format string) string {
	switch format {
	case "", "png":
		return "graph.png"
	case "jpeg", "jpg":
		return "graph.jpg"
	default:
		return "graph." + format
	}
}

func galleryImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Import a browser gallery dump",
		Long: `Import maps saved by the browser client. The file may be the JSON array
stored under galleryMaps or a full localStorage dump containing that key.
Entries without a transcript are migrated; invalid ones are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(args[0])
			if err != nil {
				return fmt.Errorf("reading import file: %w", err)
			}

			n, err := apiClient.Gallery.Import(cmd.Context(), data)
			if err != nil {
				return fmt.Errorf("import failed: %w", err)
			}

			if flagFmt == "quiet" {
				formatQuiet(fmt.Sprint(n))
				return nil
			}
			fmt.Fprintf(os.Stderr, "Imported %d maps from %s\n", n, args[0])
			return nil
		},
	}
}
