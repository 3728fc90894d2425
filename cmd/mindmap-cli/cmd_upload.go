package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

func newUploadCmd() *cobra.Command {
	var extractGraph bool
	cmd := &cobra.Command{
		Use:   "upload <file.pdf|file.docx>",
		Short: "Convert a PDF or Word document to transcript text",
		Long: `Upload a document and print its text. With --extract the text is sent
on to graph generation and the resulting graph is printed instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("opening document: %w", err)
			}
			defer f.Close()

			name := filepath.Base(path)
			var text string
			switch strings.ToLower(filepath.Ext(path)) {
			case ".pdf":
				text, err = apiClient.Documents.UploadPDF(cmd.Context(), name, f)
			case ".docx":
				text, err = apiClient.Documents.UploadDOCX(cmd.Context(), name, f)
			default:
				return fmt.Errorf("unsupported document type %q: use .pdf or .docx", filepath.Ext(path))
			}
			if err != nil {
				return fmt.Errorf("upload: %w", err)
			}

			if !extractGraph {
				if flagFmt == "json" {
					formatJSON(map[string]string{"transcript": text})
				} else {
					fmt.Println(text)
				}
				return nil
			}

			g, err := apiClient.Graphs.Extract(cmd.Context(), text)
			if err != nil {
				return fmt.Errorf("extract: %w", err)
			}
			if flagFmt == "table" {
				printNodes(g)
				return nil
			}
			output(g, g.ID())
			return nil
		},
	}
	cmd.Flags().BoolVar(&extractGraph, "extract", false, "Generate the graph for the document text")
	return cmd
}
