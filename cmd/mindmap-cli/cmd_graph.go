package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/persistorai/mindmap/client"
	"github.com/persistorai/mindmap/internal/models"
)

func newGraphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Generate, cache and inspect concept graphs",
	}
	cmd.AddCommand(graphExtractCmd())
	cmd.AddCommand(graphStoreCmd())
	cmd.AddCommand(graphCachedCmd())
	cmd.AddCommand(graphHashCmd())
	cmd.AddCommand(graphViewCmd())
	cmd.AddCommand(graphFilterCmd())
	return cmd
}

// readInput reads a file, or stdin when path is "-".
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func readGraphFile(path string) (*models.Graph, error) {
	data, err := readInput(path)
	if err != nil {
		return nil, fmt.Errorf("reading graph: %w", err)
	}
	var g models.Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("parsing graph: %w", err)
	}
	return &g, nil
}

func graphExtractCmd() *cobra.Command {
	var text string
	cmd := &cobra.Command{
		Use:   "extract [transcript-file|-]",
		Short: "Generate (or fetch from cache) the graph for a transcript",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if text == "" {
				if len(args) == 0 {
					return fmt.Errorf("pass a transcript file, - for stdin, or --text")
				}
				data, err := readInput(args[0])
				if err != nil {
					return fmt.Errorf("reading transcript: %w", err)
				}
				text = string(data)
			}

			g, err := apiClient.Graphs.Extract(cmd.Context(), text)
			if err != nil {
				return fmt.Errorf("extract: %w", err)
			}

			if flagFmt == "table" {
				printNodes(g)
				return nil
			}
			output(g, models.TranscriptHash(text))
			return nil
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "Transcript text (instead of a file)")
	return cmd
}

func graphStoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "store <transcript-file> <graph-file>",
		Short: "Cache an edited graph under its transcript",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			transcript, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading transcript: %w", err)
			}
			g, err := readGraphFile(args[1])
			if err != nil {
				return err
			}

			stored, err := apiClient.Graphs.Store(cmd.Context(), string(transcript), g)
			if err != nil {
				return fmt.Errorf("store: %w", err)
			}
			output(stored, models.TranscriptHash(string(transcript)))
			return nil
		},
	}
}

func graphCachedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cached <hash>",
		Short: "Fetch a cached graph by transcript hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := apiClient.Graphs.Cached(cmd.Context(), args[0])
			if client.IsNotFound(err) {
				return fmt.Errorf("no graph cached under %s", args[0])
			}
			if err != nil {
				return fmt.Errorf("cached: %w", err)
			}
			if flagFmt == "table" {
				printNodes(g)
				return nil
			}
			output(g, args[0])
			return nil
		},
	}
}

func graphHashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash <transcript-file|->",
		Short: "Print the cache key of a transcript",
		Args:  cobra.ExactArgs(1),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {}, // offline
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(args[0])
			if err != nil {
				return fmt.Errorf("reading transcript: %w", err)
			}
			fmt.Println(models.TranscriptHash(string(data)))
			return nil
		},
	}
}

func graphViewCmd() *cobra.Command {
	var opts client.ViewOptions
	cmd := &cobra.Command{
		Use:   "view <hash-or-gallery-id>",
		Short: "Show the stabilized layout of a graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := apiClient.Graphs.View(cmd.Context(), args[0], opts)
			if err != nil {
				return fmt.Errorf("view: %w", err)
			}
			if flagFmt != "table" {
				output(f, args[0])
				return nil
			}
			rows := make([][]string, 0, len(f.Nodes))
			for _, n := range f.Nodes {
				mark := ""
				if n.Matched {
					mark = "*"
				}
				rows = append(rows, []string{n.ID, n.Label, fmt.Sprintf("%.0f", n.X), fmt.Sprintf("%.0f", n.Y), mark})
			}
			formatTable([]string{"ID", "LABEL", "X", "Y", "MATCH"}, rows)
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.Query, "query", "q", "", "Search term")
	cmd.Flags().StringVar(&opts.Mode, "mode", "", "Layout mode: force|hierarchical")
	return cmd
}

func graphFilterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "filter <graph-file|-> <term>",
		Short: "Show the nodes matching a term plus their neighbors",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := readGraphFile(args[0])
			if err != nil {
				return err
			}
			res, err := apiClient.Graphs.Filter(cmd.Context(), g, args[1])
			if err != nil {
				return fmt.Errorf("filter: %w", err)
			}
			if flagFmt == "table" {
				printNodes(&models.Graph{Nodes: res.Nodes, Links: res.Links})
				return nil
			}
			output(res, strconv.Itoa(len(res.Nodes)))
			return nil
		},
	}
}

func printNodes(g *models.Graph) {
	rows := make([][]string, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		rows = append(rows, []string{n.ID.Key(), n.Label, strconv.FormatFloat(n.Weight, 'g', -1, 64), strconv.Itoa(len(n.Quiz))})
	}
	formatTable([]string{"ID", "LABEL", "WEIGHT", "QUIZ"}, rows)
	fmt.Println(subtle.Sprintf("%d nodes, %d links", len(g.Nodes), len(g.Links)))
}
