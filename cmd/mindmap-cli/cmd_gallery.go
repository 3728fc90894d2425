package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/persistorai/mindmap/client"
	"github.com/persistorai/mindmap/internal/models"
)

func newGalleryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gallery",
		Short: "Manage saved concept maps",
	}
	cmd.AddCommand(galleryListCmd())
	cmd.AddCommand(galleryGetCmd())
	cmd.AddCommand(gallerySaveCmd())
	cmd.AddCommand(galleryTagsCmd())
	cmd.AddCommand(galleryRenameCmd())
	cmd.AddCommand(galleryDeleteCmd())
	cmd.AddCommand(galleryImportCmd())
	cmd.AddCommand(galleryExportCmd())
	return cmd
}

func galleryListCmd() *cobra.Command {
	var q client.GalleryQuery
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved maps, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, hasMore, err := apiClient.Gallery.List(cmd.Context(), &q)
			if err != nil {
				return fmt.Errorf("list: %w", err)
			}

			switch flagFmt {
			case "table":
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					nodes := 0
					if e.Graph != nil {
						nodes = len(e.Graph.Nodes)
					}
					rows = append(rows, []string{e.ID, e.Title, strconv.Itoa(nodes), strings.Join(e.Tags, ","), ago(e.UpdatedAt)})
				}
				formatTable([]string{"ID", "TITLE", "NODES", "TAGS", "UPDATED"}, rows)
				if hasMore {
					fmt.Println(subtle.Sprintf("more entries available, use --offset %d", q.Offset+len(entries)))
				}
			case "quiet":
				for _, e := range entries {
					formatQuiet(e.ID)
				}
			default:
				formatJSON(map[string]any{"entries": entries, "has_more": hasMore})
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&q.Search, "search", "", "Match title, node labels or tags")
	cmd.Flags().StringVar(&q.Tag, "tag", "", "Only entries with this tag")
	cmd.Flags().IntVar(&q.Limit, "limit", 0, "Max results")
	cmd.Flags().IntVar(&q.Offset, "offset", 0, "Skip this many entries")
	return cmd
}

func galleryGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one saved map",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := apiClient.Gallery.Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("get: %w", err)
			}
			if flagFmt == "table" {
				fmt.Printf("%s %s\n", brand.Sprint(e.Title), subtle.Sprintf("(%s, updated %s)", e.ID, ago(e.UpdatedAt)))
				if e.Graph != nil {
					printNodes(e.Graph)
				}
				return nil
			}
			output(e, e.ID)
			return nil
		},
	}
}

func gallerySaveCmd() *cobra.Command {
	var (
		id    string
		title string
		tags  string
	)
	cmd := &cobra.Command{
		Use:   "save <graph-file|->",
		Short: "Save a graph to the gallery",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := readGraphFile(args[0])
			if err != nil {
				return err
			}

			parsed, err := models.ParseTags(tags)
			if err != nil {
				return err
			}

			req := &models.UpsertGalleryRequest{ID: id, Title: title, Tags: parsed, Graph: g}

			var e *models.GalleryEntry
			if id != "" {
				e, err = apiClient.Gallery.Update(cmd.Context(), id, req)
			} else {
				e, err = apiClient.Gallery.Create(cmd.Context(), req)
			}
			if err != nil {
				return fmt.Errorf("save: %w", err)
			}
			output(e, e.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Replace the entry with this id")
	cmd.Flags().StringVar(&title, "title", "", "Title (default: first node label)")
	cmd.Flags().StringVar(&tags, "tags", "", "Comma separated tags")
	return cmd
}

func galleryTagsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tags <id> [tag,tag,...]",
		Short: "Replace the tags of a saved map (no tags clears them)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := ""
			if len(args) == 2 {
				raw = args[1]
			}
			tags, err := models.ParseTags(raw)
			if err != nil {
				return err
			}
			e, err := apiClient.Gallery.SetTags(cmd.Context(), args[0], tags)
			if err != nil {
				return fmt.Errorf("tags: %w", err)
			}
			output(e, strings.Join(e.Tags, ","))
			return nil
		},
	}
}

func galleryRenameCmd() *cobra.Command {
	var (
		nodeID string
		edge   string
	)
	cmd := &cobra.Command{
		Use:   "rename <id> <label>",
		Short: "Rename a node label (--node) or an edge relation (--edge source-target)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := renameRequest(nodeID, edge, args[1])
			if err != nil {
				return err
			}
			e, err := apiClient.Gallery.Rename(cmd.Context(), args[0], req)
			if err != nil {
				return fmt.Errorf("rename: %w", err)
			}
			output(e, e.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&nodeID, "node", "", "Node id")
	cmd.Flags().StringVar(&edge, "edge", "", "Edge as source-target")
	return cmd
}

func renameRequest(nodeID, edge, label string) (*models.RenameRequest, error) {
	switch {
	case nodeID != "" && edge != "":
		return nil, fmt.Errorf("use either --node or --edge, not both")
	case nodeID != "":
		return &models.RenameRequest{Kind: "node", ID: nodeID, Label: label}, nil
	case edge != "":
		src, dst, ok := strings.Cut(edge, "-")
		if !ok || src == "" || dst == "" {
			return nil, fmt.Errorf("--edge must look like source-target, got %q", edge)
		}
		return &models.RenameRequest{Kind: "edge", Source: src, Target: dst, Label: label}, nil
	default:
		return nil, fmt.Errorf("one of --node or --edge is required")
	}
}

func galleryDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved map",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := apiClient.Gallery.Delete(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("delete: %w", err)
			}
			output(map[string]any{"deleted": true, "id": args[0]}, args[0])
			return nil
		},
	}
}
