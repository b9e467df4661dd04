package main

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/net/html"
)

var vizOutput string

// vizCmd fetches an optimization result's visualization document
var vizCmd = &cobra.Command{
	Use:   "viz <name>",
	Short: "Fetch a 3D visualization document",
	Long: `Download the interactive HTML visualization produced for an
optimization configuration and write it to a local file for viewing in a
browser. The document itself is treated as opaque; it is stored verbatim.`,
	Args: cobra.ExactArgs(1),
	RunE: runViz,
}

func init() {
	vizCmd.Flags().StringVarP(&vizOutput, "output", "o", "", "output file (default: the visualization's own name)")
}

func runViz(cmd *cobra.Command, args []string) error {
	name := args[0]

	doc, err := apiClient.FetchVisualization(cmd.Context(), name)
	if err != nil {
		return err
	}

	out := vizOutput
	if out == "" {
		out = path.Base(strings.TrimPrefix(name, "visualizations/"))
		if !strings.HasSuffix(out, ".html") {
			out += ".html"
		}
	}
	if err := os.WriteFile(out, doc, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	if title := documentTitle(doc); title != "" {
		fmt.Printf("Saved %q to %s (%d KB)\n", title, out, len(doc)/1024)
	} else {
		fmt.Printf("Saved %s (%d KB)\n", out, len(doc)/1024)
	}
	return nil
}

// documentTitle pulls the <title> out of the fetched document, if any, so
// the operator can tell which configuration they are looking at.
func documentTitle(doc []byte) string {
	root, err := html.Parse(bytes.NewReader(doc))
	if err != nil {
		return ""
	}
	var title string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
			title = strings.TrimSpace(n.FirstChild.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return title
}
