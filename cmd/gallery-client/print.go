package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"git.sr.ht/~jakintosh/gallery/internal/api"
)

func printGalleries(
	w io.Writer,
	user string,
	galleries []api.GalleryResponse,
) {
	fmt.Fprintf(w, "%d galleries for %s\n", len(galleries), user)
	if len(galleries) == 0 {
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCOVER\tCREATED")
	for _, g := range galleries {
		cover := g.CoverURL
		if cover == "" {
			cover = "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", g.ID, g.Title, cover, g.CreatedAt.Format("2006-01-02 15:04"))
	}
	tw.Flush()
}
