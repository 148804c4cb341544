package utils

import (
	"fmt"
	"io"
	"sftpcopy/internal/models"

	"github.com/olekukonko/tablewriter"
)

// RenderEntries writes a remote listing as a table. Directories show "-"
// instead of a size and get a trailing slash, other entries an "@".
func RenderEntries(w io.Writer, entries []models.RemoteEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "Directory is empty")
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header("Name", "Type", "Size", "Modified")

	for _, entry := range entries {
		name := entry.Name
		size := FormatBytes(entry.Size)
		switch entry.Kind {
		case models.KindDirectory:
			name += "/"
			size = "-"
		case models.KindOther:
			name += "@"
		}

		modified := "-"
		if !entry.ModifiedAt.IsZero() {
			modified = entry.ModifiedAt.Format("Jan 02 15:04")
		}

		if err := table.Append([]string{name, entry.Kind.String(), size, modified}); err != nil {
			return err
		}
	}

	return table.Render()
}
