package formatter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/sudipghimire533/ytui-music-sub000/internal/models"
	"github.com/sudipghimire533/ytui-music-sub000/internal/shared"
)

// Format selects how CLI output is rendered.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
)

// maxCellWidth caps text table columns so long titles do not wrap the terminal.
const maxCellWidth = 48

// ParseFormat accepts text, json, csv and markdown (md and txt are aliases).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, s)
}

// Table is a rendered view of a list. Value is what JSON output encodes.
type Table struct {
	Headers []string
	Rows    [][]string
	Value   any
}

// Write renders t to w in the given format.
func (t Table) Write(w io.Writer, f Format, pretty bool) error {
	switch f {
	case FormatJSON:
		data, err := shared.MarshalJSON(t.Value, pretty)
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case FormatCSV:
		return t.writeCSV(w)
	case FormatMarkdown:
		return t.writeMarkdown(w)
	default:
		return t.writeText(w)
	}
}

func (t Table) writeCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Headers); err != nil {
		return fmt.Errorf("failed to write CSV headers: %w", err)
	}
	if err := writer.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("failed to write CSV records: %w", err)
	}
	return nil
}

func (t Table) writeMarkdown(w io.Writer) error {
	var b strings.Builder
	b.WriteString("| " + strings.Join(t.Headers, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(t.Headers)) + "\n")
	for _, row := range t.Rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = strings.ReplaceAll(c, "|", `\|`)
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// writeText aligns columns by terminal cell width, so wide characters line up.
func (t Table) writeText(w io.Writer) error {
	if len(t.Rows) == 0 {
		_, err := fmt.Fprintln(w, "No results.")
		return err
	}

	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range t.Rows {
		for i, c := range row {
			widths[i] = max(widths[i], min(runewidth.StringWidth(c), maxCellWidth))
		}
	}

	var b strings.Builder
	line := func(cells []string) {
		for i, c := range cells {
			if i == len(cells)-1 {
				b.WriteString(shared.Truncate(c, widths[i]))
				break
			}
			b.WriteString(shared.PadRight(c, widths[i]))
			b.WriteString("  ")
		}
		b.WriteString("\n")
	}

	line(t.Headers)
	for _, row := range t.Rows {
		line(row)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// MusicTable lists videos with their position, used as the play index.
func MusicTable(items []models.MusicItem) Table {
	t := Table{Headers: []string{"#", "ID", "Title", "Author", "Length"}, Value: items}
	for i, m := range items {
		t.Rows = append(t.Rows, []string{strconv.Itoa(i), m.ID, m.Title, m.Author, shared.FormatDuration(m.Duration)})
	}
	return t
}

func PlaylistTable(items []models.PlaylistItem) Table {
	t := Table{Headers: []string{"#", "ID", "Title", "Author", "Videos"}, Value: items}
	for i, p := range items {
		t.Rows = append(t.Rows, []string{strconv.Itoa(i), p.ID, p.Title, p.Author, strconv.Itoa(p.VideoCount)})
	}
	return t
}

func ArtistTable(items []models.ArtistItem) Table {
	t := Table{Headers: []string{"#", "ID", "Name", "Subscribers", "Videos"}, Value: items}
	for i, a := range items {
		t.Rows = append(t.Rows, []string{strconv.Itoa(i), a.ID, a.Name, strconv.Itoa(a.Subscribers), strconv.Itoa(a.VideoCount)})
	}
	return t
}

type favouriteView struct {
	ID        string          `json:"id"`
	Kind      models.ItemKind `json:"kind"`
	ItemID    string          `json:"item_id"`
	Title     string          `json:"title"`
	Author    string          `json:"author"`
	CreatedAt time.Time       `json:"created_at"`
}

// FavouriteTable lists favourites. JSON output carries the persisted fields.
func FavouriteTable(favs []*models.Favourite) Table {
	views := make([]favouriteView, 0, len(favs))
	t := Table{Headers: []string{"Kind", "ID", "Title", "Author", "Added"}}
	for _, f := range favs {
		views = append(views, favouriteView{
			ID:        f.ID(),
			Kind:      f.Kind(),
			ItemID:    f.ItemID(),
			Title:     f.Title(),
			Author:    f.Author(),
			CreatedAt: f.CreatedAt(),
		})
		t.Rows = append(t.Rows, []string{string(f.Kind()), f.ItemID(), f.Title(), f.Author(), f.CreatedAt().Local().Format(time.DateTime)})
	}
	t.Value = views
	return t
}

func HistoryTable(entries []models.HistoryEntry) Table {
	t := Table{Headers: []string{"Played", "ID", "Title", "Author", "Length"}, Value: entries}
	for _, e := range entries {
		t.Rows = append(t.Rows, []string{
			e.PlayedAt.Local().Format(time.DateTime),
			e.Item.ID,
			e.Item.Title,
			e.Item.Author,
			shared.FormatDuration(e.Item.Duration),
		})
	}
	return t
}

// WriteSearchResults writes each non-empty result kind under its own heading.
func WriteSearchResults(w io.Writer, res *models.SearchResults, f Format, pretty bool) error {
	if f == FormatJSON {
		return Table{Value: res}.Write(w, f, pretty)
	}

	sections := []struct {
		name  string
		table Table
		n     int
	}{
		{"Music", MusicTable(res.Music), len(res.Music)},
		{"Playlists", PlaylistTable(res.Playlists), len(res.Playlists)},
		{"Artists", ArtistTable(res.Artists), len(res.Artists)},
	}

	written := 0
	for _, s := range sections {
		if s.n == 0 {
			continue
		}
		if written > 0 {
			fmt.Fprintln(w)
		}
		if f != FormatCSV {
			heading := s.name
			if f == FormatMarkdown {
				heading = "## " + heading
			}
			fmt.Fprintf(w, "%s\n\n", heading)
		}
		if err := s.table.Write(w, f, pretty); err != nil {
			return err
		}
		written++
	}

	if written == 0 {
		_, err := fmt.Fprintln(w, "No results.")
		return err
	}
	return nil
}
