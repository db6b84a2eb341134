// package formatter renders result lists and playlist exports as plain text, CSV, Markdown and JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sudipghimire533/ytui-music-sub000/internal/models"
	"github.com/sudipghimire533/ytui-music-sub000/internal/shared"
)

// ExportToCSV converts a playlist to CSV with columns: ID, Title, Author, Duration
func ExportToCSV(pc *models.PlaylistContents) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Author", "Duration"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, item := range pc.Music {
		record := []string{
			item.ID,
			item.Title,
			item.Author,
			strconv.Itoa(item.Duration),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a playlist to a Markdown document, linking each video through streamPrefix when it is set.
func ExportToMarkdown(pc *models.PlaylistContents, streamPrefix string) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", titleOf(pc))
	if pc.Playlist.Author != "" {
		fmt.Fprintf(&buf, "**Author**: %s\n", pc.Playlist.Author)
	}
	fmt.Fprintf(&buf, "**Videos**: %d\n", len(pc.Music))
	fmt.Fprintf(&buf, "**Total length**: %s\n\n", shared.FormatDuration(totalSeconds(pc.Music)))

	buf.WriteString("## Videos\n\n")
	for i, item := range pc.Music {
		title := item.Title
		if streamPrefix != "" {
			title = fmt.Sprintf("[%s](%s%s)", item.Title, streamPrefix, item.ID)
		}
		fmt.Fprintf(&buf, "%d. %s - %s [%s]\n", i+1, item.Author, title, shared.FormatDuration(item.Duration))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a playlist to plain text
func ExportToText(pc *models.PlaylistContents) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlist: %s\n", titleOf(pc))
	if pc.Playlist.Author != "" {
		fmt.Fprintf(&buf, "Author: %s\n", pc.Playlist.Author)
	}
	fmt.Fprintf(&buf, "Videos: %d\n\n", len(pc.Music))

	for i, item := range pc.Music {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, item.Author, item.Title)
	}

	return buf.Bytes(), nil
}

// ToMetadataJSON generates a JSON representation of playlist metadata (without videos)
func ToMetadataJSON(playlist models.PlaylistItem) ([]byte, error) {
	return shared.MarshalJSON(playlist, true)
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	TracksFile   string
	MetadataFile string
}

// WriteCSVExport exports a playlist to CSV with an accompanying metadata JSON file.
//
// Defaults to the playlist ID as the base filename & creates {base}_tracks.csv and {base}_metadata.json
func WriteCSVExport(pc *models.PlaylistContents, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = pc.Playlist.ID
	}

	csvData, err := ExportToCSV(pc)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	tracksFile := baseFilepath + "_tracks.csv"
	if err := os.WriteFile(tracksFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(pc.Playlist)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{
		TracksFile:   tracksFile,
		MetadataFile: metadataFile,
	}, nil
}

// WriteMarkdownExport exports a playlist to {outputDir}/README.md.
//
// Directory name defaults to the playlist ID.
func WriteMarkdownExport(pc *models.PlaylistContents, outputDir, streamPrefix string) (string, error) {
	if outputDir == "" {
		outputDir = pc.Playlist.ID
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	mdData, err := ExportToMarkdown(pc, streamPrefix)
	if err != nil {
		return "", fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return "", fmt.Errorf("failed to write Markdown file: %w", err)
	}
	return mdFile, nil
}

// WriteTextExport exports a playlist to plain text.
//
// Defaults to {playlist.ID}_tracks.txt as the filename.
func WriteTextExport(pc *models.PlaylistContents, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s_tracks.txt", pc.Playlist.ID)
	}

	textData, err := ExportToText(pc)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(path, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}
	return path, nil
}

// WriteJSONExport writes the playlist and its videos as indented JSON.
//
// Defaults to {playlist.ID}.json as the filename.
func WriteJSONExport(pc *models.PlaylistContents, path string) (string, error) {
	if path == "" {
		path = pc.Playlist.ID + ".json"
	}

	data, err := shared.MarshalJSON(pc, true)
	if err != nil {
		return "", fmt.Errorf("JSON marshal failed: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("JSON write failed: %w", err)
	}
	return path, nil
}

// ManifestEntry is one playlist's line in an export manifest.
type ManifestEntry struct {
	PlaylistID   string   `json:"playlist_id"`
	PlaylistName string   `json:"playlist_name"`
	Status       string   `json:"status"` // "success" or "failed"
	Files        []string `json:"files,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// Manifest summarises a bulk export.
type Manifest struct {
	Format            string          `json:"format"`
	ExportedAt        time.Time       `json:"exported_at"`
	TotalPlaylists    int             `json:"total_playlists"`
	SuccessfulExports int             `json:"successful_exports"`
	FailedExports     int             `json:"failed_exports"`
	Playlists         []ManifestEntry `json:"playlists"`
}

// WriteManifest writes m as indented JSON to path.
func WriteManifest(m Manifest, path string) error {
	if m.ExportedAt.IsZero() {
		m.ExportedAt = time.Now().UTC()
	}

	data, err := shared.MarshalJSON(m, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

func titleOf(pc *models.PlaylistContents) string {
	if pc.Playlist.Title != "" {
		return pc.Playlist.Title
	}
	return pc.Playlist.ID
}

func totalSeconds(items []models.MusicItem) int {
	total := 0
	for _, item := range items {
		total += item.Duration
	}
	return total
}
