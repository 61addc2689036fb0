// package formatter renders song metadata for the CLI (plain text, Markdown, CSV, JSON) and writes exports to disk
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/desertthunder/musicone/internal/models"
	"github.com/desertthunder/musicone/internal/shared"
)

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slug derives a filesystem-friendly base name from the artist and song name.
//
// Falls back to "song" when nothing usable remains.
func Slug(info *models.SongInfo) string {
	base := strings.ToLower(strings.TrimSpace(info.Artist + " " + info.Name))
	slug := strings.Trim(slugPattern.ReplaceAllString(base, "-"), "-")
	if slug == "" {
		return "song"
	}
	return slug
}

// SongText renders info as an aligned plain-text block, skipping empty fields.
func SongText(info *models.SongInfo) ([]byte, error) {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	rows := [][2]string{
		{"Name", info.Name},
		{"Artist", info.Artist},
		{"Album", info.Album},
		{"Duration", info.Duration()},
		{"Released", info.ReleaseDate},
		{"Cover", info.AlbumImage},
		{"Platform", info.Platform},
	}
	for _, r := range rows {
		if r[1] == "" {
			continue
		}
		if _, err := fmt.Fprintf(w, "%s:\t%s\n", r[0], r[1]); err != nil {
			return nil, fmt.Errorf("failed to write text: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("failed to flush text: %w", err)
	}
	return buf.Bytes(), nil
}

// SongMarkdown renders info as Markdown with an optional cover image.
//
// imageRef may be a local filename or the remote image URL; empty omits the image.
func SongMarkdown(info *models.SongInfo, imageRef string) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", info.Name))

	if imageRef != "" {
		buf.WriteString(fmt.Sprintf("![Cover](%s)\n\n", imageRef))
	}

	buf.WriteString(fmt.Sprintf("**Artist**: %s\n", info.Artist))
	if info.Album != "" {
		buf.WriteString(fmt.Sprintf("**Album**: %s\n", info.Album))
	}
	buf.WriteString(fmt.Sprintf("**Duration**: %s\n", info.Duration()))
	if info.ReleaseDate != "" {
		buf.WriteString(fmt.Sprintf("**Released**: %s\n", info.ReleaseDate))
	}
	if info.Platform != "" {
		buf.WriteString(fmt.Sprintf("**Source**: %s\n", info.Platform))
	}

	return buf.Bytes(), nil
}

// SongCSV renders info as a header row plus one record: Name, Artist, Album, Duration, Released, Cover
func SongCSV(info *models.SongInfo) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Name", "Artist", "Album", "Duration", "Released", "Cover"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	record := []string{info.Name, info.Artist, info.Album, info.Duration(), info.ReleaseDate, info.AlbumImage}
	if err := writer.Write(record); err != nil {
		return nil, fmt.Errorf("failed to write CSV record: %w", err)
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// SongJSON renders info as indented JSON using the backend's field names.
func SongJSON(info *models.SongInfo) ([]byte, error) {
	return shared.MarshalJSON(info, true)
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory  string
	Files      []string
	CoverImage string
}

// WriteMarkdownExport writes info to {dir}/README.md, plus {dir}/cover.jpg when the cover can be fetched.
//
// Directory name defaults to [Slug]. A failed cover download is reported on warn and the
// Markdown then links the remote image instead.
func WriteMarkdownExport(info *models.SongInfo, outputDir string, warn io.Writer) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = Slug(info)
	}
	if warn == nil {
		warn = io.Discard
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{
		Directory: outputDir,
		Files:     []string{},
	}

	imageRef := info.AlbumImage
	if info.AlbumImage != "" {
		imageData, err := DownloadImage(info.AlbumImage)
		if err != nil {
			fmt.Fprintf(warn, "Warning: failed to download cover image: %v\n", err)
		} else {
			coverPath := filepath.Join(outputDir, "cover.jpg")
			if err := os.WriteFile(coverPath, imageData, 0644); err != nil {
				fmt.Fprintf(warn, "Warning: failed to save cover image: %v\n", err)
			} else {
				imageRef = "cover.jpg"
				result.CoverImage = coverPath
				result.Files = append(result.Files, coverPath)
			}
		}
	}

	mdData, err := SongMarkdown(info, imageRef)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	result.Files = append(result.Files, mdFile)

	return result, nil
}

// WriteTextExport writes info in plain text format.
//
// Defaults to {slug}.txt as the filename.
func WriteTextExport(info *models.SongInfo, path string) (string, error) {
	if path == "" {
		path = Slug(info) + ".txt"
	}

	textData, err := SongText(info)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(path, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return path, nil
}
