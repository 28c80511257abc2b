// package formatter provides text formatting for track metadata and playlist
// exports (CSV, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/desertthunder/strum/internal/models"
)

// FormatDurationMS renders a millisecond duration as m:ss (or h:mm:ss past an
// hour).
func FormatDurationMS(ms int) string {
	if ms < 0 {
		ms = 0
	}
	totalSeconds := ms / 1000
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

// FormatProgress renders "position / duration" for the play bar.
func FormatProgress(progressMS, durationMS int) string {
	return fmt.Sprintf("%s / %s", FormatDurationMS(progressMS), FormatDurationMS(durationMS))
}

// FormatTrack renders "Artist - Title" with graceful fallbacks.
func FormatTrack(t models.Track) string {
	if t.Artist == "" {
		return t.Title
	}
	return fmt.Sprintf("%s - %s", t.Artist, t.Title)
}

// RepeatGlyph returns the status-bar indicator for a repeat state.
func RepeatGlyph(r models.RepeatState) string {
	switch r {
	case models.RepeatContext:
		return "⟳"
	case models.RepeatTrack:
		return "⟲"
	default:
		return ""
	}
}

// ExportTracksCSV converts a track listing to CSV with columns: ID, Title, Artist, Album, Duration
func ExportTracksCSV(tracks []models.Track) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Artist", "Album", "Duration"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range tracks {
		record := []string{
			track.ID,
			track.Title,
			track.Artist,
			track.Album,
			strconv.Itoa(track.DurationMS / 1000),
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

// ExportTracksText converts a track listing to a numbered plain text list.
func ExportTracksText(name string, tracks []models.Track) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Playlist: %s\n", name))
	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", len(tracks)))

	for i, track := range tracks {
		buf.WriteString(fmt.Sprintf("%d. %s [%s]\n", i+1, FormatTrack(track), FormatDurationMS(track.DurationMS)))
	}

	return buf.Bytes()
}
