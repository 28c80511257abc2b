package formatter

import (
	"strings"
	"testing"

	"github.com/desertthunder/strum/internal/models"
)

func TestFormatDurationMS(t *testing.T) {
	cases := []struct {
		name string
		ms   int
		want string
	}{
		{"zero", 0, "0:00"},
		{"under a minute", 59000, "0:59"},
		{"minutes and seconds", 215000, "3:35"},
		{"over an hour", 3750000, "1:02:30"},
		{"negative clamps to zero", -5000, "0:00"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FormatDurationMS(tc.ms); got != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestFormatProgress(t *testing.T) {
	if got := FormatProgress(65000, 215000); got != "1:05 / 3:35" {
		t.Errorf("unexpected progress %q", got)
	}
}

func TestFormatTrack(t *testing.T) {
	t.Run("artist and title", func(t *testing.T) {
		track := models.Track{Title: "Paranoid Android", Artist: "Radiohead"}
		if got := FormatTrack(track); got != "Radiohead - Paranoid Android" {
			t.Errorf("unexpected format %q", got)
		}
	})

	t.Run("missing artist falls back to title", func(t *testing.T) {
		track := models.Track{Title: "Untitled"}
		if got := FormatTrack(track); got != "Untitled" {
			t.Errorf("unexpected format %q", got)
		}
	})
}

func TestRepeatGlyph(t *testing.T) {
	if RepeatGlyph(models.RepeatOff) != "" {
		t.Error("expected empty glyph for repeat off")
	}
	if RepeatGlyph(models.RepeatContext) == "" || RepeatGlyph(models.RepeatTrack) == "" {
		t.Error("expected glyphs for context and track repeat")
	}
}

func TestExportTracksCSV(t *testing.T) {
	tracks := []models.Track{
		{ID: "t1", Title: "One", Artist: "Artist A", Album: "Album X", DurationMS: 61000},
		{ID: "t2", Title: "Two, With Comma", Artist: "Artist B", Album: "Album Y", DurationMS: 180000},
	}

	data, err := ExportTracksCSV(tracks)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "ID,Title,Artist,Album,Duration" {
		t.Errorf("unexpected header %q", lines[0])
	}
	if !strings.Contains(lines[2], `"Two, With Comma"`) {
		t.Errorf("expected comma-containing title quoted, got %q", lines[2])
	}
	if !strings.HasSuffix(lines[1], "61") {
		t.Errorf("expected duration in seconds, got %q", lines[1])
	}
}

func TestExportTracksText(t *testing.T) {
	tracks := []models.Track{
		{Title: "One", Artist: "Artist A", DurationMS: 61000},
	}
	out := string(ExportTracksText("Morning Mix", tracks))

	if !strings.Contains(out, "Playlist: Morning Mix") {
		t.Errorf("expected playlist header, got %q", out)
	}
	if !strings.Contains(out, "1. Artist A - One [1:01]") {
		t.Errorf("expected numbered entry, got %q", out)
	}
}
