package ui

import (
	"fmt"
	"strings"

	"github.com/desertthunder/strum/internal/formatter"
	"github.com/desertthunder/strum/internal/models"
	"github.com/desertthunder/strum/internal/queue"
	"github.com/desertthunder/strum/internal/state"
)

// View renders the whole screen from state. It reads AppState and the bubbles
// component models and writes nothing; every layout decision is a pure
// function of that input.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderBody())
	b.WriteString("\n")
	b.WriteString(m.renderPlaybar())
	b.WriteString("\n")
	if status := m.renderStatus(); status != "" {
		b.WriteString(status)
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) renderHeader() string {
	title := "strum"
	if m.app.View() == state.PlaylistView && m.app.PlaylistName() != "" {
		title = fmt.Sprintf("strum / %s", m.app.PlaylistName())
	} else {
		title = fmt.Sprintf("strum / %s", m.app.View())
	}
	return styles.title.Render(title)
}

func (m *Model) renderBody() string {
	switch m.app.View() {
	case state.LibraryView:
		return m.renderLibrary()
	case state.SearchView:
		return m.renderSearch()
	case state.PlaylistView:
		return m.renderPlaylist()
	case state.DevicesView:
		return m.renderDevices()
	case state.NowPlayingView:
		return m.renderNowPlaying()
	case state.ErrorView:
		return styles.err.Render(m.app.ErrorMsg)
	default:
		return ""
	}
}

// listHeight is the number of rows available to a list body.
func (m *Model) listHeight() int {
	h := m.height - 10
	if h < 5 {
		h = 5
	}
	return h
}

// renderRows renders a cursor-windowed slice of rows, highlighting the
// selected one.
func (m *Model) renderRows(rows []string, cursor int) string {
	height := m.listHeight()
	start := 0
	if cursor >= height {
		start = cursor - height + 1
	}
	end := start + height
	if end > len(rows) {
		end = len(rows)
	}

	var b strings.Builder
	for i := start; i < end; i++ {
		if i == cursor {
			b.WriteString(styles.selected.Render("> " + rows[i]))
		} else {
			b.WriteString("  " + rows[i])
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func trackRow(t models.Track) string {
	saved := "  "
	if t.Saved {
		saved = "♥ "
	}
	return fmt.Sprintf("%s%s  %s", saved, formatter.FormatTrack(t), formatter.FormatDurationMS(t.DurationMS))
}

func (m *Model) renderLibrary() string {
	var b strings.Builder

	tabs := []string{"playlists", "saved tracks"}
	rendered := make([]string, len(tabs))
	for i, tab := range tabs {
		if i == m.app.LibraryTab {
			rendered[i] = styles.ok.Render(tab)
		} else {
			rendered[i] = styles.dim.Render(tab)
		}
	}
	b.WriteString(strings.Join(rendered, "  |  "))
	b.WriteString("\n\n")

	if m.app.LibraryTab == 0 {
		b.WriteString(m.renderPlaylists())
	} else {
		b.WriteString(m.renderPaginatedTracks(&m.app.SavedTracks, "no saved tracks"))
	}
	return b.String()
}

func (m *Model) renderPlaylists() string {
	list := &m.app.Playlists
	if !list.Loaded() {
		if list.InFlight {
			return m.spinner.View() + " loading playlists"
		}
		return styles.dim.Render("no playlists")
	}

	var b strings.Builder
	if m.filtering || m.filter != "" {
		b.WriteString(styles.warn.Render("filter: "+m.filter) + "\n")
	}

	items := list.Items
	cursor := list.Cursor
	if m.filter != "" {
		indices := m.filteredPlaylists()
		filtered := make([]models.Playlist, 0, len(indices))
		for _, i := range indices {
			filtered = append(filtered, items[i])
		}
		items = filtered
		cursor = m.filterCursor
	}

	if len(items) == 0 {
		b.WriteString(styles.dim.Render("no matches"))
		return b.String()
	}

	rows := make([]string, len(items))
	for i, p := range items {
		rows[i] = fmt.Sprintf("%s  %s", p.Name, styles.dim.Render(fmt.Sprintf("%d tracks", p.TrackCount)))
	}
	b.WriteString(m.renderRows(rows, cursor))
	if list.InFlight {
		b.WriteString("\n" + m.spinner.View() + " loading more")
	}
	return b.String()
}

func (m *Model) renderPaginatedTracks(list *state.Paginated[models.Track], empty string) string {
	if !list.Loaded() {
		if list.InFlight {
			return m.spinner.View() + " loading tracks"
		}
		return styles.dim.Render(empty)
	}
	if len(list.Items) == 0 {
		return styles.dim.Render(empty)
	}

	rows := make([]string, len(list.Items))
	for i, t := range list.Items {
		rows[i] = trackRow(t)
	}
	out := m.renderRows(rows, list.Cursor)
	if list.InFlight {
		out += "\n" + m.spinner.View() + " loading more"
	}
	return out
}

func (m *Model) renderPlaylist() string {
	return m.renderPaginatedTracks(&m.app.Tracks, "this playlist is empty")
}

func (m *Model) renderSearch() string {
	var b strings.Builder
	b.WriteString(m.searchInput.View())
	b.WriteString("\n\n")

	if m.app.Search == nil {
		if m.lastQuery != "" {
			b.WriteString(m.spinner.View() + " searching")
		} else {
			b.WriteString(styles.dim.Render("type a query and press enter"))
		}
		return b.String()
	}

	results := m.app.Search
	rows := make([]string, 0, m.searchLen())
	for _, t := range results.Tracks {
		rows = append(rows, trackRow(t))
	}
	for _, p := range results.Playlists {
		rows = append(rows, fmt.Sprintf("  %s  %s", p.Name, styles.dim.Render("playlist by "+p.Owner)))
	}
	if len(rows) == 0 {
		b.WriteString(styles.dim.Render(fmt.Sprintf("no results for %q", results.Query)))
		return b.String()
	}
	b.WriteString(m.renderRows(rows, m.app.SearchCursor))
	return b.String()
}

func (m *Model) renderDevices() string {
	if len(m.app.Devices) == 0 {
		return styles.dim.Render("no devices found; open a client somewhere and press d again")
	}
	rows := make([]string, len(m.app.Devices))
	for i, d := range m.app.Devices {
		marker := "  "
		if d.Active {
			marker = styles.ok.Render("● ")
		}
		rows[i] = fmt.Sprintf("%s%s  %s", marker, d.Name, styles.dim.Render(fmt.Sprintf("%s, vol %d%%", d.Type, d.VolumePercent)))
	}
	return m.renderRows(rows, m.app.DeviceCursor)
}

func (m *Model) renderNowPlaying() string {
	var b strings.Builder

	snap := m.app.Snapshot
	if snap == nil || snap.Track == nil {
		b.WriteString(styles.dim.Render("nothing playing"))
	} else {
		t := snap.Track
		b.WriteString(styles.ok.Render(t.Title) + "\n")
		b.WriteString(t.Artist)
		if t.Album != "" {
			b.WriteString(styles.dim.Render("  " + t.Album))
		}
		b.WriteString("\n")
		if snap.DeviceName != "" {
			b.WriteString(styles.dim.Render("on "+snap.DeviceName) + "\n")
		}
	}

	b.WriteString("\n" + styles.title.Render("recently played") + "\n")
	if len(m.app.Recent) == 0 {
		b.WriteString(styles.dim.Render("no listening history"))
		return b.String()
	}
	rows := make([]string, len(m.app.Recent))
	for i, t := range m.app.Recent {
		rows[i] = trackRow(t)
	}
	b.WriteString(m.renderRows(rows, m.app.RecentCursor))
	return b.String()
}

// transportPending reports whether a playback-mutating command awaits its
// result. The playbar swaps its state glyph for the spinner while one does.
func (m *Model) transportPending() bool {
	for k := queue.KindPlay; k <= queue.KindToggleSave; k++ {
		if m.app.OpPending(k.String()) {
			return true
		}
	}
	return false
}

func (m *Model) renderPlaybar() string {
	snap := m.app.Snapshot
	if snap == nil || snap.Track == nil {
		if m.transportPending() {
			return styles.playbar.Render(m.spinner.View() + " " + styles.dim.Render("nothing playing"))
		}
		return styles.playbar.Render(styles.dim.Render("nothing playing"))
	}

	symbol := "⏸"
	if snap.Playing {
		symbol = "▶"
	}
	if m.transportPending() {
		symbol = m.spinner.View()
	}

	duration := snap.Track.DurationMS
	pct := 0.0
	if duration > 0 {
		pct = float64(snap.ProgressMS) / float64(duration)
		if pct > 1 {
			pct = 1
		}
	}

	flags := ""
	if snap.Shuffle {
		flags += " ⤨"
	}
	if glyph := formatter.RepeatGlyph(snap.Repeat); glyph != "" {
		flags += " " + glyph
	}

	line := fmt.Sprintf("%s %s  %s %s  vol %d%%%s",
		symbol,
		formatter.FormatTrack(*snap.Track),
		m.progress.ViewAs(pct),
		formatter.FormatProgress(snap.ProgressMS, duration),
		snap.Volume,
		flags,
	)
	return styles.playbar.Render(line)
}

func (m *Model) renderStatus() string {
	status := m.app.Status
	if status == nil {
		return ""
	}
	switch status.Severity {
	case state.StatusError:
		return styles.err.Render(status.Text)
	case state.StatusWarn:
		return styles.warn.Render(status.Text)
	default:
		return styles.ok.Render(status.Text)
	}
}
