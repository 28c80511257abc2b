package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/strum/internal/models"
	"github.com/desertthunder/strum/internal/mpris"
	"github.com/desertthunder/strum/internal/poller"
	"github.com/desertthunder/strum/internal/queue"
	"github.com/desertthunder/strum/internal/spotify"
	"github.com/desertthunder/strum/internal/state"
)

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.progress.Width = clampInt(msg.Width-30, 10, 60)
		m.searchInput.Width = clampInt(msg.Width-10, 20, 80)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tickMsg:
		m.app.ExpireStatus(time.Time(msg))
		return m, m.tick()

	case statusNoteMsg:
		m.app.SetStatus(msg.text, msg.severity, time.Now())
		return m, nil

	case snapshotMsg:
		return m.handleSnapshot(poller.Event(msg))

	case commandResultMsg:
		return m.handleResult(queue.Result(msg))

	case mediaKeyMsg:
		return m.handleMediaKey(mpris.Key(msg))

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}
	return m, nil
}

// handleSnapshot applies one poll outcome and re-arms the snapshot listener.
func (m *Model) handleSnapshot(ev poller.Event) (tea.Model, tea.Cmd) {
	rearm := m.waitForSnapshot()
	now := time.Now()

	if ev.Err != nil {
		switch {
		case ev.SessionExpired:
			m.app.FailView("session expired: run 'strum auth login' and restart")
		default:
			kind, _ := spotify.KindOf(ev.Err)
			if kind == spotify.KindRateLimited {
				m.app.SetStatus("rate limited, backing off", state.StatusWarn, now)
			} else {
				// transient poll failures self-heal on the next tick
				m.logger.Debug("poll failed", "err", ev.Err)
			}
		}
		return m, rearm
	}

	if m.app.ApplySnapshot(ev.Snapshot, ev.Seq) && m.media != nil {
		m.media.UpdateMetadata(m.app.Snapshot)
	}
	return m, rearm
}

// handleResult applies one finished command and re-arms the result listener.
func (m *Model) handleResult(res queue.Result) (tea.Model, tea.Cmd) {
	rearm := m.waitForResult()
	cmd := res.Command

	if !isTransport(cmd.Kind) {
		m.applyFetch(res)
		return m, rearm
	}

	// A newer command of the same kind supersedes this result entirely.
	if !m.app.CompleteOp(cmd.Kind.String(), cmd.Seq) {
		return m, rearm
	}

	if res.Err != nil {
		m.reportCommandError(cmd, res.Err)
		m.poller.Nudge()
		return m, rearm
	}

	m.applyOptimistic(cmd)
	m.poller.Nudge()
	return m, rearm
}

// applyFetch installs fetched data. Results carrying a stale view generation
// belong to an abandoned view and are dropped, but the owning list's in-flight
// flag must still be released or its pagination wedges permanently.
func (m *Model) applyFetch(res queue.Result) {
	cmd := res.Command
	if !m.app.CurrentGen(cmd.Gen) {
		m.logger.Debug("discarding stale fetch", "kind", cmd.Kind, "gen", cmd.Gen)
		m.releaseList(cmd.Kind)
		return
	}

	if res.Err != nil {
		m.releaseList(cmd.Kind)
		m.reportCommandError(cmd, res.Err)
		return
	}

	switch cmd.Kind {
	case queue.KindFetchPlaylists:
		page := res.Data.(playlistPage)
		m.app.Playlists.AppendPage(page.Items, page.Total, page.Offset)

	case queue.KindFetchPlaylistTracks:
		if cmd.Target != m.app.PlaylistID() {
			m.app.Tracks.AbortFetch()
			return
		}
		page := res.Data.(trackPage)
		m.app.Tracks.AppendPage(page.Items, page.Total, page.Offset)

	case queue.KindFetchSavedTracks:
		page := res.Data.(trackPage)
		m.app.SavedTracks.AppendPage(page.Items, page.Total, page.Offset)

	case queue.KindFetchDevices:
		m.app.Devices = res.Data.([]models.Device)
		m.app.DeviceCursor = clampInt(m.app.DeviceCursor, 0, maxIndex(len(m.app.Devices)))

	case queue.KindFetchRecent:
		m.app.Recent = res.Data.([]models.Track)
		m.app.RecentCursor = clampInt(m.app.RecentCursor, 0, maxIndex(len(m.app.Recent)))

	case queue.KindSearch:
		results := res.Data.(*models.SearchResults)
		if results.Query != m.lastQuery {
			return
		}
		m.app.Search = results
		m.app.SearchCursor = 0
	}
}

// releaseList clears the in-flight flag on the paginated list a discarded or
// failed fetch was issued for, so a later fetch can start.
func (m *Model) releaseList(kind queue.Kind) {
	switch kind {
	case queue.KindFetchPlaylists:
		m.app.Playlists.AbortFetch()
	case queue.KindFetchPlaylistTracks:
		m.app.Tracks.AbortFetch()
	case queue.KindFetchSavedTracks:
		m.app.SavedTracks.AbortFetch()
	}
}

// reportCommandError translates a failed command into a status-line message.
// Raw wire errors never reach the status line.
func (m *Model) reportCommandError(cmd queue.Command, err error) {
	now := time.Now()
	kind, _ := spotify.KindOf(err)

	switch kind {
	case spotify.KindUnauthorized:
		m.app.FailView("session expired: run 'strum auth login' and restart")
	case spotify.KindRateLimited:
		m.app.SetStatus(fmt.Sprintf("%s rate limited, try again shortly", cmd.Kind), state.StatusWarn, now)
	case spotify.KindNotFound:
		if isTransport(cmd.Kind) {
			m.app.SetStatus("no active device: press d to pick one", state.StatusWarn, now)
		} else {
			m.app.SetStatus(fmt.Sprintf("%s failed: not found", cmd.Kind), state.StatusError, now)
		}
	default:
		m.app.SetStatus(fmt.Sprintf("%s failed", cmd.Kind), state.StatusError, now)
	}
	m.logger.Warn("command failed", "kind", cmd.Kind, "err", err)
}

// applyOptimistic installs the expected successor snapshot for commands whose
// outcome is fully determined by their arguments. The next poll confirms or
// corrects it; commands whose outcome depends on the remote (play, next,
// previous, transfer) just wait for that poll.
func (m *Model) applyOptimistic(cmd queue.Command) {
	now := time.Now()

	if cmd.Kind == queue.KindToggleSave {
		saved := !cmd.Flag
		m.markSaved(cmd.Target, saved)
		if snap := m.app.Snapshot; snap != nil && snap.Track != nil && snap.Track.ID == cmd.Target {
			next := *snap
			track := *snap.Track
			track.Saved = saved
			next.Track = &track
			next.UpdatedAt = now
			m.app.ApplySnapshot(&next, m.seq.Next())
		}
		if saved {
			m.app.SetStatus("saved to library", state.StatusInfo, now)
		} else {
			m.app.SetStatus("removed from library", state.StatusInfo, now)
		}
		return
	}

	snap := m.app.Snapshot
	if snap == nil {
		return
	}
	next := *snap
	if snap.Track != nil {
		track := *snap.Track
		next.Track = &track
	}
	next.UpdatedAt = now

	switch cmd.Kind {
	case queue.KindResume:
		next.Playing = true
	case queue.KindPause:
		next.Playing = false
	case queue.KindSeek:
		next.ProgressMS = cmd.Value
	case queue.KindVolume:
		next.Volume = cmd.Value
	case queue.KindShuffle:
		next.Shuffle = cmd.Flag
	case queue.KindRepeat:
		next.Repeat = models.RepeatState(cmd.Target)
	default:
		return
	}
	m.app.ApplySnapshot(&next, m.seq.Next())
}

// markSaved flips the saved flag on every loaded copy of a track.
func (m *Model) markSaved(trackID string, saved bool) {
	mark := func(tracks []models.Track) {
		for i := range tracks {
			if tracks[i].ID == trackID {
				tracks[i].Saved = saved
			}
		}
	}
	mark(m.app.Tracks.Items)
	mark(m.app.SavedTracks.Items)
	mark(m.app.Recent)
	if m.app.Search != nil {
		mark(m.app.Search.Tracks)
	}
}

func (m *Model) handleMediaKey(k mpris.Key) (tea.Model, tea.Cmd) {
	rearm := m.waitForMediaKey()
	switch k {
	case mpris.KeyPlayPause:
		m.togglePlayback()
	case mpris.KeyNext:
		m.dispatch(queue.Command{Kind: queue.KindNext})
	case mpris.KeyPrevious:
		m.dispatch(queue.Command{Kind: queue.KindPrevious})
	case mpris.KeyStop:
		m.dispatch(queue.Command{Kind: queue.KindPause})
	}
	return m, rearm
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.quitting = true
		return m, tea.Quit
	}
	if m.searchInput.Focused() {
		return m.handleSearchInput(msg)
	}
	if m.filtering {
		return m.handleFilterInput(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp

	case key.Matches(msg, m.keys.back):
		if m.app.Back() {
			m.syncPollRate()
			m.refetchForView()
		}

	case key.Matches(msg, m.keys.search):
		m.app.Navigate(state.SearchView)
		m.syncPollRate()
		m.searchInput.Reset()
		m.lastQuery = ""
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.devices):
		m.app.Navigate(state.DevicesView)
		m.syncPollRate()
		m.fetchDevices()

	case key.Matches(msg, m.keys.nowPlaying):
		m.app.Navigate(state.NowPlayingView)
		m.syncPollRate()
		m.fetchRecent()

	case key.Matches(msg, m.keys.toggle):
		m.togglePlayback()

	case key.Matches(msg, m.keys.next):
		m.dispatch(queue.Command{Kind: queue.KindNext})

	case key.Matches(msg, m.keys.previous):
		m.dispatch(queue.Command{Kind: queue.KindPrevious})

	case key.Matches(msg, m.keys.seekFwd):
		m.seekBy(5000)

	case key.Matches(msg, m.keys.seekBack):
		m.seekBy(-5000)

	case key.Matches(msg, m.keys.volUp):
		m.volumeBy(5)

	case key.Matches(msg, m.keys.volDown):
		m.volumeBy(-5)

	case key.Matches(msg, m.keys.shuffle):
		on := true
		if snap := m.app.Snapshot; snap != nil {
			on = !snap.Shuffle
		}
		m.dispatch(queue.Command{Kind: queue.KindShuffle, Flag: on})

	case key.Matches(msg, m.keys.repeat):
		mode := models.RepeatOff.Next()
		if snap := m.app.Snapshot; snap != nil {
			mode = snap.Repeat.Next()
		}
		m.dispatch(queue.Command{Kind: queue.KindRepeat, Target: string(mode)})

	case key.Matches(msg, m.keys.save):
		m.toggleSave()

	case key.Matches(msg, m.keys.yank):
		return m, m.yankURL()

	case key.Matches(msg, m.keys.filter):
		if m.app.View() == state.LibraryView && m.app.LibraryTab == 0 {
			m.filtering = true
			m.filter = ""
			m.filterCursor = 0
		}

	case key.Matches(msg, m.keys.tab):
		if m.app.View() == state.LibraryView {
			m.app.LibraryTab = 1 - m.app.LibraryTab
			m.filter = ""
			if m.app.LibraryTab == 1 && !m.app.SavedTracks.Loaded() {
				m.fetchSavedTracks()
			}
		}

	case key.Matches(msg, m.keys.up):
		m.moveCursor(-1)

	case key.Matches(msg, m.keys.down):
		m.moveCursor(1)

	case key.Matches(msg, m.keys.enter):
		m.activateSelection()
	}
	return m, nil
}

func (m *Model) handleSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		q := strings.TrimSpace(m.searchInput.Value())
		if q != "" {
			m.lastQuery = q
			m.dispatch(queue.Command{Kind: queue.KindSearch, Query: q})
		}
		m.searchInput.Blur()
		return m, nil
	case tea.KeyEsc:
		m.searchInput.Blur()
		if m.app.Back() {
			m.syncPollRate()
			m.refetchForView()
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m *Model) handleFilterInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filtering = false
		m.filter = ""
		m.filterCursor = 0
	case tea.KeyEnter:
		m.filtering = false
	case tea.KeyBackspace:
		if m.filter != "" {
			runes := []rune(m.filter)
			m.filter = string(runes[:len(runes)-1])
			m.filterCursor = 0
		}
	case tea.KeyRunes, tea.KeySpace:
		m.filter += string(msg.Runes)
		m.filterCursor = 0
	}
	return m, nil
}

// refetchForView reloads datasets discarded when the restored view was last
// left.
func (m *Model) refetchForView() {
	switch m.app.View() {
	case state.PlaylistView:
		if !m.app.Tracks.Loaded() {
			m.fetchPlaylistTracks()
		}
	case state.DevicesView:
		m.fetchDevices()
	case state.NowPlayingView:
		m.fetchRecent()
	case state.LibraryView:
		if m.app.LibraryTab == 1 && !m.app.SavedTracks.Loaded() {
			m.fetchSavedTracks()
		}
	}
}

func (m *Model) moveCursor(delta int) {
	switch m.app.View() {
	case state.LibraryView:
		if m.app.LibraryTab == 0 {
			if m.filter != "" {
				n := len(m.filteredPlaylists())
				m.filterCursor = clampInt(m.filterCursor+delta, 0, maxIndex(n))
				return
			}
			m.app.Playlists.MoveCursor(delta)
			if delta > 0 && m.app.Playlists.NearEnd(pageMargin) {
				m.fetchPlaylists()
			}
		} else {
			m.app.SavedTracks.MoveCursor(delta)
			if delta > 0 && m.app.SavedTracks.NearEnd(pageMargin) {
				m.fetchSavedTracks()
			}
		}

	case state.PlaylistView:
		m.app.Tracks.MoveCursor(delta)
		if delta > 0 && m.app.Tracks.NearEnd(pageMargin) {
			m.fetchPlaylistTracks()
		}

	case state.DevicesView:
		m.app.DeviceCursor = clampInt(m.app.DeviceCursor+delta, 0, maxIndex(len(m.app.Devices)))

	case state.SearchView:
		m.app.SearchCursor = clampInt(m.app.SearchCursor+delta, 0, maxIndex(m.searchLen()))

	case state.NowPlayingView:
		m.app.RecentCursor = clampInt(m.app.RecentCursor+delta, 0, maxIndex(len(m.app.Recent)))
	}
}

// searchLen is the length of the combined search result list: tracks first,
// then playlists.
func (m *Model) searchLen() int {
	if m.app.Search == nil {
		return 0
	}
	return len(m.app.Search.Tracks) + len(m.app.Search.Playlists)
}

func (m *Model) activateSelection() {
	switch m.app.View() {
	case state.LibraryView:
		if m.app.LibraryTab == 0 {
			p, ok := m.selectedPlaylist()
			if !ok {
				return
			}
			m.filter = ""
			m.filtering = false
			m.app.OpenPlaylist(p.ID, p.Name)
			m.syncPollRate()
			m.fetchPlaylistTracks()
			return
		}
		if track, ok := m.app.SavedTracks.Selected(); ok {
			m.dispatch(queue.Command{Kind: queue.KindPlay, URIs: []string{track.URI}})
		}

	case state.PlaylistView:
		if _, ok := m.app.Tracks.Selected(); ok {
			m.dispatch(queue.Command{
				Kind:   queue.KindPlay,
				Target: "spotify:playlist:" + m.app.PlaylistID(),
				Value:  m.app.Tracks.Cursor,
			})
		}

	case state.SearchView:
		if m.app.Search == nil {
			return
		}
		cursor := m.app.SearchCursor
		if cursor < len(m.app.Search.Tracks) {
			track := m.app.Search.Tracks[cursor]
			m.dispatch(queue.Command{Kind: queue.KindPlay, URIs: []string{track.URI}})
			return
		}
		if i := cursor - len(m.app.Search.Tracks); i < len(m.app.Search.Playlists) {
			p := m.app.Search.Playlists[i]
			m.app.OpenPlaylist(p.ID, p.Name)
			m.syncPollRate()
			m.fetchPlaylistTracks()
		}

	case state.DevicesView:
		if m.app.DeviceCursor < len(m.app.Devices) {
			device := m.app.Devices[m.app.DeviceCursor]
			m.dispatch(queue.Command{Kind: queue.KindTransfer, Target: device.ID})
			m.app.SetStatus("transferring playback to "+device.Name, state.StatusInfo, time.Now())
		}

	case state.NowPlayingView:
		if m.app.RecentCursor < len(m.app.Recent) {
			track := m.app.Recent[m.app.RecentCursor]
			m.dispatch(queue.Command{Kind: queue.KindPlay, URIs: []string{track.URI}})
		}
	}
}

// selectedPlaylist resolves the playlist under the cursor, honoring an active
// local filter.
func (m *Model) selectedPlaylist() (models.Playlist, bool) {
	if m.filter != "" {
		indices := m.filteredPlaylists()
		if m.filterCursor < 0 || m.filterCursor >= len(indices) {
			return models.Playlist{}, false
		}
		return m.app.Playlists.Items[indices[m.filterCursor]], true
	}
	return m.app.Playlists.Selected()
}

// currentTrack resolves the track a track-scoped command (save, copy url)
// applies to: the selected row in a track list, otherwise the playing track.
func (m *Model) currentTrack() (models.Track, bool) {
	switch m.app.View() {
	case state.PlaylistView:
		if track, ok := m.app.Tracks.Selected(); ok {
			return track, true
		}
	case state.LibraryView:
		if m.app.LibraryTab == 1 {
			if track, ok := m.app.SavedTracks.Selected(); ok {
				return track, true
			}
		}
	case state.SearchView:
		if m.app.Search != nil && m.app.SearchCursor < len(m.app.Search.Tracks) {
			return m.app.Search.Tracks[m.app.SearchCursor], true
		}
	case state.NowPlayingView:
		if m.app.RecentCursor < len(m.app.Recent) {
			return m.app.Recent[m.app.RecentCursor], true
		}
	}
	if snap := m.app.Snapshot; snap != nil && snap.Track != nil {
		return *snap.Track, true
	}
	return models.Track{}, false
}

func (m *Model) togglePlayback() {
	if snap := m.app.Snapshot; snap != nil && snap.Playing {
		m.dispatch(queue.Command{Kind: queue.KindPause})
		return
	}
	m.dispatch(queue.Command{Kind: queue.KindResume})
}

func (m *Model) seekBy(deltaMS int) {
	snap := m.app.Snapshot
	if snap == nil || snap.Track == nil {
		return
	}
	pos := snap.ProgressMS + deltaMS
	if pos < 0 {
		pos = 0
	}
	if snap.Track.DurationMS > 0 && pos > snap.Track.DurationMS {
		pos = snap.Track.DurationMS
	}
	m.dispatch(queue.Command{Kind: queue.KindSeek, Value: pos})
}

func (m *Model) volumeBy(delta int) {
	snap := m.app.Snapshot
	if snap == nil {
		return
	}
	m.dispatch(queue.Command{
		Kind:  queue.KindVolume,
		Value: clampInt(snap.Volume+delta, 0, 100),
	})
}

func (m *Model) toggleSave() {
	track, ok := m.currentTrack()
	if !ok {
		return
	}
	m.dispatch(queue.Command{Kind: queue.KindToggleSave, Target: track.ID, Flag: track.Saved})
}

// yankURL copies the current track's web URL to the system clipboard. The
// write happens in a command so a slow clipboard helper never stalls input.
func (m *Model) yankURL() tea.Cmd {
	track, ok := m.currentTrack()
	if !ok {
		return nil
	}
	url := track.URL()
	return func() tea.Msg {
		if err := clipboard.WriteAll(url); err != nil {
			return statusNoteMsg{text: "clipboard unavailable", severity: state.StatusWarn}
		}
		return statusNoteMsg{text: "copied " + url, severity: state.StatusInfo}
	}
}

func maxIndex(n int) int {
	if n <= 0 {
		return 0
	}
	return n - 1
}
