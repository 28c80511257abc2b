package ui

import (
	"context"
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/strum/internal/mpris"
	"github.com/desertthunder/strum/internal/poller"
	"github.com/desertthunder/strum/internal/queue"
	"github.com/desertthunder/strum/internal/shared"
	"github.com/desertthunder/strum/internal/spotify"
	"github.com/desertthunder/strum/internal/state"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// pageMargin is how close to the end of a loaded list the cursor may get
// before the next page is requested.
const pageMargin = 5

// Options wires the gateway and background tasks into the dispatcher.
type Options struct {
	Client   *spotify.Client
	Queue    *queue.Queue
	Poller   *poller.Poller
	Media    *mpris.Service
	Seq      *state.Sequencer
	Logger   *log.Logger
	TickRate time.Duration
	PageSize int
}

// Model is the dispatcher: the single writer of [state.AppState]. Every event
// source (keys, command results, poll snapshots, media keys, ticks) funnels
// into Update, which applies one event at a time and re-arms the listener for
// that source.
type Model struct {
	ctx    context.Context
	app    *state.AppState
	client *spotify.Client
	queue  *queue.Queue
	poller *poller.Poller
	media  *mpris.Service
	seq    *state.Sequencer
	logger *log.Logger

	keys        keyMap
	help        help.Model
	spinner     spinner.Model
	progress    progress.Model
	searchInput textinput.Model

	width    int
	height   int
	tickRate time.Duration
	pageSize int

	// filter is a local fuzzy filter over the loaded playlist names; it never
	// triggers a remote request. filterCursor indexes the filtered rows.
	filtering    bool
	filter       string
	filterCursor int

	lastQuery string
	showHelp  bool
	quitting  bool
}

// NewModel creates the dispatcher model. The queue and poller must already be
// running; the model only consumes their channels.
func NewModel(ctx context.Context, opts Options) *Model {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.TickRate <= 0 {
		opts.TickRate = 500 * time.Millisecond
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 50
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.ok

	input := textinput.New()
	input.Placeholder = "search tracks and playlists"
	input.CharLimit = 120

	return &Model{
		ctx:         ctx,
		app:         state.New(),
		client:      opts.Client,
		queue:       opts.Queue,
		poller:      opts.Poller,
		media:       opts.Media,
		seq:         opts.Seq,
		logger:      opts.Logger,
		keys:        newKeyMap(),
		help:        help.New(),
		spinner:     sp,
		progress:    progress.New(progress.WithDefaultGradient()),
		searchInput: input,
		tickRate:    opts.TickRate,
		pageSize:    opts.PageSize,
	}
}

func (m *Model) Init() tea.Cmd {
	m.fetchPlaylists()
	return tea.Batch(
		m.spinner.Tick,
		m.waitForResult(),
		m.waitForSnapshot(),
		m.waitForMediaKey(),
		m.tick(),
	)
}

// waitForResult blocks on the next finished queue command. Re-armed by Update
// after each delivery so results are processed strictly one at a time.
func (m *Model) waitForResult() tea.Cmd {
	return func() tea.Msg {
		select {
		case res := <-m.queue.Results():
			return commandResultMsg(res)
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) waitForSnapshot() tea.Cmd {
	return func() tea.Msg {
		select {
		case ev := <-m.poller.Events():
			return snapshotMsg(ev)
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) waitForMediaKey() tea.Cmd {
	if m.media == nil || !m.media.Active() {
		return nil
	}
	return func() tea.Msg {
		select {
		case k := <-m.media.Keys():
			return mediaKeyMsg(k)
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.tickRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// dispatch stamps a command with an id, sequence number, and the current view
// generation, then hands it to the queue. A full queue is not an error the
// user sees; the excess intent is simply dropped. The pending-op entry is
// registered only for commands the queue accepted: a dropped command has no
// result to clear it.
func (m *Model) dispatch(cmd queue.Command) {
	cmd.ID = shared.GenerateID()
	cmd.Seq = m.seq.Next()
	cmd.Gen = m.app.Generation()
	if err := m.queue.Enqueue(cmd); err != nil {
		m.logger.Debug("command dropped", "kind", cmd.Kind, "err", err)
		return
	}
	if isTransport(cmd.Kind) {
		m.app.BeginOp(cmd.Kind.String(), cmd.Seq)
	}
}

// isTransport reports whether a kind mutates remote playback rather than
// fetching data.
func isTransport(k queue.Kind) bool {
	return k <= queue.KindToggleSave
}

func (m *Model) fetchPlaylists() {
	if m.app.Playlists.StartFetch(m.app.Generation()) {
		m.dispatch(queue.Command{Kind: queue.KindFetchPlaylists, Offset: m.app.Playlists.NextOffset()})
	}
}

func (m *Model) fetchSavedTracks() {
	if m.app.SavedTracks.StartFetch(m.app.Generation()) {
		m.dispatch(queue.Command{Kind: queue.KindFetchSavedTracks, Offset: m.app.SavedTracks.NextOffset()})
	}
}

func (m *Model) fetchPlaylistTracks() {
	if m.app.PlaylistID() == "" {
		return
	}
	if m.app.Tracks.StartFetch(m.app.Generation()) {
		m.dispatch(queue.Command{
			Kind:   queue.KindFetchPlaylistTracks,
			Target: m.app.PlaylistID(),
			Offset: m.app.Tracks.NextOffset(),
		})
	}
}

func (m *Model) fetchDevices() {
	m.dispatch(queue.Command{Kind: queue.KindFetchDevices})
}

func (m *Model) fetchRecent() {
	m.dispatch(queue.Command{Kind: queue.KindFetchRecent})
}

// filteredPlaylists returns the indices of playlists matching the local
// filter, best match first.
func (m *Model) filteredPlaylists() []int {
	items := m.app.Playlists.Items
	names := make([]string, len(items))
	for i, p := range items {
		names[i] = p.Name
	}
	ranks := fuzzy.RankFindFold(m.filter, names)
	sort.Sort(ranks)
	indices := make([]int, 0, len(ranks))
	for _, r := range ranks {
		indices = append(indices, r.OriginalIndex)
	}
	return indices
}

// syncPollRate switches the poller to the fast interval while the now-playing
// view is focused.
func (m *Model) syncPollRate() {
	m.poller.SetFast(m.app.View() == state.NowPlayingView)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
