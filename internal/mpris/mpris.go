// package mpris bridges strum to the desktop media-control channel.
//
// The service registers an org.mpris.MediaPlayer2 player on the session bus
// so desktop environments route media keys to strum. Key presses arrive as
// events on a channel feeding the dispatcher's merged stream, and "now
// playing" metadata flows the other way via [Service.UpdateMetadata]. When no
// session bus is available the service degrades to an inert no-op so the TUI
// works over SSH or on headless systems.
package mpris

import (
	"github.com/charmbracelet/log"
	"github.com/desertthunder/strum/internal/models"
	"github.com/desertthunder/strum/internal/shared"
	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/prop"
)

const (
	busName     = "org.mpris.MediaPlayer2.strum"
	objectPath  = "/org/mpris/MediaPlayer2"
	rootIface   = "org.mpris.MediaPlayer2"
	playerIface = "org.mpris.MediaPlayer2.Player"
)

// Key is a media key pressed outside the terminal.
type Key int

const (
	KeyPlayPause Key = iota
	KeyNext
	KeyPrevious
	KeyStop
)

func (k Key) String() string {
	switch k {
	case KeyPlayPause:
		return "play-pause"
	case KeyNext:
		return "next"
	case KeyPrevious:
		return "previous"
	case KeyStop:
		return "stop"
	default:
		return "unknown"
	}
}

// Service exports the MPRIS player object and emits media-key events.
type Service struct {
	conn   *dbus.Conn
	props  *prop.Properties
	keys   chan Key
	logger *log.Logger
}

// Connect registers on the session bus. A connection failure is not an
// error to the caller: the returned service is inert and Keys() never fires.
func Connect(logger *log.Logger) *Service {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	s := &Service{keys: make(chan Key, 4), logger: logger}

	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		logger.Debug("session bus unavailable, media keys disabled", "error", err)
		return s
	}

	reply, err := conn.RequestName(busName, dbus.NameFlagReplaceExisting)
	if err != nil || reply != dbus.RequestNameReplyPrimaryOwner {
		logger.Debug("could not own MPRIS bus name, media keys disabled", "error", err)
		conn.Close()
		return s
	}

	s.conn = conn
	s.export()
	return s
}

// Keys delivers media-key presses. The channel never closes; an inert
// service simply never sends.
func (s *Service) Keys() <-chan Key {
	return s.keys
}

// Active reports whether the bus connection is live.
func (s *Service) Active() bool {
	return s.conn != nil
}

// Close releases the bus name and connection.
func (s *Service) Close() {
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
}

func (s *Service) emit(k Key) {
	select {
	case s.keys <- k:
	default:
		// The dispatcher is behind; dropping a repeated media key is
		// harmless.
	}
}

// export publishes the MediaPlayer2 root and Player interfaces.
func (s *Service) export() {
	root := &rootObject{}
	player := &playerObject{service: s}

	if err := s.conn.Export(root, objectPath, rootIface); err != nil {
		s.logger.Warn("failed to export MPRIS root", "error", err)
		return
	}
	if err := s.conn.Export(player, objectPath, playerIface); err != nil {
		s.logger.Warn("failed to export MPRIS player", "error", err)
		return
	}

	propSpec := map[string]map[string]*prop.Prop{
		rootIface: {
			"Identity":     {Value: "strum", Writable: false, Emit: prop.EmitTrue},
			"CanQuit":      {Value: false, Writable: false, Emit: prop.EmitTrue},
			"CanRaise":     {Value: false, Writable: false, Emit: prop.EmitTrue},
			"HasTrackList": {Value: false, Writable: false, Emit: prop.EmitTrue},
		},
		playerIface: {
			"PlaybackStatus": {Value: "Stopped", Writable: false, Emit: prop.EmitTrue},
			"Metadata":       {Value: map[string]dbus.Variant{}, Writable: false, Emit: prop.EmitTrue},
			"CanPlay":        {Value: true, Writable: false, Emit: prop.EmitTrue},
			"CanPause":       {Value: true, Writable: false, Emit: prop.EmitTrue},
			"CanGoNext":      {Value: true, Writable: false, Emit: prop.EmitTrue},
			"CanGoPrevious":  {Value: true, Writable: false, Emit: prop.EmitTrue},
			"CanControl":     {Value: true, Writable: false, Emit: prop.EmitTrue},
		},
	}

	props, err := prop.Export(s.conn, objectPath, propSpec)
	if err != nil {
		s.logger.Warn("failed to export MPRIS properties", "error", err)
		return
	}
	s.props = props
}

// UpdateMetadata publishes the current snapshot as MPRIS metadata so desktop
// widgets show what is playing.
func (s *Service) UpdateMetadata(snap *models.Snapshot) {
	if s.props == nil {
		return
	}

	status := "Stopped"
	metadata := map[string]dbus.Variant{}

	if snap != nil {
		if snap.Playing {
			status = "Playing"
		} else {
			status = "Paused"
		}
		if snap.Track != nil {
			metadata["mpris:trackid"] = dbus.MakeVariant(dbus.ObjectPath("/com/strum/track/" + snap.Track.ID))
			metadata["mpris:length"] = dbus.MakeVariant(int64(snap.Track.DurationMS) * 1000)
			metadata["xesam:title"] = dbus.MakeVariant(snap.Track.Title)
			metadata["xesam:artist"] = dbus.MakeVariant([]string{snap.Track.Artist})
			metadata["xesam:album"] = dbus.MakeVariant(snap.Track.Album)
			metadata["xesam:url"] = dbus.MakeVariant(snap.Track.URL())
		}
	}

	s.props.SetMust(playerIface, "PlaybackStatus", status)
	s.props.SetMust(playerIface, "Metadata", metadata)
}

// rootObject implements the org.mpris.MediaPlayer2 methods.
type rootObject struct{}

func (r *rootObject) Raise() *dbus.Error { return nil }
func (r *rootObject) Quit() *dbus.Error  { return nil }

// playerObject implements the org.mpris.MediaPlayer2.Player methods by
// translating them into media-key events.
type playerObject struct {
	service *Service
}

func (p *playerObject) PlayPause() *dbus.Error {
	p.service.emit(KeyPlayPause)
	return nil
}

func (p *playerObject) Play() *dbus.Error {
	p.service.emit(KeyPlayPause)
	return nil
}

func (p *playerObject) Pause() *dbus.Error {
	p.service.emit(KeyPlayPause)
	return nil
}

func (p *playerObject) Next() *dbus.Error {
	p.service.emit(KeyNext)
	return nil
}

func (p *playerObject) Previous() *dbus.Error {
	p.service.emit(KeyPrevious)
	return nil
}

func (p *playerObject) Stop() *dbus.Error {
	p.service.emit(KeyStop)
	return nil
}

func (p *playerObject) Seek(offset int64) *dbus.Error             { return nil }
func (p *playerObject) SetPosition(path dbus.ObjectPath, pos int64) *dbus.Error { return nil }
func (p *playerObject) OpenUri(uri string) *dbus.Error            { return nil }
