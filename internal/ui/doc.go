// package ui is the terminal frontend: an Elm-style model whose update loop
// doubles as the application's dispatcher.
//
// Update is the only writer of [state.AppState]. Input keys, finished queue
// commands, poll snapshots, media keys, and clock ticks all arrive as
// messages on one stream and are applied strictly one at a time; the View
// method renders the resulting state and mutates nothing. Background work
// never blocks this loop: remote calls go through the command queue, and the
// channel listeners re-arm themselves after every delivery.
package ui
