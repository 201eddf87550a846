// Package realtime tracks which users have a live websocket channel and
// delivers events to those channels.
//
// Registry maps a user to the channel it joined most recently. Hub owns the
// open channels and writes events to them. Neither persists anything; both
// are rebuilt as clients reconnect.
package realtime
