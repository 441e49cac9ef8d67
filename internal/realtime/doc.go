// Package realtime implements the websocket channel: connection lifecycle,
// presence tracking, room membership, event dispatch, notification fanout,
// and the optional Redis backplane that links multiple server instances.
//
// Delivery scopes use string names of the form "user_<id>", "role_<role>"
// and "task_<id>". Every connection is joined to its user scope and role
// scope at handshake; task scopes are joined and left on request.
package realtime
