// Package api contains the HTTP handlers for the REST surface: account
// registration and login, token refresh, and read access to tasks and
// notifications. Mutating task operations live on the websocket channel.
package api
