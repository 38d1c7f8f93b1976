// Package calendar provides a thin client for the Google Calendar API.
//
// The client covers event CRUD, calendar listing, and free/busy queries for
// one account at a time. It deliberately does not interpret calendar
// semantics beyond converting wire timestamps; argument validation and
// multi-calendar fan-out live in the tool layer.
package calendar
