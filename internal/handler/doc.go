// Package handler provides the HTTP handlers and router for the worship
// scheduling API.
//
// Handlers are grouped by area (auth, users, calendar, worship sets, songs,
// chord sheets, team, rotation, suggestions, availability, notifications).
// Each handler struct wraps the services it needs and does no business logic
// of its own: it decodes and validates input, calls a service and writes the
// result.
//
// # Response Format
//
//   - WriteData: single resource in a {"data", "_links"} envelope
//   - WriteCollection: list of resources with a count
//   - WriteError: RFC 9457 Problem Details
//
// Service errors are translated by MapServiceError.
//
// # Routing
//
// NewRouter registers every route on a net/http ServeMux. Path parameters are
// UUIDs and are checked before the handler runs. Protected routes pass through
// middleware.Auth and then middleware.Require with the route's resource and
// action; finer rules such as "only the set leader" live in the services.
package handler
