// Package middleware provides HTTP middleware for the worship API.
//
// # Authentication
//
// Auth validates the bearer access token and stores its claims on the
// request context. Handlers read the caller with GetActor.
//
// # Role guards
//
// Require checks the caller's role against the casbin policy in package
// authz before the handler runs:
//
//	mux.Handle("POST /v1/songs", middleware.Chain(h,
//		middleware.Auth(tokens),
//		middleware.Require(authorizer, authz.ResourceSongs, authz.ActionWrite),
//	))
//
// Ownership checks (the leader of this set, the owner of this slot) live in
// the services.
//
// # Rate Limiting
//
// RateLimit counts requests per user or IP with ulule/limiter. The store is
// in memory by default or Redis when several instances share limits.
//
// # Context Values
//
//   - GetUserID(ctx): authenticated user ID
//   - GetClaims(ctx): verified token claims
//   - GetActor(ctx): the caller as a service.Actor
//   - GetRequestID(ctx): unique request identifier
package middleware
