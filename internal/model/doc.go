// Package model defines the domain entities and request types of the worship API.
//
// Entities mirror the SurrealDB tables one to one. Record ids are exposed as bare
// UUIDs and foreign keys are carried as UUID strings. Calendar dates use
// DateLayout (YYYY-MM-DD) so they compare lexically.
//
// Request types carry go-playground/validator tags. Cross-field rules that tags
// cannot express live in a Validate() []FieldError method which the handler layer
// calls after tag validation.
//
// RFC 9457 Problem Details errors are defined in errors.go.
package model
