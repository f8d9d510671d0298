// Package service implements the business logic of the worship scheduling API.
//
// Services sit between the HTTP handlers and the repositories. They validate
// input that struct tags cannot express, enforce per-record authorization
// (the leader of a worship set, the owner of a suggestion slot) and
// orchestrate multi-step writes such as leader rotation recalculation.
//
// # Service Pattern
//
//   - Constructors take a Config struct when there are more than a few dependencies
//   - Storage is reached through the interfaces in repositories.go
//   - Every error a service returns is a sentinel from errors.go or wraps one
//   - Callers pass an Actor for operations whose outcome depends on who asks
//
// # Leader Rotation
//
// RotationService owns the rotation of each service type. Membership changes
// and calendar changes that move or cancel services trigger Recalculate,
// which reassigns the leader of every future rotation-led worship set.
// Manually led sets keep their leader and do not consume a turn.
//
// # Example Usage
//
//	rotation := NewRotationService(RotationServiceConfig{
//	    RotationRepo:    rotationRepo,
//	    UserRepo:        userRepo,
//	    ServiceTypeRepo: typeRepo,
//	    CalendarRepo:    calendarRepo,
//	    WorshipSetRepo:  setRepo,
//	})
//	next, err := rotation.NextLeader(ctx, typeID, "2025-03-02")
package service
