// Package authz holds the role policy of the API and evaluates it with casbin.
//
// Roles inherit downward: admin has every leader permission and leader has
// every musician permission. Ownership rules (the leader of this set, the
// owner of this slot) are checked by the services, not here.
package authz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

// ErrForbidden is returned by Authorize when the policy denies a request.
var ErrForbidden = errors.New("forbidden")

// Roles.
const (
	RoleMusician = "musician"
	RoleLeader   = "leader"
	RoleAdmin    = "admin"
)

// Actions.
const (
	ActionRead   = "read"
	ActionWrite  = "write"
	ActionDelete = "delete"
	ActionManage = "manage"
	// ActionRespond is answering an assignment made to oneself.
	ActionRespond = "respond"
)

// Resources.
const (
	ResourceUsers         = "users"
	ResourceServiceTypes  = "service_types"
	ResourceServices      = "services"
	ResourceWorshipSets   = "worship_sets"
	ResourceSongs         = "songs"
	ResourceChordSheets   = "chord_sheets"
	ResourceInstruments   = "instruments"
	ResourceAssignments   = "assignments"
	ResourceDefaults      = "default_assignments"
	ResourceRotation      = "rotation"
	ResourceSuggestions   = "suggestions"
	ResourceAvailability  = "availability"
	ResourceNotifications = "notifications"
	ResourceExport        = "export"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && (r.obj == p.obj || p.obj == "*") && (r.act == p.act || p.act == "*")
`

// Policy is the default permission table: role, resource, action.
var Policy = [][]string{
	{RoleMusician, ResourceServiceTypes, ActionRead},
	{RoleMusician, ResourceServices, ActionRead},
	{RoleMusician, ResourceWorshipSets, ActionRead},
	{RoleMusician, ResourceSongs, ActionRead},
	{RoleMusician, ResourceChordSheets, ActionRead},
	{RoleMusician, ResourceChordSheets, ActionWrite},
	{RoleMusician, ResourceInstruments, ActionRead},
	{RoleMusician, ResourceAssignments, ActionRead},
	{RoleMusician, ResourceAssignments, ActionRespond},
	{RoleMusician, ResourceRotation, ActionRead},
	{RoleMusician, ResourceSuggestions, ActionRead},
	{RoleMusician, ResourceSuggestions, ActionWrite},
	{RoleMusician, ResourceAvailability, ActionWrite},

	{RoleLeader, ResourceServices, ActionWrite},
	{RoleLeader, ResourceServices, ActionDelete},
	{RoleLeader, ResourceWorshipSets, ActionWrite},
	{RoleLeader, ResourceWorshipSets, ActionDelete},
	{RoleLeader, ResourceSongs, ActionWrite},
	{RoleLeader, ResourceSongs, ActionDelete},
	{RoleLeader, ResourceChordSheets, ActionDelete},
	{RoleLeader, ResourceAssignments, ActionWrite},
	{RoleLeader, ResourceSuggestions, ActionManage},
	{RoleLeader, ResourceAvailability, ActionRead},
	{RoleLeader, ResourceUsers, ActionRead},
	{RoleLeader, ResourceExport, ActionRead},
	{RoleLeader, ResourceDefaults, ActionRead},

	{RoleAdmin, "*", "*"},
}

// Service evaluates the role policy. The policy is fixed after construction.
type Service struct {
	enforcer *casbin.Enforcer
}

// New builds an enforcer over the in-code model and Policy.
func New() (*Service, error) {
	return NewWithPolicy(Policy)
}

// NewWithPolicy builds an enforcer over a custom permission table.
func NewWithPolicy(policy [][]string) (*Service, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("authz: model: %w", err)
	}
	enf, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("authz: failed to initialize enforcer: %w", err)
	}
	if _, err := enf.AddPolicies(policy); err != nil {
		return nil, fmt.Errorf("authz: load policy: %w", err)
	}
	if _, err := enf.AddGroupingPolicies([][]string{
		{RoleAdmin, RoleLeader},
		{RoleLeader, RoleMusician},
	}); err != nil {
		return nil, fmt.Errorf("authz: load roles: %w", err)
	}
	return &Service{enforcer: enf}, nil
}

// Check evaluates a request without returning an authorization error.
func (s *Service) Check(role, resource, action string) (bool, error) {
	ok, err := s.enforcer.Enforce(role, resource, action)
	if err != nil {
		return false, fmt.Errorf("authz: enforce failed: %w", err)
	}
	return ok, nil
}

// Authorize returns ErrForbidden when role may not perform action on resource.
func (s *Service) Authorize(ctx context.Context, role, resource, action string) error {
	ok, err := s.Check(role, resource, action)
	if err != nil {
		return err
	}
	if !ok {
		slog.DebugContext(ctx, "authz denied request",
			slog.String("role", role),
			slog.String("resource", resource),
			slog.String("action", action),
		)
		return ErrForbidden
	}
	return nil
}
