// Package authorize wraps casbin RBAC behind a typed interface so handlers
// and middleware never touch raw policy strings.
package authorize

import (
	"context"
	"errors"
	"fmt"

	casbin "github.com/casbin/casbin/v2"
	casbinmodel "github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"
)

var (
	ErrForbidden   = errors.New("forbidden")
	ErrInvalidArgs = errors.New("invalid authorization arguments")
)

// rbacModel is a standard RBAC model with an explicit deny-override effect.
const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act, eft

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow)) && !some(where (p.eft == deny))

[matchers]
m = g(r.sub, p.sub) && (r.obj == p.obj || p.obj == "*") && (r.act == p.act || p.act == "*" || p.act == "manage")
`

// IAuthorization is the only thing services/middleware should depend on.
type IAuthorization interface {
	// Enforce answers: "Is subject allowed to act on object?"
	Enforce(ctx context.Context, subject string, object Resource, action Action) (bool, error)

	// MustEnforce returns ErrForbidden when not allowed.
	MustEnforce(ctx context.Context, subject string, object Resource, action Action) error

	AddRoleForUser(ctx context.Context, subject string, role Role) (bool, error)
	RemoveRoleForUser(ctx context.Context, subject string, role Role) (bool, error)

	AddPermission(ctx context.Context, p PermissionPolicy) (bool, error)

	Raw() *casbin.Enforcer
}

// NewEnforcer builds a casbin enforcer persisting policies through the
// application's GORM connection.
func NewEnforcer(db *gorm.DB) (*casbin.Enforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, fmt.Errorf("casbin gorm adapter: %w", err)
	}

	m, err := casbinmodel.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("casbin model: %w", err)
	}

	e, err := casbin.NewEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("casbin enforcer: %w", err)
	}
	return e, nil
}

// Authorization is a thin typed wrapper around casbin.Enforcer.
type Authorization struct {
	enforcer *casbin.Enforcer
}

func NewAuthorization(e *casbin.Enforcer) (IAuthorization, error) {
	if e == nil {
		return nil, fmt.Errorf("%w: enforcer is nil", ErrInvalidArgs)
	}
	if err := e.LoadPolicy(); err != nil {
		return nil, err
	}
	return &Authorization{enforcer: e}, nil
}

func (a *Authorization) Raw() *casbin.Enforcer { return a.enforcer }

func (a *Authorization) Enforce(ctx context.Context, subject string, object Resource, action Action) (bool, error) {
	_ = ctx // reserved for tracing

	if subject == "" {
		return false, fmt.Errorf("%w: subject is empty", ErrInvalidArgs)
	}
	if _, ok := KnownResources[object]; !ok && object != WildcardResource {
		return false, fmt.Errorf("%w: unknown resource: %q", ErrInvalidArgs, object)
	}
	if _, ok := KnownActions[action]; !ok && action != WildcardAction {
		return false, fmt.Errorf("%w: unknown action: %q", ErrInvalidArgs, action)
	}

	return a.enforcer.Enforce(subject, string(object), string(action))
}

func (a *Authorization) MustEnforce(ctx context.Context, subject string, object Resource, action Action) error {
	ok, err := a.Enforce(ctx, subject, object, action)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

func (a *Authorization) AddRoleForUser(ctx context.Context, subject string, role Role) (bool, error) {
	return a.enforcer.AddGroupingPolicy(subject, string(role))
}

func (a *Authorization) RemoveRoleForUser(ctx context.Context, subject string, role Role) (bool, error) {
	return a.enforcer.RemoveGroupingPolicy(subject, string(role))
}

func (a *Authorization) AddPermission(ctx context.Context, p PermissionPolicy) (bool, error) {
	return a.enforcer.AddPolicy(string(p.Role), string(p.Resource), string(p.Action), string(p.Effect))
}
