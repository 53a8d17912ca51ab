// Package actorcontext carries the authenticated actor through request
// contexts. Authentication transport lives outside this service; handlers
// only need to know who is acting and in which role.
package actorcontext

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
)

// Role distinguishes the two actor kinds the domain authorizes against.
type Role string

const (
	RoleCompany  Role = "company"
	RoleCustomer Role = "customer"
)

// ActorContextKey is the request context key for the acting identity.
type ActorContextKey struct{}

// Actor is the resolved request identity.
type Actor struct {
	ID   snowflake.ID
	Role Role
}

// WithActor stores the actor in the context.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, ActorContextKey{}, actor)
}

// ActorFromContext returns the actor from context, if set.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	actor, ok := ctx.Value(ActorContextKey{}).(Actor)
	if !ok || actor.ID == 0 {
		return Actor{}, false
	}
	return actor, true
}

// CompanyIDFromContext returns the actor ID when the actor is a company.
func CompanyIDFromContext(ctx context.Context) (snowflake.ID, bool) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != RoleCompany {
		return 0, false
	}
	return actor.ID, true
}

// CustomerIDFromContext returns the actor ID when the actor is a customer.
func CustomerIDFromContext(ctx context.Context) (snowflake.ID, bool) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != RoleCustomer {
		return 0, false
	}
	return actor.ID, true
}

// ParseRole normalizes a raw role string.
func ParseRole(raw string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleCompany:
		return RoleCompany, true
	case RoleCustomer:
		return RoleCustomer, true
	default:
		return "", false
	}
}
