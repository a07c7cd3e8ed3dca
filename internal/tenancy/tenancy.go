package tenancy

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

type Mode string

const (
	ModeAuthenticated Mode = "authenticated"
	ModeDemo          Mode = "demo"
	ModeImpersonated  Mode = "impersonated"
)

type Tenant struct {
	ID   string `json:"id"`
	Mode Mode   `json:"mode"`
}

var ErrNoTenantAvailable = errors.New("tenancy: no tenant available")

// OverrideFunc reports a development tenant override carried by the request.
type OverrideFunc func(ctx context.Context) (tenantID string, ok bool)

type MembershipStore interface {
	TenantForUser(ctx context.Context, userID string) (tenantID string, ok bool, err error)
}

type DemoTenantLookup interface {
	DemoTenantID(ctx context.Context) (tenantID string, ok bool, err error)
}

type Options struct {
	// AllowOverride must stay false in production; Override is ignored otherwise.
	AllowOverride bool
	Override      OverrideFunc
	Members       MembershipStore
	Demo          DemoTenantLookup
	Cache         Cache
}

type Resolver struct {
	allowOverride bool
	override      OverrideFunc
	members       MembershipStore
	demo          DemoTenantLookup
	cache         Cache
}

func NewResolver(opts Options) *Resolver {
	cache := opts.Cache
	if cache == nil {
		cache = noCache{}
	}
	return &Resolver{
		allowOverride: opts.AllowOverride,
		override:      opts.Override,
		members:       opts.Members,
		demo:          opts.Demo,
		cache:         cache,
	}
}

const anonymousSession = "anon"

func sessionKey(userID string) string {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return anonymousSession
	}
	return "user:" + userID
}

// Resolve returns the tenant for the caller identified by userID ("" when
// there is no session). Precedence: override, membership, demo tenant.
func (r *Resolver) Resolve(ctx context.Context, userID string) (Tenant, error) {
	userID = strings.TrimSpace(userID)
	override := ""
	if r.allowOverride && r.override != nil {
		if v, ok := r.override(ctx); ok {
			override = strings.TrimSpace(v)
		}
	}

	key := sessionKey(userID)
	if t, ok, err := r.cache.Get(ctx, key, override); err == nil && ok {
		return t, nil
	}

	t, err := r.resolve(ctx, userID, override)
	if err != nil {
		return Tenant{}, err
	}
	_ = r.cache.Set(ctx, key, override, t)
	return t, nil
}

func (r *Resolver) resolve(ctx context.Context, userID string, override string) (Tenant, error) {
	if override != "" {
		return Tenant{ID: override, Mode: ModeImpersonated}, nil
	}

	if userID != "" && r.members != nil {
		tenantID, ok, err := r.members.TenantForUser(ctx, userID)
		if err != nil {
			return Tenant{}, fmt.Errorf("tenancy: membership lookup: %w", err)
		}
		if ok && strings.TrimSpace(tenantID) != "" {
			return Tenant{ID: strings.TrimSpace(tenantID), Mode: ModeAuthenticated}, nil
		}
	}

	if r.demo != nil {
		tenantID, ok, err := r.demo.DemoTenantID(ctx)
		if err != nil {
			return Tenant{}, fmt.Errorf("tenancy: demo tenant lookup: %w", err)
		}
		if ok && strings.TrimSpace(tenantID) != "" {
			return Tenant{ID: strings.TrimSpace(tenantID), Mode: ModeDemo}, nil
		}
	}

	return Tenant{}, ErrNoTenantAvailable
}

// Invalidate drops every cached resolution for the caller, including
// impersonated ones.
func (r *Resolver) Invalidate(ctx context.Context, userID string) error {
	return r.cache.Clear(ctx, sessionKey(userID))
}
