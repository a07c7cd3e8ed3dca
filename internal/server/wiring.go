package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/internal/authn"
	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/internal/obs"
	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/internal/routing"
	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/internal/tenancy"
	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/internal/unifiedapi"
	aiports "github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/modules/ai/domain/ports"
	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/modules/ai/infrastructure/llm"
	aiservices "github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/modules/ai/services"
	analyticsports "github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/modules/analytics/domain/ports"
	analyticspersistence "github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/modules/analytics/infrastructure/persistence"
	analyticsservices "github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/modules/analytics/services"
	employeeports "github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/modules/employees/domain/ports"
	employeepersistence "github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/modules/employees/infrastructure/persistence"
	employeeservices "github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/modules/employees/services"
	govports "github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/modules/government/domain/ports"
	govpersistence "github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/modules/government/infrastructure/persistence"
	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/modules/government/infrastructure/portal"
	govservices "github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/modules/government/services"
	systemports "github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/modules/system/domain/ports"
	systemservices "github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/modules/system/services"
	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/pkg/authz"
	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/pkg/kpi"
)

const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// stores is every persistence dependency for one backend.
type stores struct {
	employees  employeeports.EmployeeStore
	aggregates analyticsports.AggregateSource
	ledger     govports.SyncLedger
	members    tenancy.MembershipStore
	demo       tenancy.DemoTenantLookup
	tenants    systemports.TenantLister
	pingers    map[string]systemports.Pinger
	closers    []func()
}

func (s *stores) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// openStores selects STORE_BACKEND (postgres by default).
func openStores(ctx context.Context) (*stores, error) {
	s := &stores{pingers: map[string]systemports.Pinger{}}
	switch backend := strings.ToLower(getenvDefault("STORE_BACKEND", BackendPostgres)); backend {
	case BackendPostgres:
		pool, err := openPool(ctx)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, pool.Close)
		dir := tenancy.NewPGDirectory(pool)
		s.employees = employeepersistence.NewEmployeePGStore(pool)
		s.aggregates = analyticspersistence.NewAggregatePGStore(pool)
		s.ledger = govpersistence.NewSyncLedgerPGStore(pool)
		s.members, s.demo, s.tenants = dir, dir, dir
		s.pingers["postgres"] = poolPinger{pool}
	case BackendMemory:
		dir, err := tenancy.LoadDirectory(os.Getenv("TENANTS_PATH"))
		if err != nil {
			return nil, err
		}
		employees := employeepersistence.NewEmployeeMemoryStore()
		s.employees = employees
		s.aggregates = analyticspersistence.NewStoreAggregates(employees)
		s.ledger = govpersistence.NewSyncLedgerMemory()
		s.members, s.demo, s.tenants = dir, dir, dir
	default:
		return nil, fmt.Errorf("invalid STORE_BACKEND %q (expected postgres|memory)", backend)
	}
	if id := strings.TrimSpace(os.Getenv("DEMO_TENANT_ID")); id != "" {
		s.demo = tenancy.StaticDemoTenant(id)
	}
	return s, nil
}

type poolPinger struct{ pool *pgxpool.Pool }

func (p poolPinger) Ping(ctx context.Context) error { return p.pool.Ping(ctx) }

// NewSyncServiceFromEnv builds the government sync service alone, for
// one-shot tools that do not serve HTTP.
func NewSyncServiceFromEnv(ctx context.Context, metrics *obs.Metrics, logger *log.Logger) (*govservices.SyncService, func(), error) {
	s, err := openStores(ctx)
	if err != nil {
		return nil, nil, err
	}
	svc, err := newSyncService(s, metrics, logger)
	if err != nil {
		s.close()
		return nil, nil, err
	}
	return svc, s.close, nil
}

func newSyncService(s *stores, metrics *obs.Metrics, logger *log.Logger) (*govservices.SyncService, error) {
	portals, err := portal.PortalsFromEnv()
	if err != nil {
		return nil, err
	}
	opts := govservices.SyncOptions{Portals: portals, Ledger: s.ledger, Logger: logger}
	if metrics != nil {
		opts.Observer = metrics
	}
	return govservices.NewSyncService(opts), nil
}

func tenantCacheFromEnv(ctx context.Context, s *stores) (tenancy.Cache, error) {
	ttl, err := getenvDuration("TENANT_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, err
	}
	ropts, err := redisOptionsFromEnv()
	if err != nil {
		return nil, err
	}
	if ropts == nil {
		return tenancy.NewMemoryCache(ttl), nil
	}
	client, err := openRedis(ctx, ropts)
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, func() { _ = client.Close() })
	s.pingers["redis"] = redisPinger{client}
	return tenancy.NewRedisCache(client, ttl), nil
}

type redisPinger struct{ client *redis.Client }

func (p redisPinger) Ping(ctx context.Context) error { return p.client.Ping(ctx).Err() }

func aiEngineFromEnv() (aiports.Recommender, aiports.Automator, error) {
	c, err := llm.NewClientFromEnv()
	if errors.Is(err, llm.ErrNotConfigured) {
		return llm.Offline{}, llm.Offline{}, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return c, c, nil
}

// App is the fully wired HTTP application.
type App struct {
	Handler http.Handler
	Metrics *obs.Metrics
	close   func()
}

func (a *App) Close() {
	if a.close != nil {
		a.close()
	}
}

// NewAppFromEnv wires session → tenancy → unified router from the
// environment.
func NewAppFromEnv(ctx context.Context) (*App, error) {
	logger := log.Default()
	metrics := obs.NewMetrics()

	verifier, err := authn.NewVerifierFromEnv()
	if err != nil {
		return nil, err
	}

	s, err := openStores(ctx)
	if err != nil {
		return nil, err
	}
	app, err := buildApp(ctx, s, verifier, metrics, logger)
	if err != nil {
		s.close()
		return nil, err
	}
	return app, nil
}

func buildApp(ctx context.Context, s *stores, verifier *authn.Verifier, metrics *obs.Metrics, logger *log.Logger) (*App, error) {
	cache, err := tenantCacheFromEnv(ctx, s)
	if err != nil {
		return nil, err
	}
	resolver := tenancy.NewResolver(tenancy.Options{
		AllowOverride: getenvBool("TENANT_OVERRIDE_ENABLED"),
		Override:      TenantOverride,
		Members:       s.members,
		Demo:          s.demo,
		Cache:         cache,
	})

	kpis, err := kpi.LoadFromEnv()
	if err != nil {
		return nil, err
	}
	recommender, automator, err := aiEngineFromEnv()
	if err != nil {
		return nil, err
	}
	sync, err := newSyncService(s, metrics, logger)
	if err != nil {
		return nil, err
	}
	authorizer, err := authz.LoadFromEnv()
	if err != nil {
		return nil, err
	}

	api, err := unifiedapi.NewRouter(unifiedapi.RouterOptions{
		Handlers: map[unifiedapi.Domain]unifiedapi.DomainHandler{
			unifiedapi.DomainEmployees:  employeeservices.NewEmployeesHandler(s.employees),
			unifiedapi.DomainAnalytics:  analyticsservices.NewAnalyticsHandler(s.aggregates, kpis),
			unifiedapi.DomainAI:         aiservices.NewAIHandler(recommender, automator),
			unifiedapi.DomainGovernment: govservices.NewGovernmentHandler(sync),
			unifiedapi.DomainSystem: systemservices.NewSystemHandler(systemservices.SystemOptions{
				Pingers: s.pingers,
				Tenants: s.tenants,
				Stats:   metrics,
			}),
		},
		Authorizer: authorizer,
		Shaper:     unifiedapi.NewShaper(metrics),
		Recorder:   metrics,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	allowlist, err := routing.LoadAllowlistFromEnv()
	if err != nil {
		return nil, err
	}
	h, err := NewHandlerWithOptions(HandlerOptions{
		Sessions:  verifier,
		Tenants:   resolver,
		API:       api,
		Metrics:   metrics,
		Allowlist: &allowlist,
		DemoMode:  getenvBool("DEMO_MODE_ENABLED"),
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}
	logger.Printf("server: wired authz_mode=%s tenant_override=%t demo_mode=%t", authorizer.Mode(), getenvBool("TENANT_OVERRIDE_ENABLED"), getenvBool("DEMO_MODE_ENABLED"))
	return &App{Handler: h, Metrics: metrics, close: s.close}, nil
}
