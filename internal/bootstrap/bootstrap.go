// Package bootstrap assembles the HTTP application from configuration. Both
// the long-running server and the Lambda entrypoint build through it.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/supabase-community/supabase-go"

	"github.com/bryanwahyu/skillscope/internal/application"
	appanalysis "github.com/bryanwahyu/skillscope/internal/application/analysis"
	appchat "github.com/bryanwahyu/skillscope/internal/application/chat"
	appmindmap "github.com/bryanwahyu/skillscope/internal/application/mindmap"
	"github.com/bryanwahyu/skillscope/internal/config"
	"github.com/bryanwahyu/skillscope/internal/domain/ai"
	domanalysis "github.com/bryanwahyu/skillscope/internal/domain/analysis"
	"github.com/bryanwahyu/skillscope/internal/domain/chat"
	"github.com/bryanwahyu/skillscope/internal/domain/identity"
	"github.com/bryanwahyu/skillscope/internal/domain/interests"
	"github.com/bryanwahyu/skillscope/internal/domain/mindmap"
	"github.com/bryanwahyu/skillscope/internal/infra/ai/bedrock"
	"github.com/bryanwahyu/skillscope/internal/infra/ai/openai"
	"github.com/bryanwahyu/skillscope/internal/infra/ai/resilience"
	"github.com/bryanwahyu/skillscope/internal/infra/db/dynamo"
	"github.com/bryanwahyu/skillscope/internal/infra/db/memory"
	mysqlp "github.com/bryanwahyu/skillscope/internal/infra/db/mysql"
	"github.com/bryanwahyu/skillscope/internal/infra/db/postgres"
	supabasedb "github.com/bryanwahyu/skillscope/internal/infra/db/supabase"
	"github.com/bryanwahyu/skillscope/internal/infra/feed"
	"github.com/bryanwahyu/skillscope/internal/infra/httpserver"
	infraidentity "github.com/bryanwahyu/skillscope/internal/infra/identity"
	"github.com/bryanwahyu/skillscope/internal/infra/observability"
	"github.com/bryanwahyu/skillscope/internal/infra/render"
	"github.com/bryanwahyu/skillscope/internal/infra/storage"
	"github.com/bryanwahyu/skillscope/internal/logger"
	"github.com/bryanwahyu/skillscope/internal/middleware"
)

// App is the assembled HTTP application.
type App struct {
	Handler http.Handler
	Metrics *middleware.Metrics

	closers []func(context.Context) error
	stop    chan struct{}
}

// Close releases connections and flushes traces, newest first.
func (a *App) Close(ctx context.Context) {
	if a.stop != nil {
		close(a.stop)
		a.stop = nil
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i](ctx)
	}
}

func (a *App) onClose(f func(context.Context) error) { a.closers = append(a.closers, f) }

type stores struct {
	conversations chat.Repository
	interests     interests.Repository
	mindMaps      mindmap.Repository
	analyses      domanalysis.Repository
}

// Build wires every component named by cfg. On error, whatever was opened is closed.
func Build(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	app := &App{Metrics: middleware.NewMetrics("skillscope")}
	built := false
	defer func() {
		if !built {
			app.Close(context.Background())
		}
	}()

	shutdownTracing, err := observability.InitTracing(ctx, log, observability.TracingConfig{
		Exporter:    cfg.Tracing.Exporter,
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
		ServiceName: cfg.Tracing.ServiceName,
		SampleRatio: cfg.Tracing.SampleRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}
	app.onClose(shutdownTracing)

	checkers := map[string]middleware.HealthChecker{}

	model, err := buildModel(ctx, cfg, log, app.Metrics, checkers)
	if err != nil {
		return nil, err
	}

	var sb *supabase.Client
	if cfg.Store.Driver == "supabase" || cfg.Auth.Mode == middleware.AuthSupabase {
		sb, err = supabasedb.NewClient(cfg.Store.Supabase.URL, cfg.Store.Supabase.ServiceKey)
		if err != nil {
			return nil, err
		}
	}

	st, err := buildStores(ctx, cfg, log, sb, app, checkers)
	if err != nil {
		return nil, err
	}

	liveFeed, err := buildFeed(ctx, cfg, log, app, checkers)
	if err != nil {
		return nil, err
	}

	var objects appmindmap.ObjectStore
	if cfg.Minio.Enabled {
		s, err := storage.New(ctx, storage.Options{
			Endpoint:   cfg.Minio.Endpoint,
			Region:     cfg.Minio.Region,
			Bucket:     cfg.Minio.BucketName,
			AccessKey:  cfg.Minio.AccessKey,
			SecretKey:  cfg.Minio.SecretKey,
			UseSSL:     cfg.Minio.UseSSL,
			PresignTTL: cfg.Minio.PresignTTL,
		})
		if err != nil {
			return nil, fmt.Errorf("minio: %w", err)
		}
		objects = s
		checkers["objects"] = s
	}

	verifier, fallback, err := buildIdentity(cfg, sb)
	if err != nil {
		return nil, err
	}

	clock := application.SystemClock{}
	deps := httpserver.Deps{
		Analysis: &appanalysis.Service{
			AI:        model,
			Interests: st.interests,
			History:   st.analyses,
			Clock:     clock,
			Log:       log.With("service", "analysis"),
		},
		Chat: &appchat.Service{
			AI:            model,
			Conversations: st.conversations,
			Interests:     st.interests,
			Feed:          liveFeed,
			Clock:         clock,
			Log:           log.With("service", "chat"),
			Observer:      app.Metrics,
		},
		MindMaps: &appmindmap.Service{
			AI:       model,
			Repo:     st.mindMaps,
			Renderer: render.PNG{},
			Store:    objects,
			Clock:    clock,
			Log:      log.With("service", "mindmap"),
		},
		Verifier:    verifier,
		Fallback:    fallback,
		AuthMode:    cfg.Auth.Mode,
		Log:         log,
		Metrics:     app.Metrics,
		Checkers:    checkers,
		CORSOrigins: cfg.Server.CORSOrigins,
	}
	if cfg.RateLimit.RequestsPerSecond > 0 {
		deps.Limiter = middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
		app.stop = make(chan struct{})
		go deps.Limiter.Run(app.stop)
	}

	app.Handler = httpserver.NewRouter(deps)
	built = true
	log.Info("application assembled",
		"ai_provider", cfg.AI.Provider,
		"store", cfg.Store.Driver,
		"mind_maps", cfg.Store.MindMaps,
		"feed", cfg.Feed.Driver,
		"auth", cfg.Auth.Mode,
		"export", cfg.Minio.Enabled,
	)
	return app, nil
}

// buildModel layers the provider, its circuit breaker and instrumentation.
func buildModel(ctx context.Context, cfg *config.Config, log *logger.Logger, obs resilience.Observer, checkers map[string]middleware.HealthChecker) (ai.Client, error) {
	var provider ai.Client
	switch cfg.AI.Provider {
	case "bedrock":
		c, err := bedrock.NewFromRegion(ctx, cfg.AI.Bedrock.Region, cfg.AI.Bedrock.ModelID, cfg.AI.MaxTokens, cfg.AI.RequestTimeout)
		if err != nil {
			return nil, fmt.Errorf("bedrock: %w", err)
		}
		provider = c
	default:
		provider = openai.NewClient(openai.Options{
			BaseURL:   cfg.AI.BaseURL,
			APIKey:    cfg.AI.APIKey,
			Model:     cfg.AI.Model,
			MaxTokens: cfg.AI.MaxTokens,
			Timeout:   cfg.AI.RequestTimeout,
		})
	}

	if cfg.AI.Breaker.Enabled {
		s := resilience.DefaultBreakerSettings("ai-" + cfg.AI.Provider)
		b := cfg.AI.Breaker
		if b.MaxRequests > 0 {
			s.MaxRequests = b.MaxRequests
		}
		if b.Interval > 0 {
			s.Interval = b.Interval
		}
		if b.Timeout > 0 {
			s.Timeout = b.Timeout
		}
		if b.FailureRatio > 0 {
			s.FailureRatio = b.FailureRatio
		}
		if b.MinRequests > 0 {
			s.MinRequests = b.MinRequests
		}
		breaker := resilience.NewBreaker(provider, s, log)
		checkers["model"] = breaker
		provider = breaker
	}
	return resilience.Instrument(provider, cfg.AI.Provider, obs), nil
}

func buildStores(ctx context.Context, cfg *config.Config, log *logger.Logger, sb *supabase.Client, app *App, checkers map[string]middleware.HealthChecker) (*stores, error) {
	st := &stores{}
	switch cfg.Store.Driver {
	case "postgres":
		db, err := postgres.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		app.onClose(func(context.Context) error { return db.Close() })
		if err := migrate(ctx, cfg, db, postgres.Migrate); err != nil {
			return nil, err
		}
		st.conversations = postgres.NewConversationRepository(db)
		st.interests = postgres.NewInterestRepository(db)
		st.mindMaps = postgres.NewMindMapRepository(db)
		st.analyses = postgres.NewAnalysisRepository(db)
		checkers["store"] = &middleware.DatabaseHealthChecker{DB: db}
	case "mysql":
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, fmt.Errorf("mysql: %w", err)
		}
		app.onClose(func(context.Context) error { return db.Close() })
		if err := migrate(ctx, cfg, db, mysqlp.Migrate); err != nil {
			return nil, err
		}
		st.conversations = mysqlp.NewConversationRepository(db)
		st.interests = mysqlp.NewInterestRepository(db)
		st.mindMaps = mysqlp.NewMindMapRepository(db)
		st.analyses = mysqlp.NewAnalysisRepository(db)
		checkers["store"] = &middleware.DatabaseHealthChecker{DB: db}
	case "supabase":
		s := supabasedb.New(sb)
		st.conversations = s.Conversations()
		st.interests = s.Interests()
		st.mindMaps = s.MindMaps()
		st.analyses = s.Analyses()
		checkers["store"] = s
	default:
		m := memory.New()
		st.conversations = m
		st.interests = m
		st.mindMaps = m.MindMaps()
		st.analyses = m.Analyses()
		checkers["store"] = m
		log.Warn("using in-memory store; data is lost on restart")
	}

	if cfg.Store.MindMaps == "dynamodb" {
		repo, err := dynamo.NewFromRegion(ctx, cfg.Store.DynamoDB.Region, cfg.Store.DynamoDB.Table)
		if err != nil {
			return nil, fmt.Errorf("dynamodb: %w", err)
		}
		st.mindMaps = repo
		checkers["mind_maps"] = repo
	}
	return st, nil
}

func migrate(ctx context.Context, cfg *config.Config, db *sql.DB, run func(context.Context, *sql.DB) error) error {
	if !cfg.Store.Migrate {
		return nil
	}
	if err := run(ctx, db); err != nil {
		return fmt.Errorf("migrate %s: %w", cfg.Store.Driver, err)
	}
	return nil
}

func buildFeed(ctx context.Context, cfg *config.Config, log *logger.Logger, app *App, checkers map[string]middleware.HealthChecker) (chat.Feed, error) {
	if cfg.Feed.Driver == "redis" {
		r, err := feed.NewRedis(ctx, cfg.Feed.Redis.Addr, cfg.Feed.Redis.Password, cfg.Feed.Redis.DB, log)
		if err != nil {
			return nil, err
		}
		r.OnSubscribers = app.Metrics.SetFeedSubscribers
		app.onClose(func(context.Context) error { return r.Close() })
		checkers["feed"] = r
		return r, nil
	}
	b := feed.NewBroker()
	b.OnSubscribers = app.Metrics.SetFeedSubscribers
	return b, nil
}

func buildIdentity(cfg *config.Config, sb *supabase.Client) (identity.Verifier, *identity.Session, error) {
	switch cfg.Auth.Mode {
	case middleware.AuthJWT:
		v, err := infraidentity.NewJWTVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.Audience)
		if err != nil {
			return nil, nil, fmt.Errorf("jwt verifier: %w", err)
		}
		return v, nil, nil
	case middleware.AuthSupabase:
		return infraidentity.NewSupabaseVerifier(sb), nil, nil
	default:
		return infraidentity.Static{UserID: cfg.Auth.DefaultUser}, &identity.Session{UserID: cfg.Auth.DefaultUser}, nil
	}
}
