package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/authgate/internal/cache"
	"github.com/dropDatabas3/authgate/internal/config"
	"github.com/dropDatabas3/authgate/internal/email"
	adminctrl "github.com/dropDatabas3/authgate/internal/http/controllers/admin"
	authctrl "github.com/dropDatabas3/authgate/internal/http/controllers/auth"
	healthctrl "github.com/dropDatabas3/authgate/internal/http/controllers/health"
	oauthctrl "github.com/dropDatabas3/authgate/internal/http/controllers/oauth"
	"github.com/dropDatabas3/authgate/internal/http/router"
	adminsvc "github.com/dropDatabas3/authgate/internal/http/services/admin"
	authsvc "github.com/dropDatabas3/authgate/internal/http/services/auth"
	socialsvc "github.com/dropDatabas3/authgate/internal/http/services/social"
	"github.com/dropDatabas3/authgate/internal/metrics"
	"github.com/dropDatabas3/authgate/internal/oauth"
	"github.com/dropDatabas3/authgate/internal/oauth/github"
	"github.com/dropDatabas3/authgate/internal/oauth/google"
	"github.com/dropDatabas3/authgate/internal/observability/logger"
	"github.com/dropDatabas3/authgate/internal/rate"
	"github.com/dropDatabas3/authgate/internal/store/pg"
	"github.com/dropDatabas3/authgate/internal/token"
)

var version = "dev" // seteado por -ldflags en el build

func main() {
	// .env opcional; en producción todo viene del entorno real.
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "ruta al YAML de configuración (opcional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       os.Getenv("LOG_LEVEL"),
		ServiceName: "authgate",
		Version:     version,
	})
	defer logger.Sync()

	if err := run(cfg); err != nil {
		logger.L().Fatal("server exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	l := logger.L()

	// Storage
	store, err := pg.New(ctx, cfg.Storage.DSN)
	if err != nil {
		return err
	}
	defer store.Close()
	l.Info("postgres ready")

	// Cache (denylist fast-path + estado OAuth)
	cc, err := cache.New(cache.Config{
		Driver:   cfg.Cache.Driver,
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
		Prefix:   cfg.Cache.Redis.Prefix,
	})
	if err != nil {
		return err
	}
	defer cc.Close()
	l.Info("cache ready", zap.String("driver", cfg.Cache.Driver))

	authority, err := token.New(token.Config{
		Issuer:        cfg.JWT.Issuer,
		Audience:      cfg.JWT.Audience,
		AccessSecret:  []byte(cfg.JWT.AccessSecret),
		RefreshSecret: []byte(cfg.JWT.RefreshSecret),
		AccessTTL:     cfg.AccessTTL(),
		RefreshTTL:    cfg.RefreshTTL(),
	}, token.Deps{
		Tokens:    store.Tokens,
		Blacklist: store.Blacklist,
		Users:     store.Users,
		RBAC:      store.RBAC,
		Cache:     cc,
	})
	if err != nil {
		return err
	}

	// Email: sin SMTP configurado el servicio queda nil y los flujos de
	// verificación/reset loguean el token en lugar de enviarlo.
	var mailer *email.Service
	if cfg.SMTP.Host != "" {
		mailer, err = email.NewService(email.ServiceConfig{
			Sender: email.NewSMTPSender(email.SMTPConfig{
				Host:      cfg.SMTP.Host,
				Port:      cfg.SMTP.Port,
				Username:  cfg.SMTP.Username,
				Password:  cfg.SMTP.Password,
				FromEmail: cfg.SMTP.From,
				TLSMode:   cfg.SMTP.TLS,
			}),
			AppName: cfg.App.Name,
			BaseURL: cfg.Email.BaseURL,
		})
		if err != nil {
			return err
		}
		l.Info("smtp sender ready", zap.String("host", cfg.SMTP.Host))
	} else {
		l.Warn("smtp not configured, verification/reset emails disabled")
	}

	providers := buildProviders(cfg)

	authService := authsvc.NewService(authsvc.Deps{
		Users:     store.Users,
		RBAC:      store.RBAC,
		Authority: authority,
		Email:     mailer,
		VerifyTTL: cfg.VerifyTTL(),
		ResetTTL:  cfg.ResetTTL(),
	})
	socialService := socialsvc.NewService(socialsvc.Deps{
		Users:     store.Users,
		RBAC:      store.RBAC,
		Authority: authority,
		Cache:     cc,
		Providers: providers,
	})
	adminService := adminsvc.NewService(adminsvc.Deps{
		Users:     store.Users,
		RBAC:      store.RBAC,
		Authority: authority,
	})

	authController := authctrl.NewController(authService)
	authController.RefreshCookieTTL = cfg.RefreshTTL()

	deps := router.Deps{
		Auth:               authController,
		OAuth:              oauthctrl.NewController(socialService),
		Admin:              adminctrl.NewController(adminService),
		Health:             healthctrl.NewController(store, cc),
		Authority:          authority,
		MetricsHandler:     metrics.Register(prometheus.DefaultRegisterer),
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
	}
	if cfg.Rate.Enabled {
		deps.LoginLimiter = buildLimiter(cc, cfg.Cache.Driver, "rl:login", cfg.Rate.Login.Limit, cfg.LoginWindow())
		deps.ForgotLimiter = buildLimiter(cc, cfg.Cache.Driver, "rl:forgot", cfg.Rate.Forgot.Limit, cfg.ForgotWindow())
		deps.RefreshLimiter = buildLimiter(cc, cfg.Cache.Driver, "rl:refresh", cfg.Rate.Refresh.Limit, cfg.RefreshWindow())
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router.New(deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		l.Info("http server listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return runSweeper(gctx, authority, cfg.SweepInterval())
	})

	g.Go(func() error {
		<-gctx.Done()
		l.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// runSweeper elimina periódicamente refresh tokens y entradas de denylist
// vencidas. Corre hasta que el contexto se cancela.
func runSweeper(ctx context.Context, authority *token.Authority, interval time.Duration) error {
	l := logger.L().With(logger.Component("sweeper"))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			refresh, denied, err := authority.SweepExpired(ctx)
			if err != nil {
				l.Warn("sweep failed", zap.Error(err))
				continue
			}
			if refresh > 0 || denied > 0 {
				l.Info("sweep done",
					zap.Int("refresh_deleted", refresh),
					zap.Int("blacklist_deleted", denied),
				)
			}
		}
	}
}

func buildProviders(cfg *config.Config) map[string]oauth.Provider {
	providers := make(map[string]oauth.Provider)
	if g := cfg.Providers.Google; g.Enabled {
		providers["google"] = google.New(g.ClientID, g.ClientSecret, g.RedirectURL)
		logger.L().Info("oauth provider enabled", zap.String("provider", "google"))
	}
	if gh := cfg.Providers.GitHub; gh.Enabled {
		providers["github"] = github.New(gh.ClientID, gh.ClientSecret, gh.RedirectURL)
		logger.L().Info("oauth provider enabled", zap.String("provider", "github"))
	}
	return providers
}

// buildLimiter elige el backend del limiter según el driver de cache:
// con redis el contador es compartido entre réplicas, con memory es local.
func buildLimiter(cc cache.Client, driver, prefix string, max int, window time.Duration) rate.Limiter {
	if driver == "redis" {
		if rc, ok := cc.(interface{ Raw() *redis.Client }); ok {
			return rate.NewRedisLimiter(rc.Raw(), prefix, max, window)
		}
	}
	return rate.NewMemoryLimiter(max, window)
}
