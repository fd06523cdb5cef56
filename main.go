package main

import (
	"context"
	"log"
	"os"

	"github.com/example/jobboard-auth/config"
	"github.com/example/jobboard-auth/modules/api"
	"github.com/example/jobboard-auth/modules/auth"
	"github.com/example/jobboard-auth/modules/cache"
	"github.com/example/jobboard-auth/modules/notification"
	"github.com/example/jobboard-auth/modules/ratelimit"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
)

func main() {
	log.Println("=== Job Board Auth ===")

	// Missing JWT secrets stop the process here.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(cfg.ShutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	logger := app.Logger()

	authModule := auth.NewModule(cfg)
	notificationModule := notification.NewModule(cfg.Auth.FrontendURL)
	apiModule := api.NewModule(cfg)
	apiModule.AddHealthCheck(authModule.Name(), authModule)

	// Redis backs the identity cache and the credential endpoint limits.
	// Without it both are skipped.
	var redisModules []mono.Module
	if cfg.RedisEnabled() {
		cacheModule := cache.NewModule(cfg.Redis, cfg.Cache)
		authModule.SetIdentityCache(cacheModule.Cache())
		apiModule.AddHealthCheck(cacheModule.Name(), cacheModule)

		limiterModule := ratelimit.NewModule(cfg.Redis, cfg.RateLimit)
		apiModule.SetRateLimits(limiterModule.Middleware())
		apiModule.AddHealthCheck(limiterModule.Name(), limiterModule)

		redisModules = append(redisModules, cacheModule, limiterModule)
	} else {
		logger.Warn("REDIS_ADDR not set, identity cache and rate limiting disabled")
	}

	// Order: infrastructure first, then auth, then its consumers.
	for _, module := range redisModules {
		app.Register(module)
	}
	app.Register(authModule)
	app.Register(notificationModule)
	app.Register(apiModule)

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(logger, cfg, len(redisModules) > 0)

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo(logger types.Logger, cfg *config.Config, redis bool) {
	logger.Info("Job board auth started",
		"environment", cfg.Environment,
		"http", cfg.HTTP.Addr,
		"database", cfg.Database.Path,
		"redis", redis)
	logger.Info("Auth endpoints",
		"routes", []string{
			"POST /api/auth/register",
			"POST /api/auth/login",
			"POST /api/auth/logout",
			"POST /api/auth/logout-all",
			"POST /api/auth/refresh-token",
			"GET /api/auth/verify-email/:token",
			"POST /api/auth/forget-password",
			"POST /api/auth/request-password-reset",
			"PUT /api/auth/reset-password/:token",
		})
	logger.Info("User endpoints",
		"routes", []string{
			"GET /api/user/current-user",
			"PUT /api/user/change-password",
			"DELETE /api/user/delete",
			"GET /api/user/:userId",
			"POST /api/invitecode/generate",
			"POST /api/invitecode/verify",
			"GET /health",
		})
	logger.Info("Press Ctrl+C to shutdown")
}
