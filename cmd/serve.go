package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/musicone/internal/server"
	"github.com/desertthunder/musicone/internal/shared"
	"github.com/desertthunder/musicone/internal/web"
	"github.com/urfave/cli/v3"
	"golang.org/x/time/rate"
)

// router builds the web front-end with its middleware stack.
func (r *Runner) router() (*server.BasicRouter, error) {
	h, err := web.New(r.api, shared.WithLogger(r.logger, "component", "web"))
	if err != nil {
		return nil, err
	}

	sc := r.config.Server
	limiter := server.NewIPRateLimiter(rate.Limit(sc.RateLimitPerSecond), sc.RateLimitBurst)

	router := server.NewBasicRouter()
	router.Use(
		server.RequestID(),
		server.Logging(shared.WithLogger(r.logger, "component", "http")),
		server.Recover(r.logger),
		server.CORS(sc.AllowedOrigins),
		server.RateLimit(limiter, "POST"),
	)
	h.Register(router)
	return router, nil
}

// Serve runs the web front-end until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	sc := &r.config.Server
	if host := cmd.String("host"); host != "" {
		sc.Host = host
	}
	if port := cmd.Int("port"); port > 0 {
		sc.Port = int(port)
	}

	router, err := r.router()
	if err != nil {
		return err
	}

	srv := server.New(sc.Addr(), router, r.logger)
	url := fmt.Sprintf("http://%s", sc.Addr())
	r.writePlain("Serving musicone on %s (backend %s)\n", url, r.config.Backend.URL)

	if cmd.Bool("open") {
		if err := shared.OpenBrowser(url); err != nil {
			r.logger.Warn("failed to open browser", "err", err)
		}
	}

	return srv.Run(ctx)
}
