package system

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/julianstephens/habithero/internal/api"
	"github.com/julianstephens/habithero/internal/cli"
	"github.com/julianstephens/habithero/internal/identity"
	"github.com/julianstephens/habithero/internal/logger"
)

type ServeCmd struct {
	Addr string `help:"Address to listen on. Overrides the settings file."`
}

func (cmd *ServeCmd) Run(ctx *cli.Context) error {
	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := ctx.Config.Server.Addr
	if cmd.Addr != "" {
		addr = cmd.Addr
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return serve(sigCtx, ctx, ln)
}

// serve runs the API on ln until runCtx is cancelled, then drains in-flight
// requests within the configured shutdown timeout.
func serve(runCtx context.Context, ctx *cli.Context, ln net.Listener) error {
	if err := ctx.Store.Load(); err != nil {
		ln.Close()
		return fmt.Errorf("failed to load database: %w", err)
	}

	// Requests carry their own user in the bearer token.
	ctx.Users = identity.ContextProvider{}
	ctx.ConnectEvents()
	svc, err := ctx.Service()
	if err != nil {
		ln.Close()
		return err
	}

	srv, err := api.NewServer(svc, ctx.Config.Auth.JWTSecret)
	if err != nil {
		ln.Close()
		return err
	}
	cs, err := ctx.ChallengeService()
	if err != nil {
		ln.Close()
		return err
	}
	srv.EnableChallenges(cs)
	srv.SetTimeout(ctx.Config.Server.RequestTimeout)
	if ctx.Config.Server.Metrics {
		srv.EnableMetrics()
	}

	httpSrv := &http.Server{
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		logger.Info("HTTP server starting", "addr", ln.Addr().String())
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ctx.Config.Server.ShutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP server shutdown: %w", err)
		}
		logger.Info("HTTP server stopped")
		return nil
	})
	return g.Wait()
}
