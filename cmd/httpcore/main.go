// Command httpcore serves a JSON echo endpoint on the httpx core, with
// per-client rate limiting and a Prometheus /metrics endpoint.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"dqx0.com/go/httpcore/httpx"
	"dqx0.com/go/httpcore/internal/config"
	"dqx0.com/go/httpcore/internal/obs"
	"dqx0.com/go/httpcore/ratelimit"
)

func main() {
	var (
		cfgPath  = flag.String("config", "", "path to a YAML config file")
		addr     = flag.String("addr", "", "listen address, overrides server.addr")
		logLevel = flag.String("log-level", "", "debug, info, warn or error; overrides log.level")
	)
	flag.Parse()

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		if cfg, err = config.Load(*cfgPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	lvl, _ := obs.ParseLevel(cfg.Log.Level)
	lg := obs.NewLogger(os.Stderr, lvl, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, cfg, lg); err != nil {
		lg.Error().Err(err).Msg("httpcore exited")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, lg zerolog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	meter := obs.NewPromMeter(reg)

	limiter := ratelimit.New(
		ratelimit.WithLimit(cfg.RateLimit.Limit),
		ratelimit.WithWindow(cfg.RateLimit.Window.Std()),
		ratelimit.WithIdleTTL(cfg.RateLimit.IdleTTL.Std()),
		ratelimit.WithLogger(lg.With().Str("component", "ratelimit").Logger()),
		ratelimit.WithMeter(meter),
	)
	srv := &httpx.Server{
		Addr:    cfg.Server.Addr,
		Handler: httpx.HandlerFunc(echo),
		Limiter: limiter,
		Parser: httpx.Parser{
			MaxLineBytes:   cfg.Server.MaxLineBytes,
			MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
			MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		},
		ReadTimeout:  cfg.Server.ReadTimeout.Std(),
		WriteTimeout: cfg.Server.WriteTimeout.Std(),
		Logger:       lg.With().Str("component", "server").Logger(),
		Meter:        meter,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); !errors.Is(err, httpx.ErrServerClosed) {
			return err
		}
		return nil
	})
	if cfg.RateLimit.IdleTTL > 0 {
		g.Go(func() error { return limiter.Run(ctx, cfg.RateLimit.SweepInterval.Std()) })
	}
	var ms *http.Server
	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		ms = &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: cfg.Server.ReadTimeout.Std()}
		g.Go(func() error {
			lg.Info().Str("addr", ms.Addr).Msg("serving metrics")
			if err := ms.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		lg.Info().Msg("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Std())
		defer cancel()
		err := srv.Shutdown(sctx)
		if ms != nil {
			err = errors.Join(err, ms.Shutdown(sctx))
		}
		return err
	})
	return g.Wait()
}

type echoBody struct {
	Method        string            `json:"method"`
	Target        string            `json:"target"`
	Version       string            `json:"version"`
	Header        map[string]string `json:"header"`
	Body          string            `json:"body,omitempty"`
	Client        string            `json:"client"`
	TraceID       string            `json:"trace_id"`
	CorrelationID string            `json:"correlation_id,omitempty"`
}

func echo(w httpx.ResponseWriter, r *httpx.Request) {
	body, _ := r.Body()
	b, err := json.Marshal(echoBody{
		Method:        r.Method().String(),
		Target:        r.RequestTarget(),
		Version:       r.BestCompatibleVersion().String(),
		Header:        r.Header(),
		Body:          body,
		Client:        r.ClientID,
		TraceID:       r.TraceID(),
		CorrelationID: r.CorrelationID,
	})
	if err != nil {
		w.WriteHeader(httpx.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpx.StatusOK)
	w.Write(b)
}
