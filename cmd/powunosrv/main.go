package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/decred/slog"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vvidal/powuno/pkg/server"
	"github.com/vvidal/powuno/internal/db"
)

func realMain() error {
	var (
		addr        = flag.String("addr", ":8080", "listen address")
		dbPath      = flag.String("db", "powuno.db", "sqlite database path (empty disables outcome persistence)")
		debugLevel  = flag.String("debuglevel", "info", "log level (trace, debug, info, warn, error, critical)")
		turnTimeout = flag.Duration("turntimeout", 60*time.Second, "per-turn timeout before the server acts for the player")
		seed        = flag.Int64("seed", 0, "deterministic game seed (0 uses per-game entropy)")
	)
	flag.Parse()

	backend := slog.NewBackend(os.Stderr)
	level, ok := slog.LevelFromString(*debugLevel)
	if !ok {
		return fmt.Errorf("invalid debuglevel %q", *debugLevel)
	}
	log := backend.Logger("SRVR")
	roomLog := backend.Logger("ROOM")
	gameLog := backend.Logger("GAME")
	for _, l := range []slog.Logger{log, roomLog, gameLog} {
		l.SetLevel(level)
	}

	var reporter server.OutcomeReporter = server.NoopReporter{}
	if *dbPath != "" {
		database, err := db.NewDB(*dbPath)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer database.Close()
		reporter = server.NewDBReporter(database)
		log.Infof("persisting outcomes to %s", *dbPath)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := server.NewMetrics(reg)

	srv := server.NewServer(server.Config{
		Log:         log,
		RoomLog:     roomLog,
		GameLog:     gameLog,
		TurnTimeout: *turnTimeout,
		Seed:        *seed,
		Reporter:    reporter,
		Metrics:     metrics,
	})

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/ws", srv.HandleWS)
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "rooms": srv.RoomCount()})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	httpSrv := &http.Server{
		Addr:    *addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", *addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Infof("received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func main() {
	if err := realMain(); err != nil && err != http.ErrServerClosed {
		fmt.Fprintf(os.Stderr, "powunosrv: %v\n", err)
		os.Exit(1)
	}
}
