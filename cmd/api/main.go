package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/presence-backend-go/internal/config"
	"github.com/cmlabs-hris/presence-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/presence-backend-go/internal/domain/presence"
	appHTTP "github.com/cmlabs-hris/presence-backend-go/internal/handler/http"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/clock"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/cron"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/presence-backend-go/internal/repository/memory"
	"github.com/cmlabs-hris/presence-backend-go/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/presence-backend-go/internal/service/attendance"
	fineService "github.com/cmlabs-hris/presence-backend-go/internal/service/fine"
	presenceService "github.com/cmlabs-hris/presence-backend-go/internal/service/presence"
	reportService "github.com/cmlabs-hris/presence-backend-go/internal/service/report"
	"github.com/go-chi/httplog/v3"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logFormat := httplog.SchemaECS.Concise(!cfg.IsProduction())
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.SlogLevel(),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "presence-backend"),
		slog.String("env", cfg.App.Env),
	)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.Register()

	var (
		store     presence.AttendanceRecordStore
		directory employee.Directory
	)
	switch cfg.Storage.Driver {
	case config.StorageDriverPostgres:
		db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolOptions{
			MaxConns: cfg.Database.MaxConns,
			MinConns: cfg.Database.MinConns,
		})
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()

		store = postgresql.NewAttendanceRecordRepository(db)
		directory = postgresql.NewEmployeeRepository(db)
	case config.StorageDriverMemory:
		slog.Warn("Using in-memory storage, data is lost on restart")
		seed, err := memory.ParseEmployees(cfg.Storage.MemoryEmployees)
		if err != nil {
			return fmt.Errorf("parse MEMORY_EMPLOYEES: %w", err)
		}
		store = memory.NewStore()
		directory = memory.NewDirectory(seed...)
	default:
		return fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}

	loc := cfg.Attendance.Location
	clk := clock.System()

	finePolicy, err := buildFinePolicy(cfg)
	if err != nil {
		return fmt.Errorf("build fine policy: %w", err)
	}
	aggregator := attendanceService.NewAggregator(loc)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret)
	presenceSvc := presenceService.NewPresenceService(store, directory, aggregator, finePolicy, clk)
	fineSvc := fineService.NewFineService(store, directory, aggregator, finePolicy)
	reportSvc := reportService.NewReportService(store, directory, aggregator, finePolicy, clk, reportService.Options{
		DefaultWindow: cfg.Attendance.DefaultWindow,
		MaxWindow:     cfg.Attendance.MaxWindow,
	})

	presenceHandler := appHTTP.NewPresenceHandler(presenceSvc, clk)
	attendanceHandler := appHTTP.NewAttendanceHandler(reportSvc, fineSvc, clk, appHTTP.AttendanceOptions{
		DefaultWindow:         cfg.Attendance.DefaultWindow,
		MaxWindow:             cfg.Attendance.MaxWindow,
		ManagementEmployeeIDs: cfg.Attendance.ManagementEmployeeIDs,
		Location:              loc,
	})

	router := appHTTP.NewRouter(appHTTP.RouterOptions{
		AllowedOrigins: cfg.App.CORSAllowedOrigins,
		LogLevel:       cfg.SlogLevel(),
		Logger:         logger,
	}, JWTService, presenceHandler, attendanceHandler)

	scheduler := cron.NewScheduler(ctx)
	if cfg.Attendance.AutoOfflineEnabled {
		cron.NewPresenceJobs(store, clk, loc, cfg.Attendance.AutoOfflineHour).RegisterJobs(scheduler)
	}
	scheduler.Start()
	defer scheduler.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "port", cfg.App.Port, "storage", cfg.Storage.Driver, "timezone", cfg.Attendance.Timezone)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildFinePolicy uses the cutoff schedule when one is configured, otherwise the single cutoff.
func buildFinePolicy(cfg *config.Config) (*fineService.Policy, error) {
	rules, err := fineService.ParseCutoffSchedule(cfg.Attendance.LateCutoffSchedule)
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		cutoff, err := fineService.ParseTimeOfDay(cfg.Attendance.LateCutoff)
		if err != nil {
			return nil, err
		}
		rules = []fineService.CutoffRule{{Cutoff: cutoff}}
	}

	return fineService.NewPolicy(cfg.Attendance.Location, rules, fineService.Tiers{
		FreeLateDays: cfg.Fine.FreeLateDays,
		Tier2Limit:   cfg.Fine.Tier2Limit,
		Tier2Rate:    cfg.Fine.Tier2Rate,
		Tier3Rate:    cfg.Fine.Tier3Rate,
	})
}
