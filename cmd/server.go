package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"conf-review/internal/api"
	"conf-review/internal/assignment"
	"conf-review/internal/notifier"
	"conf-review/internal/review"
	"conf-review/internal/roster"
	"conf-review/internal/storage"
	"conf-review/internal/weightage"
)

// AppConfig 应用配置。
type AppConfig struct {
	Server     ServerConfig         `yaml:"server"`
	Database   DatabaseConfig       `yaml:"database"`
	Assignment assignment.Config    `yaml:"assignment"`
	Email      notifier.EmailConfig `yaml:"email"`
	Roster     roster.Config        `yaml:"roster"`
	SeedFile   string               `yaml:"seed_file"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

type autoAssigner interface {
	RunAuto(ctx context.Context, conferenceID string) (assignment.RunResult, error)
}

// appDeps 是装配完成的依赖。
type appDeps struct {
	services api.Services
	assign   autoAssigner
}

type depsBuilder func(AppConfig) (appDeps, func(), error)

func main() {
	autoAssign := flag.String("auto-assign", "", "run auto-assignment once for the given conference id and exit")
	seed := flag.String("seed", "", "yaml file with conferences, papers and reviewers to load at startup")
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		log.Printf("load config error: %v", err)
		return
	}
	if *seed != "" {
		cfg.SeedFile = *seed
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *autoAssign != "" {
		res, err := runOnceManual(ctx, cfg, *autoAssign, buildDeps)
		if err != nil {
			log.Printf("auto-assign error: %v", err)
			return
		}
		log.Printf("auto-assign created %d assignments, %d warnings", len(res.Assignments), len(res.Warnings))
		for _, w := range res.Warnings {
			log.Printf("warning: paper %s (%s): %s", w.PaperID, w.Title, w.Message)
		}
		return
	}

	deps, cleanup, err := buildDeps(cfg)
	if err != nil {
		log.Printf("init error: %v", err)
		return
	}
	defer cleanup()

	addr := cfg.Server.Addr
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{Addr: addr, Handler: api.NewHandler(deps.services), ReadHeaderTimeout: 10 * time.Second}

	log.Printf("listening on %s", addr)
	if err := runServer(ctx, srv, 5*time.Second); err != nil {
		log.Printf("server error: %v", err)
	}
}

// runServer 启动 HTTP 服务，ctx 取消后在超时内优雅关闭。
func runServer(ctx context.Context, srv httpServer, shutdownTimeout time.Duration) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// runOnceManual 装配依赖并对单个会议执行一次自动分配。
func runOnceManual(ctx context.Context, cfg AppConfig, conferenceID string, build depsBuilder) (assignment.RunResult, error) {
	deps, cleanup, err := build(cfg)
	if err != nil {
		return assignment.RunResult{}, err
	}
	defer cleanup()
	return deps.assign.RunAuto(ctx, conferenceID)
}

func buildDeps(cfg AppConfig) (appDeps, func(), error) {
	dbPath := cfg.Database.Path
	if dbPath == "" {
		dbPath = "review.db"
	}
	store, err := storage.NewStore(dbPath)
	if err != nil {
		return appDeps{}, func() {}, fmt.Errorf("init store: %w", err)
	}
	cleanup := func() { _ = store.Close() }

	rosterSvc := roster.NewService(store, cfg.Roster)
	if cfg.SeedFile != "" {
		if err := loadSeedFile(context.Background(), cfg.SeedFile, store, rosterSvc); err != nil {
			cleanup()
			return appDeps{}, func() {}, err
		}
	}

	weights := weightage.NewService(store)
	assignSvc := assignment.NewService(store, cfg.Assignment, buildNotifier(cfg.Email, store), nil)
	deps := appDeps{
		services: api.Services{
			Assignments: assignSvc,
			Weightage:   weights,
			Reviews:     review.NewService(store, weights, nil),
			Roster:      rosterSvc,
		},
		assign: assignSvc,
	}
	return deps, cleanup, nil
}

func loadConfig() (AppConfig, error) {
	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = "config.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return AppConfig{}, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func buildNotifier(cfg notifier.EmailConfig, dir notifier.Directory) assignment.Notifier {
	logNotifier := notifier.NewLogNotifier(nil)
	if !cfg.Enabled {
		return logNotifier
	}
	if cfg.Host == "" || cfg.Port == 0 || cfg.From == "" {
		log.Printf("email notifier disabled: missing host/port/from")
		return logNotifier
	}
	reviewers := notifier.NewReviewerNotifier(dir, cfg, nil, logNotifier)
	if len(cfg.To) == 0 {
		return reviewers
	}
	return notifier.NewMulti(reviewers, notifier.NewEmailNotifier(cfg, nil))
}
