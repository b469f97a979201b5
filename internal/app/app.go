package app

import (
	"context"
	"duelquiz/internal/cache"
	"duelquiz/internal/config"
	"duelquiz/internal/repository"
	"duelquiz/internal/service"
	"duelquiz/internal/transport/rest"
	"duelquiz/internal/transport/ws"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	pingTimeout     = 5 * time.Second
	shutdownTimeout = 30 * time.Second
)

// App holds the wired server and its backends
type App struct {
	Registry *service.SessionRegistry
	Sessions *service.SessionService
	Slots    *service.SlotManager
	Rounds   *service.RoundCoordinator
	Reaper   *service.Reaper
	Hub      *ws.Hub

	httpServer *http.Server
	scheduler  *cron.Cron
	cleanup    []func(context.Context) error
}

// New connects the configured quiz store and wires every component
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{}

	quizzes, err := a.setupQuizStore(ctx, cfg)
	if err != nil {
		a.close(ctx)
		return nil, err
	}

	hub := ws.NewHub()
	registry := service.NewSessionRegistry()
	slots := service.NewSlotManager(registry)
	rounds := service.NewRoundCoordinator(registry, quizzes, slots)
	sessions := service.NewSessionService(registry, quizzes, slots)
	reaper := service.NewReaper(registry, quizzes, cfg.SessionIdleTimeout, cfg.DoneRetention)

	// Inject broadcaster (hub implements service.Broadcaster)
	slots.SetBroadcaster(hub)
	rounds.SetBroadcaster(hub)
	reaper.SetBroadcaster(hub)

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.SweepSchedule, func() {
		if n := reaper.Sweep(context.Background()); n > 0 {
			log.Printf("Evicted %d sessions, %d live", n, registry.Len())
		}
	}); err != nil {
		hub.Close()
		a.close(ctx)
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", cfg.SweepSchedule, err)
	}

	router := rest.NewRouter(&rest.Container{
		SessionService: sessions,
		WSHandler:      ws.NewHandler(hub, slots, rounds, cfg.CORSOrigin, cfg.Verbose),
		CORSOrigin:     cfg.CORSOrigin,
	})

	a.Registry = registry
	a.Sessions = sessions
	a.Slots = slots
	a.Rounds = rounds
	a.Reaper = reaper
	a.Hub = hub
	a.scheduler = scheduler
	a.httpServer = &http.Server{
		Addr:              net.JoinHostPort(cfg.Bind, strconv.Itoa(cfg.Port)),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return a, nil
}

func (a *App) setupQuizStore(ctx context.Context, cfg *config.Config) (service.QuizStore, error) {
	var rdb *redis.Client
	if cfg.UsesRedis() {
		rdb = redis.NewClient(&redis.Options{
			Addr:     strings.TrimPrefix(cfg.RedisAddr, "redis://"),
			Password: cfg.RedisPassword,
		})
		a.cleanup = append(a.cleanup, func(context.Context) error { return rdb.Close() })

		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			return nil, fmt.Errorf("failed to ping Redis: %w", err)
		}
		log.Println("Connected to Redis")
	}

	var db *mongo.Database
	if cfg.UsesMongo() {
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		a.cleanup = append(a.cleanup, client.Disconnect)

		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := client.Ping(pingCtx, nil); err != nil {
			return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
		}
		log.Println("Connected to MongoDB")
		db = client.Database(cfg.MongoDatabase)
	}

	switch cfg.QuizStore {
	case config.StoreRedis:
		return cache.NewQuizCache(rdb, cfg.QuizTTL), nil
	case config.StoreMongo:
		return repository.NewQuizRepo(db), nil
	case config.StoreTiered:
		return cache.NewTieredQuizStore(cache.NewQuizCache(rdb, cfg.QuizTTL), repository.NewQuizRepo(db)), nil
	default:
		log.Println("Using in-memory quiz store")
		return repository.NewMemoryQuizRepo(), nil
	}
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully
func (a *App) Run(ctx context.Context) error {
	a.scheduler.Start()

	errs := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s", a.httpServer.Addr)
		log.Println("Endpoints:")
		log.Println("  POST /v1/sessions")
		log.Println("  GET  /v1/sessions/{id}, GET /v1/sessions/{id}/qr")
		log.Println("  POST /v1/sessions/{id}/join, POST /v1/join")
		log.Println("  WS   /v1/ws")

		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	select {
	case err := <-errs:
		a.shutdown()
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down server...")
	return a.shutdown()
}

func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	<-a.scheduler.Stop().Done()
	err := a.httpServer.Shutdown(ctx)
	a.Hub.Close()
	a.close(ctx)

	log.Println("Server exited")
	return err
}

func (a *App) close(ctx context.Context) {
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		if err := a.cleanup[i](ctx); err != nil {
			log.Printf("Cleanup failed: %v", err)
		}
	}
	a.cleanup = nil
}
