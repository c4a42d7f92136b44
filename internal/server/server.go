package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/emrgen/noteforest/internal/cache"
	"github.com/emrgen/noteforest/internal/compress"
	"github.com/emrgen/noteforest/internal/config"
	"github.com/emrgen/noteforest/internal/job"
	"github.com/emrgen/noteforest/internal/jobs"
	"github.com/emrgen/noteforest/internal/queue"
	"github.com/emrgen/noteforest/internal/service"
	"github.com/emrgen/noteforest/internal/store"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// Server represents the server
type Server struct {
	httpPort string
}

// NewServer creates a new server
func NewServer(httpPort string) *Server {
	return &Server{
		httpPort: httpPort,
	}
}

// Start starts the server
func (s *Server) Start() {
	cfg := config.LoadConfig()
	if s.httpPort != "" {
		cfg.HTTPPort = s.httpPort
	}

	if err := Start(cfg); err != nil {
		logrus.Fatalf("error starting server: %v", err)
	}
}

// snapshotStore connects the persisted snapshots when redis is configured.
func snapshotStore(cfg *config.Config) (cache.SnapshotStore, error) {
	if cfg.RedisURL == "" {
		logrus.Infof("REDIS_URL not set, snapshots are kept in memory only")
		return cache.NopSnapshotStore{}, nil
	}

	encoder, err := compress.New(cfg.SnapshotCompression)
	if err != nil {
		return nil, fmt.Errorf("snapshot compression %q: %w", cfg.SnapshotCompression, err)
	}

	client, err := cache.NewRedisClient(cfg.RedisURL)
	if err != nil {
		return nil, err
	}

	return cache.NewRedisSnapshotStore(client, encoder, cfg.SnapshotTTL), nil
}

// Start starts the http server and the background jobs and blocks until the
// process is interrupted.
func Start(cfg *config.Config) error {
	config.ConfigureLogger(cfg)

	httpPort := ":" + cfg.HTTPPort
	rl, err := net.Listen("tcp", httpPort)
	if err != nil {
		return err
	}

	docStore := store.NewGormStore(config.GetDb(cfg))
	if err = docStore.Migrate(); err != nil {
		return err
	}

	persisted, err := snapshotStore(cfg)
	if err != nil {
		return err
	}

	hub := queue.NewHub()
	docs := service.NewDocumentService(docStore, cache.NewSnapshotCache(), persisted, hub).
		WithThreshold(cfg.DropThreshold)

	executor := jobs.NewTaskExecutor(
		jobs.NewSnapshotRefreshTask(cfg.RefreshSchedule, docStore, docs),
		jobs.NewOrderRepairTask(cfg.RepairSchedule, docStore, docs),
	)
	if err = executor.Run(); err != nil {
		return err
	}
	defer executor.Stop()

	sweeper := job.NewOrphanSweeper(docStore, docs, cfg.OrphanSweepInterval)

	restServer := &http.Server{
		Addr:    httpPort,
		Handler: NewRouter(docs, hub, NewNullTokenService()),
	}

	// make sure to wait for the server to stop before exiting
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		sweeper.Run()
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		logrus.Info("starting http server on: ", httpPort)
		if err := restServer.Serve(rl); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				logrus.Errorf("error starting http server: %v", err)
			}
		}
		logrus.Infof("http server stopped")
	}()

	time.Sleep(1 * time.Second)
	logrus.Infof("Press Ctrl+C to stop the server")

	// listen for interrupt signal to gracefully shut down the server
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, unix.SIGTERM, unix.SIGINT, unix.SIGTSTP)
	<-sigs
	// clean Ctrl+C output
	fmt.Println()

	sweeper.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = restServer.Shutdown(ctx)
	if err != nil {
		logrus.Errorf("error stopping http server: %v", err)
	}

	wg.Wait()

	return nil
}
