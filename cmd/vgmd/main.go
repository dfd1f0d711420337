package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
	"gopkg.in/yaml.v3"

	"example.com/vgmgate/internal/server"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

type logConfig struct {
	Directory  string `yaml:"directory"`
	MaxSizeMB  int    `yaml:"maxSizeMb"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
	MaxBackups int    `yaml:"maxBackups"`
	Compress   bool   `yaml:"compress"`
}

type config struct {
	Port        int               `yaml:"port"`
	StorageDir  string            `yaml:"storageDir"`
	Concurrency int               `yaml:"concurrency"`
	RulePacks   map[string]string `yaml:"rulePacks"`
	Logs        logConfig         `yaml:"logs"`
}

func loadConfig(path string) (config, error) {
	cfg := config{
		Port: 8080,
		Logs: logConfig{
			MaxSizeMB:  50,
			MaxAgeDays: 14,
			MaxBackups: 5,
		},
	}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	base := filepath.Dir(path)
	resolvePath := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}
	cfg.StorageDir = resolvePath(cfg.StorageDir)
	cfg.Logs.Directory = resolvePath(cfg.Logs.Directory)
	for profile, pack := range cfg.RulePacks {
		cfg.RulePacks[profile] = resolvePath(pack)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return cfg, fmt.Errorf("invalid port %d", cfg.Port)
	}
	return cfg, nil
}

func setupLogging(cfg logConfig) (io.Closer, error) {
	if cfg.Directory == "" {
		return nil, nil
	}
	if err := os.MkdirAll(cfg.Directory, 0o755); err != nil {
		return nil, err
	}
	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(cfg.Directory, "vgmd.log"),
		MaxSize:    cfg.MaxSizeMB,
		MaxAge:     cfg.MaxAgeDays,
		MaxBackups: cfg.MaxBackups,
		Compress:   cfg.Compress,
	}
	log.SetOutput(io.MultiWriter(os.Stdout, rotator))
	return rotator, nil
}

func main() {
	configPath := flag.String("config", "", "path to a YAML configuration file")
	addr := flag.String("addr", "", "listen address override (e.g. :8080)")
	readTimeout := flag.Duration("read-timeout", 30*time.Second, "HTTP read timeout")
	writeTimeout := flag.Duration("write-timeout", 10*time.Minute, "HTTP write timeout")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	closer, err := setupLogging(cfg.Logs)
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	if closer != nil {
		defer closer.Close()
	}

	s, err := server.NewServer(server.Options{
		StorageDir:  cfg.StorageDir,
		RulePacks:   cfg.RulePacks,
		Concurrency: cfg.Concurrency,
	})
	if err != nil {
		log.Fatalf("server: %v", err)
	}
	defer s.Close()

	listenAddr := *addr
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%d", cfg.Port)
	}
	httpServer := &http.Server{
		Addr:         listenAddr,
		Handler:      server.NewRouter(s),
		ReadTimeout:  *readTimeout,
		WriteTimeout: *writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("vgmd %s (built %s) listening on %s", version, buildDate, listenAddr)
		errCh <- httpServer.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		log.Printf("received %s, shutting down", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}
}
