package main

import (
	"context"
	"crypto/tls"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/woorkia/nexus-business/api"
	"github.com/woorkia/nexus-business/blob"
	"github.com/woorkia/nexus-business/mirror"
	"github.com/woorkia/nexus-business/remote"
)

func main() {
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}
	if logFile := os.Getenv("LOG_FILE"); logFile != "" {
		log.SetOutput(&lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    20, // megabytes
			MaxBackups: 3,
			MaxAge:     14, // days
		})
	}

	remoteURL := os.Getenv("REMOTE_STORE_URL")
	remoteKey := os.Getenv("REMOTE_STORE_KEY")
	if remoteURL == "" {
		log.Fatal("missing remote store config")
	}

	redisConn := os.Getenv("REDIS_CONNECTION_STRING")
	if redisConn == "" {
		log.Fatal("missing redis config")
	}
	redisOpts, err := redis.ParseURL(redisConn)
	if err != nil {
		parts := strings.Split(redisConn, ",")
		redisOpts = &redis.Options{Addr: parts[0]}
		for _, p := range parts[1:] {
			kv := strings.SplitN(p, "=", 2)
			if len(kv) != 2 {
				continue
			}
			switch strings.ToLower(kv[0]) {
			case "password":
				redisOpts.Password = kv[1]
			case "ssl":
				if strings.ToLower(kv[1]) == "true" {
					redisOpts.TLSConfig = &tls.Config{}
				}
			}
		}
	}
	rc := redis.NewClient(redisOpts)

	dedupTTL := 24 * time.Hour
	if v := os.Getenv("DEDUPER_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			log.Fatalf("invalid DEDUPER_TTL: %v", err)
		}
		dedupTTL = d
	}

	blobPath := os.Getenv("BLOB_DB_PATH")
	if blobPath == "" {
		blobPath = ".nexus/attachments.db"
	}
	blobs, err := blob.Open(blobPath)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}
	defer blobs.Close()

	gw := remote.New(remoteURL, remoteKey, rc, os.Getenv("CHANGES_CHANNEL_PREFIX"))
	store := mirror.New(gw, mirror.LogDrift{}, mirror.NewRedisDeduper(rc, dedupTTL))

	e := echo.New()
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	logger := log.New()
	api.Register(e, store, blobs, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := store.Start(ctx); err != nil {
		log.Fatalf("mirror: %v", err)
	}
	defer store.Stop()

	listenAddr := ":8090"
	if val, ok := os.LookupEnv("AGENT_PORT"); ok {
		listenAddr = ":" + val
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("server shutdown")
		}
	}()

	if err := e.Start(listenAddr); err != nil {
		log.Info(err)
	}
}
