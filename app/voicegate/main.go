package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/tabletalk/voicegate/config"
	"github.com/tabletalk/voicegate/internal/api/handlers"
	"github.com/tabletalk/voicegate/internal/api/middleware"
	"github.com/tabletalk/voicegate/internal/api/routes"
	"github.com/tabletalk/voicegate/internal/cache"
	"github.com/tabletalk/voicegate/internal/engine"
	"github.com/tabletalk/voicegate/internal/logger"
	pgrepo "github.com/tabletalk/voicegate/internal/repositories/postgres"
	mongorepo "github.com/tabletalk/voicegate/internal/repositories/mongo"
	"github.com/tabletalk/voicegate/internal/services"
	"github.com/tabletalk/voicegate/internal/storage"
	"github.com/tabletalk/voicegate/internal/ws"
)

func main() {
	_ = godotenv.Load()
	log := logger.New()

	if err := config.InitMongo(); err != nil {
		log.WithError(err).Fatal("mongodb init error")
	}
	log.Info("mongodb connected")

	if err := config.InitPostgres(); err != nil {
		log.WithError(err).Fatal("postgresql init error")
	}
	log.Info("postgresql connected")

	if err := config.InitRedis(); err != nil {
		log.WithError(err).Fatal("redis init error")
	}
	log.Info("redis connected")

	if err := config.EnsureMongoIndexes(); err != nil {
		log.WithError(err).Fatal("mongo index setup error")
	}

	engCfg, err := config.LoadEngineConfig()
	if err != nil {
		log.WithError(err).Fatal("engine config error")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbName := os.Getenv("MONGO_DB")
	if dbName == "" {
		dbName = "voicegate"
	}
	mongoDB := config.MongoClient.Database(dbName)

	menuRepo := pgrepo.NewMenuRepo(config.PostgresDB)
	orderRepo := pgrepo.NewOrderRepo(config.PostgresDB)
	auditRepo := mongorepo.NewAuditRepo(mongoDB)

	redisCache := cache.NewRedisCache(config.RedisClient)
	persistence := services.NewPersistenceService(menuRepo, orderRepo, redisCache)
	audit := services.NewAuditService(auditRepo, log)

	uploader, err := storage.NewGCSUploader(ctx, engCfg.GCSBucket)
	if err != nil {
		log.WithError(err).Fatal("gcs uploader init error")
	}

	eng, err := engine.New(ctx, engCfg, uploader, persistence, audit, config.RedisClient, log)
	if err != nil {
		log.WithError(err).Fatal("engine init error")
	}
	eng.Start(ctx)

	driver := ws.NewDriver(eng.Sessions, log)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))
	routes.RegisterRoutes(r, routes.Deps{
		Voice: handlers.NewVoiceHandler(driver),
		Admin: handlers.NewAdminHandler(audit),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{Addr: ":" + port, Handler: r}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("http server error")
		}
	}()
	log.WithField("port", port).Info("voicegate listening")

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	eng.Shutdown(shutdownCtx)
}
