package app

import (
	"context"
	"time"

	"device-lending-api/config"
	"device-lending-api/db"
	"device-lending-api/logger"
	"device-lending-api/notify"
	"device-lending-api/session"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Ctx = gin.Context
type H = gin.H

// App aggregates every shared dependency the handlers need.
type App struct {
	Router   *gin.Engine
	DB       *gorm.DB
	RDB      *redis.Client
	Log      *logger.Logger
	Notifier notify.Notifier
	Sessions *session.Store
	Config   config.Config
}

func MustNew(cfg config.Config, log *logger.Logger) *App {
	dbConn, err := db.ConnectDB(cfg.DB)
	if err != nil {
		log.Fatal("database", "error", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: 0})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal("redis", "error", err)
	}

	var notifier notify.Notifier
	if cfg.Mail.SendGridAPIKey != "" {
		notifier = notify.NewSendGrid(log, cfg.Mail.SendGridAPIKey, cfg.Mail.FromEmail, cfg.Mail.HostEmail)
	} else {
		notifier = notify.NewLogNotifier(log)
	}

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.Default()
	useCORS(r, cfg.Server.WebOrigin)

	return &App{
		Router:   r,
		DB:       dbConn,
		RDB:      rdb,
		Log:      log,
		Notifier: notifier,
		Sessions: session.NewStore(rdb, cfg.Session.TTL),
		Config:   cfg,
	}
}

func (a *App) Close() { _ = a.RDB.Close() }
