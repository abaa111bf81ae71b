package main

import (
	"fmt"

	"device-lending-api/app"
	"device-lending-api/config"
	"device-lending-api/logger"
	"device-lending-api/routes"
)

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		panic(fmt.Sprintf("load config: %v", err))
	}

	log, err := logger.New(cfg.Server.Mode)
	if err != nil {
		panic(fmt.Sprintf("init logger: %v", err))
	}
	defer log.Sync()

	a := app.MustNew(cfg, log)
	defer a.Close()

	routes.RegisterRoutes(a)

	log.Info("server starting", "port", cfg.Server.Port)
	if err := a.Router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatal("server stopped", "error", err)
	}
}
