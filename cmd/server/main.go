package main

import (
	"github.com/Team-Chatoy/chatoy-server/internal/config"
	"github.com/Team-Chatoy/chatoy-server/internal/db"
	clog "github.com/Team-Chatoy/chatoy-server/internal/log"
	"github.com/Team-Chatoy/chatoy-server/internal/relay"
	"github.com/Team-Chatoy/chatoy-server/internal/server"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.Load()
	clog.Init(cfg.Env, cfg.LogLevel)

	gdb, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatal().Err(err).Msg("db migrate")
	}

	rly := relay.New(cfg.RelayQueueCap)
	r := server.SetupRouter(cfg, gdb, rly)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server run")
	}
}
