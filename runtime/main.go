package main

import (
	"github.com/plateful-labs/plateful_api/services"

	"github.com/alphabatem/common/context"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// @title Plateful API
// @version 1.0
// @description Recipe parsing API with request admission and budget governance
func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("No .env file loaded")
	}

	ctx, err := context.NewCtx(
		&services.PostgresService{},
		&services.SqliteService{},
		&services.RedisService{},

		&services.SsrfService{},
		&services.BlocklistService{},
		&services.RateLimitService{},
		&services.BudgetService{},
		&services.GateService{},
		&services.ExtractService{},

		&services.JWTService{},
		&services.AuthService{},

		&services.MonitoringService{},
		&services.HttpService{},
	)
	if err != nil {
		log.Fatal().Err(err)
		return
	}

	err = ctx.Run()
	if err != nil {
		log.Fatal().Err(err)
		return
	}
}
