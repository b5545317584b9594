package main

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/proconnect-io/professionals-service/internal/config"
	"github.com/proconnect-io/professionals-service/internal/service"
)

// Usage example on the command line:
// > PORT=8080 DBUSER=app DBPWD=secret GIN_MODE=release GIN_LOGGING=OFF go run main.go
func main() {
	// A .env file is optional; the environment always wins.
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	sqlDB := service.CreateDatabase(cfg)
	service.SetupDatabaseWrapper(sqlDB)
	router := service.SetupHttpRouter()
	log.Info().Int("port", cfg.Port).Msg("starting professionals service")
	if err := router.Run(fmt.Sprintf(":%d", cfg.Port)); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
