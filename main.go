package main

import (
	"os"

	"go.uber.org/zap"

	"github.com/Michillas/Michibox/db"
	"github.com/Michillas/Michibox/imdb"
	api "github.com/Michillas/Michibox/routes"
)

func main() {
	logger := zap.Must(zap.NewProduction())
	defer logger.Sync()

	config := api.NewEnvConfig()

	dbService := db.NewDBService()
	if err := dbService.InitSchema(); err != nil {
		logger.Fatal("Failed to initialize database schema", zap.Error(err))
	}

	server := &api.API{
		DB:     dbService,
		IMDB:   imdb.NewClient(os.Getenv("IMDB_API_URL")),
		Config: config,
		Logger: logger,
	}
	server.ExposeAPI()
}
