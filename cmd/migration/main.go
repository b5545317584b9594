package main

import (
	"bufio"
	"flag"
	"os"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/proconnect-io/professionals-service/internal/config"
	"github.com/proconnect-io/professionals-service/internal/service"
)

// Usage example on the command line:
// > DBHOST=localhost DBUSER=app DBPWD=secret go run main.go -file=../../scripts/database.sql
func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	sqlDB := service.CreateDatabase(cfg)
	db := sqlx.NewDb(sqlDB, "mysql")
	defer db.Close()

	filePtr := flag.String("file", "database.sql", "the sql file to execute")
	flag.Parse()

	readFile, err := os.Open(*filePtr)
	if err != nil {
		log.Fatal().Err(err).Str("file", *filePtr).Msg("opening sql file")
	}
	defer readFile.Close()

	fileScanner := bufio.NewScanner(readFile)
	fileScanner.Split(bufio.ScanLines)
	builder := strings.Builder{}
	for fileScanner.Scan() {
		line := fileScanner.Text()
		builder.WriteString(line)
		builder.WriteString(" ")
		if strings.Contains(line, ";") {
			db.MustExec(builder.String())
			builder = strings.Builder{}
		}
	}
	log.Info().Str("file", *filePtr).Msg("schema applied")
}
