package main

import (
	"flag"

	"spotit/backend"
	"spotit/common"

	"github.com/apex/log"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found")
	}
	flag.Parse()

	db, err := common.DBConnect()
	if err != nil {
		log.Fatalf("Failed to connect to the database: %v", err)
	}
	defer db.Close()

	backend.StartService(db)
}
