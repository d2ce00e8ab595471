package db

import (
	"designboards/internal/boardapi"
	"log"
)

// Migrate runs database migrations
func Migrate() {
	err := AppDb.AutoMigrate(
		&boardapi.Board{},
		&boardapi.BoardObject{},
	)

	if err != nil {
		log.Fatal(err)
	}

	log.Println("Database schema migrated successfully")
}
