package main

import (
	"log"

	"github.com/kunalgupta7870/Sparkology-sub003/app/config"
	"github.com/kunalgupta7870/Sparkology-sub003/app/database"
)

func main() {
	log.Println("Running schema migrations...")

	config.Load()
	db := config.GetDB()
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		log.Fatal("Migration failed:", err)
	}

	log.Println("Migrations completed successfully")
}
