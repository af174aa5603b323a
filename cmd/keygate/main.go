package main

import (
	"log"

	"keygate/cmd/internal/app"

	"github.com/joho/godotenv"
)

func main() {
	// Best effort: a missing .env file is fine.
	_ = godotenv.Load()

	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
}
