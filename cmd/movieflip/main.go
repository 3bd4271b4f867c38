package main

import (
	"log"

	"github.com/tofixx/mymovieflip/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ movieflip failed to start: %v", err)
	}
}
