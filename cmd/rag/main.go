package main

import (
	"github.com/joho/godotenv"

	"github.com/layrfelipe/hotmart-challenge/internal/cli"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cli.Execute()
}
