package main

import (
	"os"

	"github.com/joho/godotenv"

	"revlens/internal/cli"
)

func main() {
	_ = godotenv.Load()
	os.Exit(cli.Run())
}
