package main

import (
	"log"

	"github.com/Pleso100/Kolgidrat/core/cmd"
	"github.com/Pleso100/Kolgidrat/internal/app"
)

func main() {
	err := cmd.Run(cmd.Options{
		DefaultConfigPath: "config.yaml",
		EnvFiles:          []string{".env"},
		LoadConfig:        app.LoadCarrier,
		Bootstrap:         app.Bootstrap,
	})
	if err != nil {
		log.Fatal(err)
	}
}
