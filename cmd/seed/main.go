// Package main seeds a running EasyComment server with a demo instance and
// a stream of demo comments.
//
// Usage:
//
//	go run ./cmd/seed
//	go run ./cmd/seed --api http://localhost:8880 --delay 500ms
package main

import (
	"time"

	"github.com/alecthomas/kong"
)

var cli struct {
	API        string        `default:"http://localhost:8880" help:"Base URL of the EasyComment API."`
	Frontend   string        `default:"http://localhost:3000" help:"Base URL of the overlay frontend, used for printed links."`
	Name       string        `default:"デモ配信" help:"Name of the demo instance."`
	WebhookURL string        `default:"https://example.com/webhook" name:"webhook-url" help:"Webhook URL stored on the demo instance."`
	Password   string        `help:"Admin password for the demo instance. Empty leaves the admin endpoints open."`
	Delay      time.Duration `default:"2s" help:"Pause between demo comments."`
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("seed"),
		kong.Description("Create a demo instance and post demo comments to it."),
	)

	s := &Seeder{
		API:        cli.API,
		Frontend:   cli.Frontend,
		Name:       cli.Name,
		WebhookURL: cli.WebhookURL,
		Password:   cli.Password,
		Delay:      cli.Delay,
		Out:        ctx.Stdout,
	}
	ctx.FatalIfErrorf(s.Run())
}
