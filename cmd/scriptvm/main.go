package main

import (
	"embed"
	"fmt"
	"os"

	"github.com/zurustar/scriptvm/pkg/app"
)

//go:embed demo
var embeddedDemo embed.FS

func main() {
	application := app.New(embeddedDemo)
	if err := application.Run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
