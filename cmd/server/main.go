// Package main is the entry point for the smfplay API server
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/james-see/smfplay/pkg/api"
	"github.com/james-see/smfplay/pkg/debug"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver
)

func main() {
	port := flag.Int("port", 8080, "Server port")
	logFile := flag.String("log", "", "Write a timestamped debug log to this file")
	flag.Parse()

	if *logFile != "" {
		if err := debug.Enable(*logFile); err != nil {
			fmt.Fprintf(os.Stderr, "Log error: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Printf("Starting smfplay API server on port %d...\n", *port)
	fmt.Printf("Swagger docs available at http://localhost:%d/swagger/index.html\n", *port)

	if err := api.StartServer(*port); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
