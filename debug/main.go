package main

import (
	"os"

	"github.com/emrgen/noteforest/internal/server"
)

func main() {
	httpPort := os.Getenv("HTTP_PORT")
	if httpPort == "" {
		httpPort = "4001"
	}

	server.NewServer(httpPort).Start()
}
