// cmd/petlink-edges/main.go
package main

import (
	"os"

	"petlink/internal/edgeapp"
)

func main() {
	os.Exit(edgeapp.Run(os.Args[1:], os.Stdout, os.Stderr))
}
