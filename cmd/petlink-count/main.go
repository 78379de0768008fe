// cmd/petlink-count/main.go
package main

import (
	"os"

	"petlink/internal/countapp"
)

func main() {
	os.Exit(countapp.Run(os.Args[1:], os.Stdout, os.Stderr))
}
