package main

import (
	"log"

	"github.com/serverfarm/farmctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatalf("❌ %v", err)
	}
}
