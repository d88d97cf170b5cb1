package main

import (
	"context"                   // Context for migration
	"ton_topup/internal/config" // Custom import path (Config)
	"ton_topup/internal/db"     // Custom import path (Database)
	"ton_topup/internal/ledger" // Custom import path (Ledger)

	"github.com/sirupsen/logrus" // Structured logging
)

// Main entry point for migration
func main() {
	cfg := config.LoadConfig() // Load configuration

	gdb, err := db.Open(cfg) // Connect using the configured driver
	if err != nil {
		logrus.Fatalf("failed to connect database: %v", err) // Log fatal error if connection fails
	}
	if err := ledger.New(gdb).Init(context.Background()); err != nil {
		logrus.Fatalf("%v", err) // Log fatal error if migration fails
	}
}
