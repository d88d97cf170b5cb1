// Command observertoken prints a bearer token for the service that watches
// the chain and calls /api/payment/confirm.
package main

import (
	"flag" // Command-line flags
	"fmt"  // Output

	"ton_topup/internal/config" // Custom import path (Config)
	"ton_topup/internal/utils"  // JWT helpers

	"github.com/sirupsen/logrus" // Structured logging
)

func main() {
	subject := flag.String("subject", "chain-observer", "token subject")
	ttl := flag.Duration("ttl", 0, "token lifetime, 0 for no expiry")
	flag.Parse()

	cfg := config.LoadConfig() // Load configuration
	if cfg.ObserverSecret == "" {
		logrus.Fatal("OBSERVER_SECRET is required")
	}
	token, err := utils.GenerateJWT(*subject, utils.RoleObserver, cfg.ObserverSecret, *ttl)
	if err != nil {
		logrus.Fatalf("failed to sign token: %v", err)
	}
	fmt.Println(token)
}
