package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/invoice-service/internal/config"
	"github.com/garyjia/invoice-service/internal/infrastructure/auth"
)

// Issues a bearer token for local testing against the API, signed with
// auth.token_secret from the service configuration.

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML configuration file")
	userID := flag.String("user", "", "user id the token authenticates")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	if *userID == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	verifier := auth.NewHMACTokenVerifier(cfg.Auth.TokenSecret, zap.NewNop())
	fmt.Println(verifier.Issue(*userID, *ttl))
}
