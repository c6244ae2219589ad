// Command tokengen mints an operator bearer token for the admin routes.
//
//	tokengen -config config.yaml -operator <uuid>
package main

import (
	"flag"
	"fmt"
	"log"
	"slices"

	"github.com/google/uuid"

	"tradeboard/pointhub/internal/config"
	jwtpkg "tradeboard/pointhub/pkg/jwt"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	operator := flag.String("operator", "", "operator user id (must be listed in admin.user_ids)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.JWT.SigningKey == "" {
		log.Fatal("jwt.signing_key is empty")
	}

	id, err := uuid.Parse(*operator)
	if err != nil {
		log.Fatalf("invalid operator id: %v", err)
	}
	if !slices.Contains(cfg.Admin.UserIDs, id.String()) {
		log.Printf("warning: %s is not in admin.user_ids; the token will be rejected", id)
	}

	token, err := jwtpkg.NewManager(cfg.JWT.SigningKey, cfg.JWT.Issuer, cfg.JWT.AccessTokenTTL).GenerateAccessToken(id)
	if err != nil {
		log.Fatalf("failed to sign token: %v", err)
	}
	fmt.Println(token)
}
