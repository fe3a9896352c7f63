// Command token issues a JWT for an API client using the server's JWT settings.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ingeniar/bizgen/pkg/config"
	"github.com/ingeniar/bizgen/pkg/security/jwt"
)

func main() {
	subject := flag.String("subject", "", "client id to put in the sub claim")
	client := flag.String("client", "", "optional client name claim")
	ttl := flag.Duration("ttl", 0, "token lifetime (defaults to JWT_TTL_MINUTES)")
	flag.Parse()

	cfg := config.Load()
	if !cfg.AuthEnabled() {
		fmt.Fprintln(os.Stderr, "JWT_SECRET is not set: authentication is disabled")
		os.Exit(1)
	}
	lifetime := *ttl
	if lifetime <= 0 {
		lifetime = time.Duration(cfg.JWTTTLMinutes) * time.Minute
	}

	token, err := jwt.NewGenerator(cfg.JWTSecret, cfg.JWTIssuer, lifetime).Generate(*subject, *client)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generate token: %v\n", err)
		os.Exit(2)
	}
	fmt.Println(token)
}
