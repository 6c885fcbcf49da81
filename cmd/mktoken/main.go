package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"stagebook/config"
	"stagebook/internal/adapters/auth"
)

// mktoken mints a bearer token for a subject, for local development and
// operational access to the HTTP API. The signing secret comes from the same
// configuration the server reads.
func main() {
	subject := flag.String("subject", "", "subject ID to issue the token for")
	email := flag.String("email", "", "email claim (optional)")
	expiry := flag.Duration("expiry", 24*time.Hour, "token lifetime")
	flag.Parse()

	if *subject == "" {
		fmt.Fprintln(os.Stderr, "mktoken: -subject is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "mktoken: load config: %v\n", err)
		os.Exit(1)
	}

	token, err := auth.NewJWTIssuer(cfg.JWTSecret).Issue(*subject, *email, *expiry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mktoken: issue token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
