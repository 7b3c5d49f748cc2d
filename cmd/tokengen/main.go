// Package main mints bearer tokens for the probe server. Tokens are signed
// with the key in JWT_SIGNING_KEY (or -key) and are meant for local use.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"apiprobe/pkg/auth"
)

const (
	defaultIssuer   = "apiprobe"
	defaultTokenTTL = time.Hour
)

type tokenOutput struct {
	Token     string `json:"token"`
	Subject   string `json:"subject"`
	Issuer    string `json:"issuer"`
	ExpiresIn string `json:"expires_in"`
}

func main() {
	subject := flag.String("subject", "local-dev", "Token subject")
	name := flag.String("name", "", "Display name (optional)")
	issuer := flag.String("issuer", getEnv("JWT_ISSUER", defaultIssuer), "Token issuer, must match the server's JWT_ISSUER")
	key := flag.String("key", os.Getenv("JWT_SIGNING_KEY"), "HS256 signing key, must match the server's JWT_SIGNING_KEY")
	ttl := flag.Duration("ttl", defaultTokenTTL, "Token time-to-live")
	jsonOutput := flag.Bool("json", false, "Output as JSON")
	flag.Parse()

	if *key == "" {
		fmt.Fprintln(os.Stderr, "Error: a signing key is required (-key or JWT_SIGNING_KEY)")
		os.Exit(1)
	}

	token, err := auth.NewTokenService(*key, *issuer).Issue(*subject, *name, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating token: %v\n", err)
		os.Exit(1)
	}

	if *jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(tokenOutput{
			Token:     token,
			Subject:   *subject,
			Issuer:    *issuer,
			ExpiresIn: ttl.String(),
		}); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding output: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Printf("Subject:    %s\n", *subject)
	fmt.Printf("Issuer:     %s\n", *issuer)
	fmt.Printf("Expires In: %s\n", *ttl)
	fmt.Println()
	fmt.Println(token)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  curl -H \"Authorization: Bearer <token>\" http://localhost:8080/api/rate-limit-tests")
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
