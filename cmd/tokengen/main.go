// Package main provides a CLI tool for minting test session tokens for the
// gateway. These tokens use the dev signing key and will NOT work against a
// production deployment.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"tunegate/internal/session"
)

const (
	// Dev signing key, matches config.go when TUNEGATE_SIGNING_KEY is unset.
	devSigningKey = "dev-secret-key-change-in-production"

	defaultTokenTTL = 30 * 24 * time.Hour
)

type tokenOutput struct {
	Token     string            `json:"token"`
	ExpiresIn string            `json:"expires_in"`
	Claims    map[string]any    `json:"claims,omitempty"`
	Usage     map[string]string `json:"usage"`
}

func main() {
	email := flag.String("email", "listener@example.com", "User email claim")
	name := flag.String("name", "Test Listener", "User display name claim")
	ssid := flag.String("ssid", "", "Backend SSID credential. Generated if empty.")
	provider := flag.String("provider", "credentials", "Identity provider claim")
	ttl := flag.Duration("ttl", defaultTokenTTL, "Token time-to-live; negative mints an already expired token")
	key := flag.String("key", devSigningKey, "HS256 signing key")
	noSSID := flag.Bool("no-ssid", false, "Omit the ssid claim entirely")
	jsonOutput := flag.Bool("json", false, "Output as JSON")
	flag.Parse()

	sid := *ssid
	if sid == "" && !*noSSID {
		sid = uuid.New().String()
	}
	if *noSSID {
		sid = ""
	}

	now := time.Now()
	claims := &session.Claims{
		Email:    *email,
		Name:     *name,
		SSID:     sid,
		Provider: *provider,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(*ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(*key))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error signing token: %v\n", err)
		os.Exit(1)
	}

	if *jsonOutput {
		printJSON(tokenOutput{
			Token:     token,
			ExpiresIn: ttl.String(),
			Claims: map[string]any{
				"email":    *email,
				"name":     *name,
				"ssid":     sid,
				"provider": *provider,
			},
			Usage: map[string]string{
				"header": "Authorization: Bearer <token>",
			},
		})
		return
	}

	fmt.Println("Session Token (JWT)")
	fmt.Println("===================")
	fmt.Printf("Email:      %s\n", *email)
	fmt.Printf("Name:       %s\n", *name)
	if sid != "" {
		fmt.Printf("SSID:       %s\n", sid)
	}
	fmt.Printf("Provider:   %s\n", *provider)
	fmt.Printf("Expires In: %s\n", ttl)
	fmt.Println()
	fmt.Println("Token:")
	fmt.Println(token)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  curl -H \"Authorization: Bearer <token>\" http://localhost:8080/api/user/init")
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}
