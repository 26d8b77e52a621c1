package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Quick utility to mint a bearer token for local testing against JWT_SECRET
// Usage: go run ./scripts -subject <identity> [-ttl 1h] [-issuer draftqueen]
func main() {
	subject := flag.String("subject", "", "identity the token is issued to")
	issuer := flag.String("issuer", os.Getenv("JWT_ISSUER"), "token issuer")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	secret := os.Getenv("JWT_SECRET")
	if *subject == "" || secret == "" {
		fmt.Println("Usage: JWT_SECRET=... go run ./scripts -subject <identity>")
		os.Exit(1)
	}

	token, err := mintToken(secret, *subject, *issuer, *ttl, time.Now())
	if err != nil {
		fmt.Println("failed to sign token:", err)
		os.Exit(1)
	}
	fmt.Println(token)
}

func mintToken(secret, subject, issuer string, ttl time.Duration, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
