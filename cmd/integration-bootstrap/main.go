// Thin wrapper for storing a manually-obtained bearer token under a
// profile's token cache path, for use before a profile's first sync run.
//
// Usage:
//
//	go run ./cmd/integration-bootstrap --profile work --access-token "$TOKEN"
//	go run ./cmd/integration-bootstrap --profile work --access-token "$TOKEN" --refresh-token "$REFRESH" --expires-in 3600
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"golang.org/x/oauth2"

	"github.com/tonimelisma/bkmsync/internal/config"
)

func main() {
	profile := flag.String("profile", "default", "profile name to store the token under")
	accessToken := flag.String("access-token", "", "bearer access token (required)")
	refreshToken := flag.String("refresh-token", "", "refresh token, if the server supports refreshing")
	expiresIn := flag.Int("expires-in", 0, "seconds until the access token expires (0 = no expiry)")
	tokenType := flag.String("token-type", "Bearer", "token type sent in the Authorization header")
	flag.Parse()

	if *accessToken == "" {
		fmt.Fprintln(os.Stderr, "--access-token is required")
		os.Exit(1)
	}

	tok := &oauth2.Token{
		AccessToken:  *accessToken,
		RefreshToken: *refreshToken,
		TokenType:    *tokenType,
	}

	if *expiresIn > 0 {
		tok.Expiry = time.Now().Add(time.Duration(*expiresIn) * time.Second)
	}

	path := config.ProfileTokenPath(*profile)
	if path == "" {
		fmt.Fprintln(os.Stderr, "could not determine token cache path (home directory unavailable)")
		os.Exit(1)
	}

	if err := config.SaveToken(path, tok); err != nil {
		fmt.Fprintf(os.Stderr, "saving token: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Token saved for profile %q at %s\n", *profile, path)
}
