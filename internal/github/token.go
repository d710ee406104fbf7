package github

import (
	"errors"
	"os"
	"strings"
)

type AuthTokenSource string

const (
	AuthTokenSourceExplicit AuthTokenSource = "input:repotoken"
	AuthTokenSourceEnv      AuthTokenSource = "env:GITHUB_TOKEN"
)

// ErrMissingToken is returned when no access token could be found.
var ErrMissingToken = errors.New("no GitHub token found. Set repotoken to ${{ secrets.GITHUB_TOKEN }} in your workflow")

// ResolveAuthToken resolves a GitHub access token.
//
// Precedence:
//  1. provided (if non-empty)
//  2. GITHUB_TOKEN env var
//
// It never prints the token.
func ResolveAuthToken(provided string) (token string, source AuthTokenSource, err error) {
	if tok := strings.TrimSpace(provided); tok != "" {
		return tok, AuthTokenSourceExplicit, nil
	}
	if env := strings.TrimSpace(os.Getenv("GITHUB_TOKEN")); env != "" {
		return env, AuthTokenSourceEnv, nil
	}
	return "", "", ErrMissingToken
}
