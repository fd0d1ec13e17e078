package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "q"
	keyringUser    = "github"
)

// ErrNotAuthenticated is returned when no GitHub token is available.
var ErrNotAuthenticated = errors.New("not authenticated: run `q login` first")

// GitHubToken returns the stored GitHub OAuth token. Q_GITHUB_TOKEN wins
// over the keyring.
func GitHubToken() (string, error) {
	if token := os.Getenv("Q_GITHUB_TOKEN"); token != "" {
		return token, nil
	}

	token, err := keyring.Get(keyringService, keyringUser)
	switch {
	case errors.Is(err, keyring.ErrNotFound):
		return "", ErrNotAuthenticated
	case err != nil:
		return "", fmt.Errorf("failed to read token from keyring: %w", err)
	case token == "":
		return "", ErrNotAuthenticated
	}

	return token, nil
}

// SaveGitHubToken stores token in the OS keyring.
func SaveGitHubToken(token string) error {
	if err := keyring.Set(keyringService, keyringUser, token); err != nil {
		return fmt.Errorf("failed to store token in keyring: %w", err)
	}
	return nil
}

// DeleteGitHubToken removes the stored token. Removing a missing token is
// not an error.
func DeleteGitHubToken() error {
	err := keyring.Delete(keyringService, keyringUser)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to remove token from keyring: %w", err)
	}
	return nil
}
