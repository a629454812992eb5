package keyring

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/goaltrack/internal/constants"
)

var (
	// ErrNotFound is returned when no credentials are found in the keyring
	ErrNotFound = errors.New("credentials not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring is not available
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

func userFor(profile string) string {
	if profile == "" || profile == "default" {
		return constants.DefaultKeyringUser
	}
	return constants.DefaultKeyringUser + ":" + profile
}

// GetRefreshToken retrieves the identity provider refresh token for profile.
// Returns ErrNotFound if no token is stored.
func GetRefreshToken(profile string) (string, error) {
	token, err := keyring.Get(constants.AppName, userFor(profile))
	if err != nil {
		if err == keyring.ErrNotFound {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return token, nil
}

// SetRefreshToken stores the refresh token for profile in the OS keyring.
func SetRefreshToken(profile, token string) error {
	if token == "" {
		return errors.New("refresh token cannot be empty")
	}
	if err := keyring.Set(constants.AppName, userFor(profile), token); err != nil {
		return fmt.Errorf("failed to store credentials in keyring: %w", err)
	}
	return nil
}

// DeleteRefreshToken removes the refresh token for profile from the OS keyring.
func DeleteRefreshToken(profile string) error {
	err := keyring.Delete(constants.AppName, userFor(profile))
	if err != nil {
		if err == keyring.ErrNotFound {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete credentials from keyring: %w", err)
	}
	return nil
}

// IsAvailable checks if the OS keyring is available on the current system.
// This is a best-effort check and may not catch all failure scenarios.
func IsAvailable() bool {
	_, err := keyring.Get(constants.AppName, "test-availability")
	return err == nil || err == keyring.ErrNotFound
}
