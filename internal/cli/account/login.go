package account

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/julianstephens/goaltrack/internal/auth"
	"github.com/julianstephens/goaltrack/internal/cli"
	apperrors "github.com/julianstephens/goaltrack/internal/errors"
	"github.com/julianstephens/goaltrack/internal/forms"
	"github.com/julianstephens/goaltrack/internal/keyring"
	"github.com/julianstephens/goaltrack/internal/logger"
)

// RefreshTokenEnv supplies the refresh token non-interactively.
const RefreshTokenEnv = "GOALTRACK_REFRESH_TOKEN"

// LoginCmd stores an identity provider refresh token for the active profile.
type LoginCmd struct {
	Token    string `help:"Refresh token (read from GOALTRACK_REFRESH_TOKEN or prompted when omitted)."`
	NoVerify bool   `help:"Store the token without exchanging it first."`
}

func (cmd *LoginCmd) Run(ctx *cli.Context) error {
	token, err := cmd.readToken()
	if err != nil {
		return err
	}

	if err := keyring.SetRefreshToken(ctx.Config.Profile, token); err != nil {
		return apperrors.Wrap(apperrors.KindAuth, "login", err)
	}
	logger.Info("Stored refresh token", "profile", ctx.Config.Profile)

	if cmd.NoVerify {
		fmt.Fprintf(ctx.Out, "✓ Refresh token stored for profile %q\n", ctx.Config.Profile)
		return nil
	}

	bg := context.Background()
	session, err := ctx.Session(bg)
	if err != nil {
		return err
	}
	userID, err := session.UserID(bg)
	if err != nil {
		// A token the provider rejects must not linger in the keyring.
		if delErr := keyring.DeleteRefreshToken(ctx.Config.Profile); delErr != nil {
			logger.Warn("Failed to remove rejected refresh token", "error", delErr)
		}
		return err
	}

	if state, err := ctx.State(); err == nil {
		if err := state.RememberUser(userID); err != nil {
			logger.Warn("Failed to remember user", "error", err)
		}
	}

	fmt.Fprintf(ctx.Out, "✓ Signed in as %s\n", userID)
	if cp, ok := session.(auth.ClaimsProvider); ok {
		if claims, err := cp.Claims(bg); err == nil && claims.Email != "" && !claims.EmailVerified {
			fmt.Fprintf(ctx.Out, "⚠ %s is not verified yet. Check your inbox for the verification link.\n", claims.Email)
		}
	}
	return nil
}

func (cmd *LoginCmd) readToken() (string, error) {
	if t := strings.TrimSpace(cmd.Token); t != "" {
		return t, nil
	}
	if t := strings.TrimSpace(os.Getenv(RefreshTokenEnv)); t != "" {
		return t, nil
	}

	fm := &forms.TokenFormModel{}
	if err := forms.NewTokenForm(fm).Run(); err != nil {
		return "", apperrors.Wrap(apperrors.KindValidation, "login", err)
	}
	t := strings.TrimSpace(fm.RefreshToken)
	if t == "" {
		return "", apperrors.Validation("login", "a refresh token is required")
	}
	return t, nil
}

// LogoutCmd removes the stored refresh token.
type LogoutCmd struct {
	Forget bool `help:"Also delete locally stored flags and month snapshots for this user."`
}

func (cmd *LogoutCmd) Run(ctx *cli.Context) error {
	profile := ctx.Config.Profile

	if cmd.Forget {
		if err := cmd.forget(ctx); err != nil {
			return err
		}
	}

	if err := keyring.DeleteRefreshToken(profile); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			fmt.Fprintf(ctx.Out, "⊘ Profile %q was not signed in\n", profile)
			return nil
		}
		return apperrors.Wrap(apperrors.KindAuth, "logout", err)
	}
	fmt.Fprintf(ctx.Out, "✓ Signed out of profile %q\n", profile)
	return nil
}

// forget resolves the user before the token is gone, falling back to the
// last remembered user when the session cannot be refreshed.
func (cmd *LogoutCmd) forget(ctx *cli.Context) error {
	state, err := ctx.State()
	if err != nil {
		return err
	}
	userID, err := ctx.UserID(context.Background())
	if err != nil {
		logger.Debug("Falling back to last user for logout", "error", err)
		last, ok, lerr := state.LastUser()
		if lerr != nil {
			return lerr
		}
		if !ok {
			fmt.Fprintln(ctx.Out, "⊘ No local data to forget")
			return nil
		}
		userID = last
	}
	n, err := state.Forget(userID)
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "✓ Removed %d local entries\n", n)
	return nil
}
