package account

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/julianstephens/goaltrack/internal/auth"
	"github.com/julianstephens/goaltrack/internal/cli"
	"github.com/julianstephens/goaltrack/internal/constants"
)

// Identity is what whoami reports.
type Identity struct {
	Profile       string     `json:"profile" yaml:"profile"`
	UserID        string     `json:"user_id" yaml:"user_id"`
	Email         string     `json:"email,omitempty" yaml:"email,omitempty"`
	EmailVerified *bool      `json:"email_verified,omitempty" yaml:"email_verified,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
}

// WhoamiCmd shows the signed-in user.
type WhoamiCmd struct{}

func (cmd *WhoamiCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	session, err := ctx.Session(bg)
	if err != nil {
		return err
	}
	userID, err := session.UserID(bg)
	if err != nil {
		return err
	}

	id := Identity{Profile: ctx.Config.Profile, UserID: userID}
	if cp, ok := session.(auth.ClaimsProvider); ok {
		if claims, err := cp.Claims(bg); err == nil {
			id.Email = claims.Email
			verified := claims.EmailVerified
			id.EmailVerified = &verified
			if claims.ExpiresAt != nil {
				exp := claims.ExpiresAt.Time.In(ctx.Config.Location())
				id.ExpiresAt = &exp
			}
		}
	}

	return ctx.Render(id, func(w io.Writer) error {
		fmt.Fprintf(w, "Profile: %s\n", id.Profile)
		fmt.Fprintf(w, "User:    %s\n", id.UserID)
		if id.Email != "" {
			status := "verified"
			if id.EmailVerified != nil && !*id.EmailVerified {
				status = "not verified"
			}
			fmt.Fprintf(w, "Email:   %s (%s)\n", id.Email, status)
		}
		if id.ExpiresAt != nil {
			fmt.Fprintf(w, "Token expires: %s\n", id.ExpiresAt.Format(constants.DateFormat+" 15:04"))
		}
		return nil
	})
}
