package account

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"ratemyfit/core/mail"
	"ratemyfit/logger"
	"ratemyfit/model"
	"ratemyfit/repository"
)

var (
	// ErrCodeInvalid is returned for a mismatched or unknown code.
	ErrCodeInvalid = errors.New("verification code invalid")
	// ErrCodeExpired is returned for a correct but stale code. The code is
	// left in place; only a successful verification consumes it.
	ErrCodeExpired = errors.New("verification code expired")
)

// codeTTL is how long a mailed verification code stays valid.
const codeTTL = 15 * time.Minute

// Verifier issues and confirms email verification codes for the
// local-credential flow.
type Verifier struct {
	users  repository.UserRepository
	codes  repository.VerificationRepository
	mailer mail.Sender
}

// NewVerifier creates a Verifier.
func NewVerifier(users repository.UserRepository, codes repository.VerificationRepository, mailer mail.Sender) *Verifier {
	return &Verifier{users: users, codes: codes, mailer: mailer}
}

// Issue generates a fresh 6-digit code for the email, invalidating any prior
// pending codes, and mails it. Called at registration and on resend.
func (v *Verifier) Issue(ctx context.Context, email string) error {
	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("generate verification code: %w", err)
	}

	if err := v.codes.DeleteByEmail(ctx, email); err != nil {
		return err
	}
	rec := &model.VerificationCode{
		Email:     email,
		Code:      code,
		ExpiresAt: time.Now().Add(codeTTL),
	}
	if err := v.codes.CreateCode(ctx, rec); err != nil {
		return err
	}

	body := fmt.Sprintf(
		"Welcome to Rate My Fit!\n\nYour verification code is:\n\n  %s\n\nIt expires in 15 minutes. If you did not sign up, ignore this email.\n",
		code,
	)
	if err := v.mailer.Send(ctx, email, "Verify your Rate My Fit email", body); err != nil {
		// The code is stored; the user can hit resend.
		logger.Warn("failed to send verification email", logger.String("email", email), logger.ErrorField(err))
	}
	return nil
}

// Confirm checks a submitted code. A correct, unexpired code marks the user's
// email verified and deletes the code; expired or mismatched codes mutate
// nothing, so repeating a consumed code fails with not-found.
func (v *Verifier) Confirm(ctx context.Context, email, code string) error {
	rec, err := v.codes.GetByEmailAndCode(ctx, email, code)
	if err != nil {
		if errors.Is(err, repository.ErrCodeNotFound) {
			return ErrCodeInvalid
		}
		return err
	}
	if rec.Expired(time.Now()) {
		return ErrCodeExpired
	}

	user, err := v.users.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrCodeInvalid
	}
	if err := v.users.SetEmailVerified(ctx, user.ID); err != nil {
		return err
	}
	if err := v.codes.DeleteCode(ctx, rec.ID); err != nil {
		// Verified but not consumed: the sweep will collect it at expiry.
		logger.Warn("failed to delete consumed verification code", logger.ErrorField(err))
	}
	logger.Info("email verified", logger.Int64("userId", user.ID))
	return nil
}

// SweepExpired drops codes past their expiry. Confirm never deletes on
// expiry, so without the sweep stale rows accumulate forever.
func (v *Verifier) SweepExpired(ctx context.Context) {
	n, err := v.codes.DeleteExpired(ctx, time.Now())
	if err != nil {
		logger.Warn("verification code sweep failed", logger.ErrorField(err))
		return
	}
	if n > 0 {
		logger.Info("swept expired verification codes", logger.Int64("count", n))
	}
}

// SweepLoop runs SweepExpired on the given interval until ctx is cancelled.
func (v *Verifier) SweepLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			v.SweepExpired(ctx)
		}
	}
}

// generateCode returns a uniformly random 6-digit numeric string.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
