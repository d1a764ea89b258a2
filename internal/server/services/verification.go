// Package services contains the server-side business logic: email
// verification, accounts, sessions, and the recipe job queue. Services
// hold a *sql.DB plus the repository manager and run multi-step writes
// through dbx.WithTx.
package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jspark-dev/pantrykeeper/internal/common"
	"github.com/jspark-dev/pantrykeeper/internal/server/config"
	"github.com/jspark-dev/pantrykeeper/internal/server/mail"
	"github.com/jspark-dev/pantrykeeper/internal/server/repositories/repomanager"
	"github.com/jspark-dev/pantrykeeper/internal/validate"
)

const verificationCodeLength = 6

// storageFailure hides the raw driver error behind the storage sentinel.
// The detail stays in the message for logs but only common.ErrorStorage
// matches via errors.Is.
func storageFailure(err error) error {
	return fmt.Errorf("%w: %v", common.ErrorStorage, err)
}

// VerificationService implements the email verification lifecycle that
// precedes account creation: issue a short numeric code, verify it against
// submissions, and guard both with a cooldown and an attempt cap.
type VerificationService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	mail        mail.Sender
	cooldown    time.Duration
	codeTTL     time.Duration
	attemptCap  int
}

func NewVerificationService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, sender mail.Sender) *VerificationService {
	return &VerificationService{
		db:          db,
		repomanager: m,
		mail:        sender,
		cooldown:    cfg.CodeCooldown,
		codeTTL:     cfg.CodeTTL,
		attemptCap:  cfg.AttemptCap,
	}
}

// RequestCode issues a fresh 6-digit code for the email and sends it.
// Emails that already own an account fail with ErrorAlreadyRegistered.
// Re-requests inside the cooldown window fail with a RateLimitedError
// carrying the remaining wait.
func (s *VerificationService) RequestCode(ctx context.Context, email string) error {
	if !validate.Email(email) {
		return common.ErrorInvalidInput
	}

	taken, err := s.repomanager.Users(s.db).ExistsByEmail(ctx, email)
	if err != nil {
		return storageFailure(err)
	}
	if taken {
		return common.ErrorAlreadyRegistered
	}

	code, err := common.MakeRandDigits(verificationCodeLength)
	if err != nil {
		return fmt.Errorf("generating code: %w", err)
	}

	repo := s.repomanager.Verifications(s.db)

	rec, err := repo.Get(ctx, email)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			return storageFailure(err)
		}
		if err := repo.Create(ctx, email, code); err != nil {
			return storageFailure(err)
		}
		s.mail.SendVerificationCode(email, code)
		return nil
	}

	if age := rec.CodeAge(time.Now()); age < s.cooldown {
		return &common.RateLimitedError{Remaining: s.cooldown - age}
	}

	if err := repo.ResetCode(ctx, email, code); err != nil {
		return storageFailure(err)
	}
	s.mail.SendVerificationCode(email, code)
	return nil
}

// VerifyCode checks a submitted code. The attempt counter is incremented
// before the expiry and cap checks so rejected calls cannot keep the
// counter from advancing.
func (s *VerificationService) VerifyCode(ctx context.Context, email, submitted string) error {
	if !validate.Email(email) {
		return common.ErrorInvalidInput
	}

	repo := s.repomanager.Verifications(s.db)

	rec, err := repo.Get(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return storageFailure(err)
	}
	if rec.Verified {
		return common.ErrorAlreadyVerified
	}

	if err := repo.IncrementAttempts(ctx, email); err != nil {
		return storageFailure(err)
	}

	if rec.CodeAge(time.Now()) > s.codeTTL {
		return common.ErrorCodeExpired
	}
	if rec.AttemptCount >= s.attemptCap {
		return common.ErrorTooManyAttempts
	}
	if subtle.ConstantTimeCompare([]byte(rec.Code), []byte(submitted)) != 1 {
		return common.ErrorCodeMismatch
	}

	if err := repo.MarkVerified(ctx, email); err != nil {
		return storageFailure(err)
	}
	return nil
}
