package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jspark-dev/pantrykeeper/internal/common"
	"github.com/jspark-dev/pantrykeeper/internal/dbx"
	"github.com/jspark-dev/pantrykeeper/internal/server/config"
	"github.com/jspark-dev/pantrykeeper/internal/server/mail"
	"github.com/jspark-dev/pantrykeeper/internal/server/models"
	"github.com/jspark-dev/pantrykeeper/internal/server/repositories/repomanager"
	"github.com/jspark-dev/pantrykeeper/internal/validate"
)

// SessionService issues and manages bearer sessions. Expiry is detected
// lazily on read; the rotation cap keeps at most SessionCap active
// sessions per user.
type SessionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	users       *UserService
	mail        mail.Sender
	ttl         time.Duration
	cap         int
}

func NewSessionService(db *sql.DB, m repomanager.RepositoryManager, users *UserService, cfg *config.Config, sender mail.Sender) *SessionService {
	return &SessionService{
		db:          db,
		repomanager: m,
		users:       users,
		mail:        sender,
		ttl:         cfg.SessionTTL,
		cap:         cfg.SessionCap,
	}
}

// Create logs the user in. Input format is checked before any storage
// access; the credential check deliberately returns the same error for a
// missing account and a wrong password. The insert and the rotation-cap
// enforcement run in one transaction so concurrent logins cannot leave
// more than the cap active.
func (s *SessionService) Create(ctx context.Context, email, password, userAgent, clientIP string) (*models.Session, error) {
	if !validate.Email(email) {
		return nil, fmt.Errorf("%w: email", common.ErrorInvalidInput)
	}
	if !validate.Password(password) {
		return nil, fmt.Errorf("%w: password", common.ErrorInvalidInput)
	}

	user, err := s.users.Validate(ctx, email, password)
	if err != nil {
		return nil, err
	}

	sid, err := common.MakeRandHexString(common.TokenByteLength)
	if err != nil {
		return nil, fmt.Errorf("generating session id: %w", err)
	}

	now := time.Now()
	session := &models.Session{
		ID:             sid,
		UserID:         user.ID,
		UserAgent:      userAgent,
		ClientIP:       clientIP,
		Active:         true,
		ExpiresAt:      now.Add(s.ttl),
		LastAccessedAt: now,
		CreatedAt:      now,
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Sessions(tx)
		if err := repo.Create(ctx, session); err != nil {
			return err
		}
		return repo.DeactivateBeyondNewest(ctx, user.ID, s.cap)
	})
	if err != nil {
		return nil, storageFailure(err)
	}

	// Delivery is queued; a failed alert never fails the login.
	s.mail.SendLoginAlert(email, userAgent, clientIP)

	return session, nil
}

// GetInfo returns the session attributes. Reading a session past its
// expiry flips it inactive as a side effect and reports ErrorExpired.
func (s *SessionService) GetInfo(ctx context.Context, sid string) (*models.Session, error) {
	repo := s.repomanager.Sessions(s.db)

	session, err := repo.Get(ctx, sid)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, storageFailure(err)
	}

	if session.ExpiredAt(time.Now()) {
		if session.Active {
			if err := repo.MarkInactive(ctx, sid); err != nil {
				return nil, storageFailure(err)
			}
			session.Active = false
		}
		return nil, common.ErrorExpired
	}

	return session, nil
}

// Resolve authenticates a request: the session must exist, be active, and
// be unexpired. The last-access timestamp is touched on success.
func (s *SessionService) Resolve(ctx context.Context, sid string) (*models.Session, error) {
	session, err := s.GetInfo(ctx, sid)
	if err != nil {
		return nil, err
	}
	if !session.Active {
		return nil, common.ErrorUnauthorized
	}
	if err := s.repomanager.Sessions(s.db).TouchLastAccessed(ctx, sid); err != nil {
		return nil, storageFailure(err)
	}
	return session, nil
}

// List returns every session of the acting session's user, newest first.
func (s *SessionService) List(ctx context.Context, sid string) ([]*models.Session, error) {
	acting, err := s.Resolve(ctx, sid)
	if err != nil {
		return nil, err
	}
	sessions, err := s.repomanager.Sessions(s.db).ListByUser(ctx, acting.UserID)
	if err != nil {
		return nil, storageFailure(err)
	}
	return sessions, nil
}

// Deactivate logs the session out. Repeating the call fails with
// ErrorAlreadyInactive; there is no reactivation path.
func (s *SessionService) Deactivate(ctx context.Context, sid string) error {
	repo := s.repomanager.Sessions(s.db)

	session, err := repo.Get(ctx, sid)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return storageFailure(err)
	}
	if !session.Active {
		return common.ErrorAlreadyInactive
	}
	if err := repo.MarkInactive(ctx, sid); err != nil {
		return storageFailure(err)
	}
	return nil
}
