package services

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/pbkdf2"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/jspark-dev/pantrykeeper/internal/common"
	"github.com/jspark-dev/pantrykeeper/internal/dbx"
	sc "github.com/jspark-dev/pantrykeeper/internal/server/config"
	"github.com/jspark-dev/pantrykeeper/internal/server/mail"
	"github.com/jspark-dev/pantrykeeper/internal/server/models"
	"github.com/jspark-dev/pantrykeeper/internal/server/repositories/repomanager"
	"github.com/jspark-dev/pantrykeeper/internal/validate"
)

const (
	passwordSaltLength = 16
	pbkdf2Iterations   = 100_000
	pbkdf2KeyLength    = 32
)

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
)

// UserService manages account lifecycle: registration against a verified
// email, credential validation, profile image uploads, and account deletion.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
	mail        mail.Sender
	namePolicy  *regexp.Regexp
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *sc.Config, sender mail.Sender) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		config:      cfg,
		mail:        sender,
		namePolicy:  regexp.MustCompile(cfg.NamePattern),
	}
}

func hashPassword(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, pbkdf2KeyLength, sha256.New)
}

// Register creates an account for an email that has completed verification.
// Input is validated in order: email format, password complexity, name
// policy, short-circuiting on the first failure.
func (s *UserService) Register(ctx context.Context, email, password, name string) (*models.User, error) {
	if !validate.Email(email) {
		return nil, fmt.Errorf("%w: email", common.ErrorInvalidInput)
	}
	if !validate.Password(password) {
		return nil, fmt.Errorf("%w: password", common.ErrorInvalidInput)
	}
	if !validate.Name(name, s.namePolicy) {
		return nil, fmt.Errorf("%w: name", common.ErrorInvalidInput)
	}

	users := s.repomanager.Users(s.db)

	taken, err := users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, storageFailure(err)
	}
	if taken {
		return nil, common.ErrorEmailTaken
	}

	rec, err := s.repomanager.Verifications(s.db).Get(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorVerificationRequired
		}
		return nil, storageFailure(err)
	}
	if !rec.Verified {
		return nil, common.ErrorVerificationRequired
	}

	uid, err := common.MakeRandHexString(common.TokenByteLength)
	if err != nil {
		return nil, fmt.Errorf("generating user id: %w", err)
	}

	salt := common.GenerateRandByteArray(passwordSaltLength)
	user := &models.User{
		ID:           uid,
		Email:        email,
		PasswordHash: hashPassword(password, salt),
		PasswordSalt: salt,
		Name:         name,
	}

	created, err := users.Create(ctx, user)
	if err != nil {
		return nil, storageFailure(err)
	}

	s.mail.SendWelcome(email, name)
	return created, nil
}

// Validate checks credentials. A missing account and a wrong password both
// produce ErrorInvalidCredentials so existence cannot be probed.
func (s *UserService) Validate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorInvalidCredentials
		}
		return nil, storageFailure(err)
	}
	candidate := hashPassword(password, user.PasswordSalt)
	if subtle.ConstantTimeCompare(user.PasswordHash, candidate) != 1 {
		return nil, common.ErrorInvalidCredentials
	}
	return user, nil
}

// GetInfo returns the account by its opaque ID.
func (s *UserService) GetInfo(ctx context.Context, uid string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, storageFailure(err)
	}
	return user, nil
}

// SetProfileURL stores the profile image URL for the account.
func (s *UserService) SetProfileURL(ctx context.Context, uid, url string) error {
	if err := s.repomanager.Users(s.db).SetProfileURL(ctx, uid, url); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return storageFailure(err)
	}
	return nil
}

// Delete re-validates credentials and then atomically deactivates every
// session, removes all owned food items, and deletes the account row.
// A goodbye email is sent best-effort afterwards.
func (s *UserService) Delete(ctx context.Context, email, password string) error {
	user, err := s.Validate(ctx, email, password)
	if err != nil {
		return err
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Sessions(tx).DeactivateAllForUser(ctx, user.ID); err != nil {
			return err
		}
		if err := s.repomanager.FoodItems(tx).DeleteByUser(ctx, user.ID); err != nil {
			return err
		}
		return s.repomanager.Users(tx).Delete(ctx, user.ID)
	})
	if err != nil {
		return storageFailure(err)
	}

	s.mail.SendGoodbye(email)
	return nil
}

func profileStorageKey(uid string) string {
	return fmt.Sprintf("profiles/%s/%v", uid, uuid.New())
}

func (s *UserService) getPresignClient() (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		awsconfig.WithRegion(s.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
	})

	return newS3PresignClient(client), nil
}

// ProfileUploadURL returns a storage key and a presigned PUT URL the client
// uploads the profile image to. The caller then registers the resulting
// object URL via SetProfileURL.
func (s *UserService) ProfileUploadURL(ctx context.Context, uid string) (string, string, error) {
	if _, err := s.GetInfo(ctx, uid); err != nil {
		return "", "", err
	}

	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", "", err
	}

	bucket := s.config.S3Bucket
	key := profileStorageKey(uid)

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", "", err
	}

	return key, req.URL, nil
}
