package services

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/jspark-dev/pantrykeeper/internal/common"
	"github.com/jspark-dev/pantrykeeper/internal/dbx"
	"github.com/jspark-dev/pantrykeeper/internal/logging"
	"github.com/jspark-dev/pantrykeeper/internal/server/config"
	"github.com/jspark-dev/pantrykeeper/internal/server/models"
	"github.com/jspark-dev/pantrykeeper/internal/server/recipegen"
	"github.com/jspark-dev/pantrykeeper/internal/server/repositories/fooditems"
	"github.com/jspark-dev/pantrykeeper/internal/server/repositories/recipejobs"
	"github.com/jspark-dev/pantrykeeper/internal/server/repositories/sessions"
	"github.com/jspark-dev/pantrykeeper/internal/server/repositories/users"
	"github.com/jspark-dev/pantrykeeper/internal/server/repositories/verifications"
)

// In-memory fakes for the repository interfaces. The DBTX handed to the
// fake manager is ignored; transactions are exercised against sqlmock at
// the Begin/Commit level only.

type fakeVerifications struct {
	records map[string]*models.VerificationRecord
	err     error
}

func newFakeVerifications() *fakeVerifications {
	return &fakeVerifications{records: make(map[string]*models.VerificationRecord)}
}

func (f *fakeVerifications) Get(ctx context.Context, email string) (*models.VerificationRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	rec, ok := f.records[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeVerifications) Create(ctx context.Context, email, code string) error {
	if f.err != nil {
		return f.err
	}
	now := time.Now()
	f.records[email] = &models.VerificationRecord{
		Email: email, Code: code, CreatedAt: now, UpdatedAt: now,
	}
	return nil
}

func (f *fakeVerifications) ResetCode(ctx context.Context, email, code string) error {
	if f.err != nil {
		return f.err
	}
	rec := f.records[email]
	rec.Code = code
	rec.Verified = false
	rec.AttemptCount = 0
	rec.CreatedAt = time.Now()
	rec.UpdatedAt = rec.CreatedAt
	return nil
}

func (f *fakeVerifications) IncrementAttempts(ctx context.Context, email string) error {
	if f.err != nil {
		return f.err
	}
	rec := f.records[email]
	rec.AttemptCount++
	rec.UpdatedAt = time.Now()
	return nil
}

func (f *fakeVerifications) MarkVerified(ctx context.Context, email string) error {
	if f.err != nil {
		return f.err
	}
	f.records[email].Verified = true
	return nil
}

type fakeUsers struct {
	users map[string]*models.User
	err   error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[string]*models.User)}
}

func (f *fakeUsers) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	cp := *user
	cp.CreatedAt = time.Now()
	f.users[user.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsers) GetByID(ctx context.Context, uid string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[uid]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	for _, u := range f.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUsers) SetProfileURL(ctx context.Context, uid, url string) error {
	if f.err != nil {
		return f.err
	}
	u, ok := f.users[uid]
	if !ok {
		return common.ErrorNotFound
	}
	u.ProfileURL = sql.NullString{String: url, Valid: true}
	return nil
}

func (f *fakeUsers) Delete(ctx context.Context, uid string) error {
	if f.err != nil {
		return f.err
	}
	delete(f.users, uid)
	return nil
}

type fakeSessions struct {
	sessions map[string]*models.Session
	err      error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: make(map[string]*models.Session)}
}

func (f *fakeSessions) Create(ctx context.Context, session *models.Session) error {
	if f.err != nil {
		return f.err
	}
	cp := *session
	f.sessions[session.ID] = &cp
	return nil
}

func (f *fakeSessions) Get(ctx context.Context, sid string) (*models.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.sessions[sid]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSessions) byUserNewestFirst(uid string) []*models.Session {
	var out []*models.Session
	for _, s := range f.sessions {
		if s.UserID == uid {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (f *fakeSessions) ListByUser(ctx context.Context, uid string) ([]*models.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*models.Session
	for _, s := range f.byUserNewestFirst(uid) {
		cp := *s
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeSessions) MarkInactive(ctx context.Context, sid string) error {
	if f.err != nil {
		return f.err
	}
	s, ok := f.sessions[sid]
	if !ok {
		return common.ErrorNotFound
	}
	s.Active = false
	return nil
}

func (f *fakeSessions) DeactivateBeyondNewest(ctx context.Context, uid string, keep int) error {
	if f.err != nil {
		return f.err
	}
	all := f.byUserNewestFirst(uid)
	for i, s := range all {
		if i >= keep {
			s.Active = false
		}
	}
	return nil
}

func (f *fakeSessions) DeactivateAllForUser(ctx context.Context, uid string) error {
	if f.err != nil {
		return f.err
	}
	for _, s := range f.sessions {
		if s.UserID == uid {
			s.Active = false
		}
	}
	return nil
}

func (f *fakeSessions) TouchLastAccessed(ctx context.Context, sid string) error {
	if f.err != nil {
		return f.err
	}
	if s, ok := f.sessions[sid]; ok {
		s.LastAccessedAt = time.Now()
	}
	return nil
}

type fakeFoodItems struct {
	items map[string]*models.FoodItem
	err   error
}

func newFakeFoodItems() *fakeFoodItems {
	return &fakeFoodItems{items: make(map[string]*models.FoodItem)}
}

func (f *fakeFoodItems) GetForUser(ctx context.Context, uid, fid string) (*models.FoodItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	item, ok := f.items[fid]
	if !ok || item.UserID != uid {
		return nil, common.ErrorNotFound
	}
	cp := *item
	return &cp, nil
}

func (f *fakeFoodItems) Exists(ctx context.Context, fid string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	_, ok := f.items[fid]
	return ok, nil
}

func (f *fakeFoodItems) DeleteByUser(ctx context.Context, uid string) error {
	if f.err != nil {
		return f.err
	}
	for fid, item := range f.items {
		if item.UserID == uid {
			delete(f.items, fid)
		}
	}
	return nil
}

type fakeRecipeJobs struct {
	jobs  map[string]*models.RecipeJob
	items map[string][]string
	err   error
}

func newFakeRecipeJobs() *fakeRecipeJobs {
	return &fakeRecipeJobs{jobs: make(map[string]*models.RecipeJob), items: make(map[string][]string)}
}

func (f *fakeRecipeJobs) Create(ctx context.Context, job *models.RecipeJob, itemIDs []string) error {
	if f.err != nil {
		return f.err
	}
	cp := *job
	f.jobs[job.ID] = &cp
	f.items[job.ID] = append([]string(nil), itemIDs...)
	return nil
}

func (f *fakeRecipeJobs) Get(ctx context.Context, rjid string) (*models.RecipeJob, error) {
	if f.err != nil {
		return nil, f.err
	}
	job, ok := f.jobs[rjid]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *job
	return &cp, nil
}

func (f *fakeRecipeJobs) GetForUser(ctx context.Context, uid, rjid string) (*models.RecipeJob, error) {
	job, err := f.Get(ctx, rjid)
	if err != nil {
		return nil, err
	}
	if job.UserID != uid {
		return nil, common.ErrorNotFound
	}
	return job, nil
}

func (f *fakeRecipeJobs) ItemIDs(ctx context.Context, rjid string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return append([]string(nil), f.items[rjid]...), nil
}

func (f *fakeRecipeJobs) SetStatus(ctx context.Context, rjid string, status models.JobStatus) error {
	if f.err != nil {
		return f.err
	}
	job, ok := f.jobs[rjid]
	if !ok {
		return common.ErrorNotFound
	}
	job.Status = status
	job.UpdatedAt = time.Now()
	return nil
}

func (f *fakeRecipeJobs) SetResult(ctx context.Context, rjid, text string, inputTokens, outputTokens int64) error {
	if f.err != nil {
		return f.err
	}
	job, ok := f.jobs[rjid]
	if !ok {
		return common.ErrorNotFound
	}
	job.Status = models.JobStatusCompleted
	job.GeneratedText = sql.NullString{String: text, Valid: true}
	job.InputTokens = inputTokens
	job.OutputTokens = outputTokens
	job.UpdatedAt = time.Now()
	return nil
}

type fakeRepoManager struct {
	verifications *fakeVerifications
	users         *fakeUsers
	sessions      *fakeSessions
	foodItems     *fakeFoodItems
	recipeJobs    *fakeRecipeJobs
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		verifications: newFakeVerifications(),
		users:         newFakeUsers(),
		sessions:      newFakeSessions(),
		foodItems:     newFakeFoodItems(),
		recipeJobs:    newFakeRecipeJobs(),
	}
}

func (f *fakeRepoManager) Verifications(db dbx.DBTX) verifications.Repository { return f.verifications }
func (f *fakeRepoManager) Users(db dbx.DBTX) users.Repository                { return f.users }
func (f *fakeRepoManager) Sessions(db dbx.DBTX) sessions.Repository          { return f.sessions }
func (f *fakeRepoManager) FoodItems(db dbx.DBTX) fooditems.Repository        { return f.foodItems }
func (f *fakeRepoManager) RecipeJobs(db dbx.DBTX) recipejobs.Repository      { return f.recipeJobs }
func (f *fakeRepoManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return nil
}

type mailCall struct {
	kind string
	to   string
	args []string
}

type fakeMailSender struct {
	calls []mailCall
}

func (f *fakeMailSender) SendVerificationCode(to, code string) {
	f.calls = append(f.calls, mailCall{kind: "code", to: to, args: []string{code}})
}

func (f *fakeMailSender) SendWelcome(to, name string) {
	f.calls = append(f.calls, mailCall{kind: "welcome", to: to, args: []string{name}})
}

func (f *fakeMailSender) SendLoginAlert(to, userAgent, ipAddress string) {
	f.calls = append(f.calls, mailCall{kind: "login", to: to, args: []string{userAgent, ipAddress}})
}

func (f *fakeMailSender) SendGoodbye(to string) {
	f.calls = append(f.calls, mailCall{kind: "goodbye", to: to})
}

func (f *fakeMailSender) last() *mailCall {
	if len(f.calls) == 0 {
		return nil
	}
	return &f.calls[len(f.calls)-1]
}

type fakeGenClient struct {
	result  *recipegen.Generation
	err     error
	prompts []string
}

func (f *fakeGenClient) Generate(ctx context.Context, prompt string) (*recipegen.Generation, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeQueue struct {
	enqueued []string
}

func (f *fakeQueue) Enqueue(jobID string) {
	f.enqueued = append(f.enqueued, jobID)
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	return cfg
}

// newMockDB returns a sqlmock database used only for transaction
// bracketing. Tests add ExpectBegin/ExpectCommit pairs as needed.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}
