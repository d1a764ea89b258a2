package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jspark-dev/pantrykeeper/internal/common"
	"github.com/jspark-dev/pantrykeeper/internal/server/models"
	"github.com/jspark-dev/pantrykeeper/internal/server/recipegen"
)

type recipeHarness struct {
	svc     *RecipeService
	rm      *fakeRepoManager
	gen     *fakeGenClient
	queue   *fakeQueue
	mock    sqlmock.Sqlmock
	session *models.Session
}

func newRecipeHarness(t *testing.T) *recipeHarness {
	t.Helper()
	db, mock := newMockDB(t)
	rm := newFakeRepoManager()
	sender := &fakeMailSender{}
	cfg := testConfig()

	users := NewUserService(db, rm, cfg, sender)
	sessions := NewSessionService(db, rm, users, cfg, sender)

	markVerified(rm, testEmail)
	user, err := users.Register(context.Background(), testEmail, testPassword, testName)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectCommit()
	session, err := sessions.Create(context.Background(), testEmail, testPassword, "ua", "ip")
	require.NoError(t, err)

	gen := &fakeGenClient{result: &recipegen.Generation{Text: "Omelette", InputTokens: 10, OutputTokens: 20}}
	queue := &fakeQueue{}
	svc := NewRecipeService(db, rm, sessions, gen, queue, cfg, testLogger())

	h := &recipeHarness{svc: svc, rm: rm, gen: gen, queue: queue, mock: mock, session: session}
	h.addFood(user.ID, "f1", "eggs")
	h.addFood(user.ID, "f2", "rice")
	h.addFood(user.ID, "f3", "milk")
	return h
}

func (h *recipeHarness) addFood(uid, fid, name string) {
	h.rm.foodItems.items[fid] = &models.FoodItem{
		ID: fid, UserID: uid, Name: name, Type: "ingredient",
		Count: 1, ExpiresAt: time.Now().Add(72 * time.Hour),
	}
}

func (h *recipeHarness) submit(t *testing.T, itemIDs ...string) (*models.RecipeJob, error) {
	t.Helper()
	h.mock.ExpectBegin()
	h.mock.ExpectCommit()
	return h.svc.SubmitJob(context.Background(), h.session.ID, itemIDs)
}

func TestSubmitJob(t *testing.T) {
	h := newRecipeHarness(t)

	job, err := h.submit(t, "f1", "f2")
	require.NoError(t, err)

	assert.Equal(t, models.JobStatusQueued, job.Status)
	assert.Equal(t, h.session.UserID, job.UserID)
	assert.Equal(t, []string{job.ID}, h.queue.enqueued)
	assert.Equal(t, []string{"f1", "f2"}, h.rm.recipeJobs.items[job.ID])
}

func TestSubmitJob_DeduplicatesPreservingOrder(t *testing.T) {
	h := newRecipeHarness(t)

	job, err := h.submit(t, "f2", "f1", "f2", "f1")
	require.NoError(t, err)
	assert.Equal(t, []string{"f2", "f1"}, h.rm.recipeJobs.items[job.ID])
}

func TestSubmitJob_ItemCountBounds(t *testing.T) {
	h := newRecipeHarness(t)
	ctx := context.Background()

	_, err := h.svc.SubmitJob(ctx, h.session.ID, []string{"f1"})
	assert.ErrorIs(t, err, common.ErrorInvalidInput)

	// A single repeated ID is one distinct item.
	_, err = h.svc.SubmitJob(ctx, h.session.ID, []string{"f1", "f1", "f1"})
	assert.ErrorIs(t, err, common.ErrorInvalidInput)

	many := make([]string, 11)
	for i := range many {
		many[i] = "x" + string(rune('a'+i))
	}
	_, err = h.svc.SubmitJob(ctx, h.session.ID, many)
	assert.ErrorIs(t, err, common.ErrorInvalidInput)
	assert.Empty(t, h.rm.recipeJobs.jobs, "no partial job persisted")
}

func TestSubmitJob_ItemNotFoundReportsIndex(t *testing.T) {
	h := newRecipeHarness(t)

	_, err := h.svc.SubmitJob(context.Background(), h.session.ID, []string{"f1", "ghost"})
	require.ErrorIs(t, err, common.ErrorNotFound)

	var lookup *common.ItemLookupError
	require.True(t, errors.As(err, &lookup))
	assert.Equal(t, 1, lookup.Index)
	assert.Equal(t, "ghost", lookup.ItemID)
}

func TestSubmitJob_IndexCountsDuplicates(t *testing.T) {
	h := newRecipeHarness(t)

	// "ghost" is third as submitted even though dedup makes it second.
	_, err := h.svc.SubmitJob(context.Background(), h.session.ID, []string{"f1", "f1", "ghost"})
	require.ErrorIs(t, err, common.ErrorNotFound)

	var lookup *common.ItemLookupError
	require.True(t, errors.As(err, &lookup))
	assert.Equal(t, 2, lookup.Index)
	assert.Equal(t, "ghost", lookup.ItemID)
}

func TestSubmitJob_ForeignItemForbidden(t *testing.T) {
	h := newRecipeHarness(t)
	h.addFood("someone-else", "theirs", "cheese")

	_, err := h.svc.SubmitJob(context.Background(), h.session.ID, []string{"theirs", "f1"})
	require.ErrorIs(t, err, common.ErrorForbidden)

	var lookup *common.ItemLookupError
	require.True(t, errors.As(err, &lookup))
	assert.Equal(t, 0, lookup.Index)
	assert.Equal(t, "theirs", lookup.ItemID)
}

func TestSubmitJob_InvalidSession(t *testing.T) {
	h := newRecipeHarness(t)

	_, err := h.svc.SubmitJob(context.Background(), "missing", []string{"f1", "f2"})
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestJobInfo(t *testing.T) {
	h := newRecipeHarness(t)
	job, err := h.submit(t, "f1", "f3")
	require.NoError(t, err)

	got, items, err := h.svc.JobInfo(context.Background(), h.session.ID, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, []string{"f1", "f3"}, items)
}

func TestJobInfo_ForeignJobIndistinguishableFromAbsent(t *testing.T) {
	h := newRecipeHarness(t)
	h.rm.recipeJobs.jobs["other"] = &models.RecipeJob{ID: "other", UserID: "someone-else", Status: models.JobStatusQueued}

	_, _, errForeign := h.svc.JobInfo(context.Background(), h.session.ID, "other")
	_, _, errAbsent := h.svc.JobInfo(context.Background(), h.session.ID, "nope")

	assert.ErrorIs(t, errForeign, common.ErrorNotFound)
	assert.ErrorIs(t, errAbsent, common.ErrorNotFound)
	assert.Equal(t, errForeign.Error(), errAbsent.Error())
}

func TestGenerate(t *testing.T) {
	h := newRecipeHarness(t)
	job, err := h.submit(t, "f1", "f2")
	require.NoError(t, err)

	require.NoError(t, h.svc.Generate(context.Background(), job.ID))

	stored := h.rm.recipeJobs.jobs[job.ID]
	assert.Equal(t, models.JobStatusCompleted, stored.Status)
	assert.Equal(t, "Omelette", stored.GeneratedText.String)
	assert.Equal(t, int64(10), stored.InputTokens)
	assert.Equal(t, int64(20), stored.OutputTokens)

	require.Len(t, h.gen.prompts, 1)
	assert.Contains(t, h.gen.prompts[0], "eggs")
	assert.Contains(t, h.gen.prompts[0], "rice")
}

func TestGenerate_InvalidState(t *testing.T) {
	h := newRecipeHarness(t)
	job, err := h.submit(t, "f1", "f2")
	require.NoError(t, err)

	require.NoError(t, h.svc.Generate(context.Background(), job.ID))

	err = h.svc.Generate(context.Background(), job.ID)
	assert.ErrorIs(t, err, common.ErrorInvalidState)
}

func TestGenerate_FailureIsAbsorbed(t *testing.T) {
	h := newRecipeHarness(t)
	h.gen.err = errors.New("quota exceeded")

	job, err := h.submit(t, "f1", "f2")
	require.NoError(t, err)

	// The worker loop relies on per-job failures not surfacing as errors.
	require.NoError(t, h.svc.Generate(context.Background(), job.ID))
	assert.Equal(t, models.JobStatusFailed, h.rm.recipeJobs.jobs[job.ID].Status)
}

func TestGenerate_UnknownJob(t *testing.T) {
	h := newRecipeHarness(t)

	err := h.svc.Generate(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestMealBand(t *testing.T) {
	tests := []struct {
		hour int
		want string
	}{
		{6, "breakfast"}, {10, "breakfast"},
		{11, "lunch"}, {14, "lunch"},
		{15, "a light snack"}, {17, "a light snack"},
		{18, "dinner"}, {21, "dinner"},
		{22, "a late-night meal"}, {2, "a late-night meal"}, {5, "a late-night meal"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, mealBand(tt.hour), "hour %d", tt.hour)
	}
}

func TestBuildPrompt(t *testing.T) {
	now := time.Date(2026, 3, 1, 19, 30, 0, 0, time.UTC)
	items := []*models.FoodItem{
		{Name: "eggs", Type: "dairy", Count: 12, ExpiresAt: now.Add(48 * time.Hour)},
		{Name: "spinach", Type: "vegetable", Count: 1, ExpiresAt: now.Add(-24 * time.Hour)},
	}

	prompt := buildPrompt(now, items)

	assert.Contains(t, prompt, "dinner")
	assert.Contains(t, prompt, "eggs")
	assert.Contains(t, prompt, "x12")
	assert.Contains(t, prompt, "expires in 2 days")
	assert.Contains(t, prompt, "already past its date")
}
