package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jspark-dev/pantrykeeper/internal/common"
	"github.com/jspark-dev/pantrykeeper/internal/dbx"
	"github.com/jspark-dev/pantrykeeper/internal/logging"
	"github.com/jspark-dev/pantrykeeper/internal/server/config"
	"github.com/jspark-dev/pantrykeeper/internal/server/models"
	"github.com/jspark-dev/pantrykeeper/internal/server/recipegen"
	"github.com/jspark-dev/pantrykeeper/internal/server/repositories/repomanager"
)

// Enqueuer is the pending-queue side the service hands accepted job IDs to.
type Enqueuer interface {
	Enqueue(jobID string)
}

// RecipeService accepts recipe generation jobs and runs the generation
// step the queue worker drains them through.
type RecipeService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	sessions    *SessionService
	gen         recipegen.Client
	queue       Enqueuer
	genTimeout  time.Duration
	log         logging.Logger
}

func NewRecipeService(db *sql.DB, m repomanager.RepositoryManager, sessions *SessionService, gen recipegen.Client, queue Enqueuer, cfg *config.Config, log logging.Logger) *RecipeService {
	return &RecipeService{
		db:          db,
		repomanager: m,
		sessions:    sessions,
		gen:         gen,
		queue:       queue,
		genTimeout:  cfg.GenerationTimeout,
		log:         log,
	}
}

// dedupe keeps the first occurrence of each ID and records its position in
// the original submission, so lookup failures report the index the caller
// actually sent.
func dedupe(ids []string) ([]string, map[string]int) {
	firstIdx := make(map[string]int, len(ids))
	out := make([]string, 0, len(ids))
	for i, id := range ids {
		if _, ok := firstIdx[id]; ok {
			continue
		}
		firstIdx[id] = i
		out = append(out, id)
	}
	return out, firstIdx
}

// SubmitJob validates the session and the item list, persists a queued job
// with its item associations, hands the ID to the pending queue, and
// returns the job in its queued state. Every referenced item must belong
// to the requesting user; the first offending reference aborts the call
// with its index.
func (s *RecipeService) SubmitJob(ctx context.Context, sid string, itemIDs []string) (*models.RecipeJob, error) {
	session, err := s.sessions.Resolve(ctx, sid)
	if err != nil {
		return nil, err
	}

	distinct, firstIdx := dedupe(itemIDs)
	if len(distinct) < models.MinJobItems || len(distinct) > models.MaxJobItems {
		return nil, fmt.Errorf("%w: between %d and %d distinct items required", common.ErrorInvalidInput, models.MinJobItems, models.MaxJobItems)
	}

	foods := s.repomanager.FoodItems(s.db)
	for _, fid := range distinct {
		_, err := foods.GetForUser(ctx, session.UserID, fid)
		if err == nil {
			continue
		}
		if !errors.Is(err, common.ErrorNotFound) {
			return nil, storageFailure(err)
		}
		exists, err := foods.Exists(ctx, fid)
		if err != nil {
			return nil, storageFailure(err)
		}
		if exists {
			return nil, &common.ItemLookupError{Index: firstIdx[fid], ItemID: fid, Err: common.ErrorForbidden}
		}
		return nil, &common.ItemLookupError{Index: firstIdx[fid], ItemID: fid, Err: common.ErrorNotFound}
	}

	rjid, err := common.MakeRandHexString(common.TokenByteLength)
	if err != nil {
		return nil, fmt.Errorf("generating job id: %w", err)
	}

	now := time.Now()
	job := &models.RecipeJob{
		ID:        rjid,
		UserID:    session.UserID,
		Status:    models.JobStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repomanager.RecipeJobs(tx).Create(ctx, job, distinct)
	})
	if err != nil {
		return nil, storageFailure(err)
	}

	s.queue.Enqueue(job.ID)
	return job, nil
}

// JobInfo returns the job plus its ordered item IDs. Jobs of other users
// and absent jobs are indistinguishable.
func (s *RecipeService) JobInfo(ctx context.Context, sid, rjid string) (*models.RecipeJob, []string, error) {
	session, err := s.sessions.Resolve(ctx, sid)
	if err != nil {
		return nil, nil, err
	}

	repo := s.repomanager.RecipeJobs(s.db)

	job, err := repo.GetForUser(ctx, session.UserID, rjid)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.ErrorNotFound
		}
		return nil, nil, storageFailure(err)
	}

	items, err := repo.ItemIDs(ctx, rjid)
	if err != nil {
		return nil, nil, storageFailure(err)
	}
	return job, items, nil
}

// Generate runs the generation step for one queued job. Generation
// failures are absorbed into the failed status so the worker loop can
// move on; only a job in an unexpected state is reported as an error.
func (s *RecipeService) Generate(ctx context.Context, rjid string) error {
	repo := s.repomanager.RecipeJobs(s.db)

	job, err := repo.Get(ctx, rjid)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return storageFailure(err)
	}
	if job.Status != models.JobStatusQueued {
		return fmt.Errorf("%w: job is %s", common.ErrorInvalidState, job.Status)
	}

	if err := repo.SetStatus(ctx, rjid, models.JobStatusCreating); err != nil {
		return storageFailure(err)
	}

	text, in, out, err := s.runGeneration(ctx, job)
	if err != nil {
		s.log.Warn(ctx, "recipe generation failed", "rjid", rjid, "error", err)
		if serr := repo.SetStatus(ctx, rjid, models.JobStatusFailed); serr != nil {
			return storageFailure(serr)
		}
		return nil
	}

	if err := repo.SetResult(ctx, rjid, text, in, out); err != nil {
		return storageFailure(err)
	}
	return nil
}

func (s *RecipeService) runGeneration(ctx context.Context, job *models.RecipeJob) (string, int64, int64, error) {
	itemIDs, err := s.repomanager.RecipeJobs(s.db).ItemIDs(ctx, job.ID)
	if err != nil {
		return "", 0, 0, err
	}

	foods := s.repomanager.FoodItems(s.db)
	items := make([]*models.FoodItem, 0, len(itemIDs))
	for _, fid := range itemIDs {
		item, err := foods.GetForUser(ctx, job.UserID, fid)
		if err != nil {
			return "", 0, 0, err
		}
		items = append(items, item)
	}

	prompt := buildPrompt(time.Now(), items)

	gctx, cancel := context.WithTimeout(ctx, s.genTimeout)
	defer cancel()

	g, err := s.gen.Generate(gctx, prompt)
	if err != nil {
		return "", 0, 0, err
	}
	return g.Text, int64(g.InputTokens), int64(g.OutputTokens), nil
}

// mealBand maps the hour of day to the meal the recipe should lean toward.
func mealBand(hour int) string {
	switch {
	case hour >= 6 && hour <= 10:
		return "breakfast"
	case hour >= 11 && hour <= 14:
		return "lunch"
	case hour >= 15 && hour <= 17:
		return "a light snack"
	case hour >= 18 && hour <= 21:
		return "dinner"
	default:
		return "a late-night meal"
	}
}

func buildPrompt(now time.Time, items []*models.FoodItem) string {
	var b strings.Builder

	fmt.Fprintf(&b, "It is currently %s, a good time for %s.\n", now.Format("15:04"), mealBand(now.Hour()))
	b.WriteString("Suggest a recipe using some of the following ingredients:\n")

	for _, item := range items {
		fmt.Fprintf(&b, "- %s (%s", item.Name, item.Type)
		if item.Volume.Valid && item.Volume.String != "" {
			fmt.Fprintf(&b, ", %s", item.Volume.String)
		}
		if item.Count > 1 {
			fmt.Fprintf(&b, ", x%d", item.Count)
		}
		if days := item.DaysRemaining(now); days >= 0 {
			fmt.Fprintf(&b, ", expires in %d days", days)
		} else {
			b.WriteString(", already past its date")
		}
		b.WriteString(")\n")
	}

	b.WriteString("Prefer ingredients closest to their expiration date. Reply with the recipe name, ingredient amounts, and numbered preparation steps.")
	return b.String()
}
