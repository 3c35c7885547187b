package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/stemsi/qbank-backend/internal/apperror"
	"github.com/stemsi/qbank-backend/internal/model"
)

// ─── Questions ──────────────────────────────────────────────────────

// QuestionRepo implements service.QuestionStore.
type QuestionRepo struct{ db *DB }

// Questions returns the question store view of db.
func (db *DB) Questions() *QuestionRepo { return &QuestionRepo{db: db} }

func (r *QuestionRepo) Create(_ context.Context, in model.QuestionInput) (*model.Question, error) {
	db := r.db
	db.mu.Lock()
	defer db.mu.Unlock()
	if err := db.fault("questions.Create"); err != nil {
		return nil, err
	}

	db.st.nextQuestionID++
	now := db.Now()
	q := model.Question{
		ID:             db.st.nextQuestionID,
		Content:        in.Content,
		Options:        slices.Clone(in.Options),
		CorrectAnswers: slices.Clone(in.CorrectAnswers),
		Status:         model.QuestionStatusPendingReview,
		CreatedBy:      in.AuthorID,
		CompanyID:      in.CompanyID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	db.st.questions[q.ID] = q
	return &q, nil
}

func (r *QuestionRepo) FindByID(_ context.Context, id, companyID int64) (*model.Question, error) {
	db := r.db
	db.mu.Lock()
	defer db.mu.Unlock()
	q, ok := db.st.questions[id]
	if !ok || q.CompanyID != companyID {
		return nil, apperror.NotFound("question not found")
	}
	return &q, nil
}

func (r *QuestionRepo) List(_ context.Context, f model.QuestionFilter, viewerID int64) ([]model.QuestionView, int, error) {
	db := r.db
	db.mu.Lock()
	defer db.mu.Unlock()

	var matched []model.Question
	for _, q := range db.st.questions {
		if q.CompanyID != f.CompanyID {
			continue
		}
		if f.Status != "" && q.Status != f.Status {
			continue
		}
		if f.CategoryID > 0 && !slices.Contains(db.st.links[q.ID], f.CategoryID) {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(q.Content), strings.ToLower(f.Search)) {
			continue
		}
		matched = append(matched, q)
	}

	slices.SortFunc(matched, func(a, b model.Question) int {
		var c int
		switch f.SortBy {
		case "score":
			c = cmp.Compare(a.Score, b.Score)
		case "status":
			c = cmp.Compare(a.Status, b.Status)
		default:
			c = a.CreatedAt.Compare(b.CreatedAt)
		}
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		if f.SortOrder == "ASC" {
			return c
		}
		return -c
	})

	total := len(matched)
	start := min(f.Offset(), total)
	end := min(start+f.Limit, total)

	views := make([]model.QuestionView, 0, end-start)
	for _, q := range matched[start:end] {
		v := model.QuestionView{
			Question:   q,
			AuthorName: db.st.users[q.CreatedBy].Name,
			Categories: db.categoryNames(q.ID),
			Votes:      db.tally(q.ID),
		}
		if vt, ok := db.st.votes[voteKey{q.ID, viewerID}]; ok {
			v.UserVote = &vt
		}
		views = append(views, v)
	}
	return views, total, nil
}

func (r *QuestionRepo) Update(_ context.Context, id int64, p model.QuestionPatch) (*model.Question, error) {
	db := r.db
	db.mu.Lock()
	defer db.mu.Unlock()
	if err := db.fault("questions.Update"); err != nil {
		return nil, err
	}

	q, ok := db.st.questions[id]
	if !ok {
		return nil, apperror.NotFound("question not found")
	}
	if p.Content != nil {
		q.Content = *p.Content
	}
	if p.Options != nil {
		q.Options = slices.Clone(p.Options)
	}
	if p.CorrectAnswers != nil {
		q.CorrectAnswers = slices.Clone(p.CorrectAnswers)
	}
	if p.Status != nil {
		q.Status = *p.Status
	}
	q.UpdatedAt = db.Now()
	db.st.questions[id] = q
	return &q, nil
}

func (r *QuestionRepo) SetStatus(_ context.Context, id int64, status model.QuestionStatus) error {
	db := r.db
	db.mu.Lock()
	defer db.mu.Unlock()
	if err := db.fault("questions.SetStatus"); err != nil {
		return err
	}
	q, ok := db.st.questions[id]
	if !ok {
		return apperror.NotFound("question not found")
	}
	q.Status = status
	q.UpdatedAt = db.Now()
	db.st.questions[id] = q
	return nil
}

// Delete removes a question and everything it owns.
func (r *QuestionRepo) Delete(_ context.Context, id int64) error {
	db := r.db
	db.mu.Lock()
	defer db.mu.Unlock()
	if err := db.fault("questions.Delete"); err != nil {
		return err
	}
	if _, ok := db.st.questions[id]; !ok {
		return apperror.NotFound("question not found")
	}
	delete(db.st.questions, id)
	delete(db.st.links, id)
	for k := range db.st.votes {
		if k.questionID == id {
			delete(db.st.votes, k)
		}
	}
	db.st.history = slices.DeleteFunc(db.st.history, func(h model.HistoryEntry) bool {
		return h.QuestionID == id
	})
	return nil
}

func (r *QuestionRepo) LinkCategories(_ context.Context, questionID, companyID int64, categoryIDs []int64) error {
	db := r.db
	db.mu.Lock()
	defer db.mu.Unlock()
	if err := db.fault("questions.LinkCategories"); err != nil {
		return err
	}

	// Mirror the SQL store: link what resolves, then fail if anything did not.
	linked := 0
	for _, id := range categoryIDs {
		c, ok := db.st.categories[id]
		if !ok || c.companyID != companyID {
			continue
		}
		db.st.links[questionID] = append(db.st.links[questionID], id)
		linked++
	}
	if linked < len(categoryIDs) {
		return apperror.BadRequest(apperror.CodeCategoryNotFound, "one or more categories do not exist")
	}
	return nil
}

func (r *QuestionRepo) UnlinkCategories(_ context.Context, questionID int64) error {
	db := r.db
	db.mu.Lock()
	defer db.mu.Unlock()
	delete(db.st.links, questionID)
	return nil
}

func (r *QuestionRepo) CategoryIDs(_ context.Context, questionID int64) ([]int64, error) {
	db := r.db
	db.mu.Lock()
	defer db.mu.Unlock()
	ids := slices.Clone(db.st.links[questionID])
	slices.Sort(ids)
	return slices.Compact(ids), nil
}

func (r *QuestionRepo) CategoryNames(_ context.Context, questionID int64) ([]string, error) {
	db := r.db
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.categoryNames(questionID), nil
}

func (db *DB) categoryNames(questionID int64) []string {
	names := []string{}
	for _, id := range db.st.links[questionID] {
		names = append(names, db.st.categories[id].name)
	}
	slices.Sort(names)
	return slices.Compact(names)
}

// ─── Votes ──────────────────────────────────────────────────────────

// VoteRepo implements service.VoteStore.
type VoteRepo struct{ db *DB }

// Votes returns the vote store view of db.
func (db *DB) Votes() *VoteRepo { return &VoteRepo{db: db} }

func (r *VoteRepo) Toggle(_ context.Context, questionID, userID int64, voteType model.VoteType) (model.VoteAction, error) {
	db := r.db
	db.mu.Lock()
	defer db.mu.Unlock()
	if err := db.fault("votes.Toggle"); err != nil {
		return "", err
	}

	key := voteKey{questionID, userID}
	existing, ok := db.st.votes[key]
	switch {
	case ok && existing == voteType:
		delete(db.st.votes, key)
		return model.VoteRemoved, nil
	case ok:
		db.st.votes[key] = voteType
		return model.VoteChanged, nil
	default:
		db.st.votes[key] = voteType
		return model.VoteAdded, nil
	}
}

func (r *VoteRepo) Tally(_ context.Context, questionID int64) (model.VoteTally, error) {
	db := r.db
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.tally(questionID), nil
}

func (db *DB) tally(questionID int64) model.VoteTally {
	var t model.VoteTally
	for k, v := range db.st.votes {
		if k.questionID != questionID {
			continue
		}
		if v == model.VoteUp {
			t.Up++
		} else {
			t.Down++
		}
	}
	return t
}

func (r *VoteRepo) UserVote(_ context.Context, questionID, userID int64) (*model.VoteType, error) {
	db := r.db
	db.mu.Lock()
	defer db.mu.Unlock()
	vt, ok := db.st.votes[voteKey{questionID, userID}]
	if !ok {
		return nil, nil
	}
	return &vt, nil
}

// ─── History ────────────────────────────────────────────────────────

// HistoryRepo implements service.HistoryStore.
type HistoryRepo struct{ db *DB }

// HistoryLog returns the history store view of db.
func (db *DB) HistoryLog() *HistoryRepo { return &HistoryRepo{db: db} }

func (r *HistoryRepo) Append(_ context.Context, questionID, actorID int64, changeType model.ChangeType, details string) error {
	db := r.db
	db.mu.Lock()
	defer db.mu.Unlock()
	if err := db.fault("history.Append"); err != nil {
		return err
	}
	db.st.nextHistoryID++
	actor := actorID
	db.st.history = append(db.st.history, model.HistoryEntry{
		ID:         db.st.nextHistoryID,
		QuestionID: questionID,
		ChangedBy:  &actor,
		ChangeType: changeType,
		Details:    details,
		CreatedAt:  db.Now(),
	})
	return nil
}

func (r *HistoryRepo) ListByQuestion(_ context.Context, questionID int64) ([]model.HistoryEntry, error) {
	db := r.db
	db.mu.Lock()
	defer db.mu.Unlock()
	out := []model.HistoryEntry{}
	for i := len(db.st.history) - 1; i >= 0; i-- {
		h := db.st.history[i]
		if h.QuestionID != questionID {
			continue
		}
		if h.ChangedBy != nil {
			h.ActorName = db.st.users[*h.ChangedBy].Name
		}
		out = append(out, h)
	}
	return out, nil
}

// ─── Scores ─────────────────────────────────────────────────────────

// ScoreRepo implements service.ScoreStore.
type ScoreRepo struct{ db *DB }

// Scores returns the score store view of db.
func (db *DB) Scores() *ScoreRepo { return &ScoreRepo{db: db} }

func (r *ScoreRepo) Inputs(_ context.Context, questionID int64) (*model.ScoreInputs, error) {
	db := r.db
	db.mu.Lock()
	defer db.mu.Unlock()
	if err := db.fault("scores.Inputs"); err != nil {
		return nil, err
	}
	q, ok := db.st.questions[questionID]
	if !ok {
		return nil, apperror.NotFound("question not found")
	}
	t := db.tally(questionID)
	a := db.st.attempts[questionID]
	return &model.ScoreInputs{
		QuestionID:       questionID,
		AuthorID:         q.CreatedBy,
		AuthorReputation: db.st.users[q.CreatedBy].Reputation,
		Upvotes:          t.Up,
		Downvotes:        t.Down,
		TotalAttempts:    a.total,
		CorrectAttempts:  a.correct,
		Views:            db.st.views[questionID],
		CreatedAt:        q.CreatedAt,
	}, nil
}

func (r *ScoreRepo) SaveScore(_ context.Context, questionID int64, score float64) error {
	db := r.db
	db.mu.Lock()
	defer db.mu.Unlock()
	if err := db.fault("scores.SaveScore"); err != nil {
		return err
	}
	q, ok := db.st.questions[questionID]
	if !ok {
		return apperror.NotFound("question not found")
	}
	q.Score = score
	db.st.questions[questionID] = q
	return nil
}

func (r *ScoreRepo) ActiveQuestionIDs(_ context.Context) ([]int64, error) {
	db := r.db
	db.mu.Lock()
	defer db.mu.Unlock()
	var ids []int64
	for id, q := range db.st.questions {
		if q.Status == model.QuestionStatusActive {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func (r *ScoreRepo) ActiveScoresByAuthor(_ context.Context, authorID int64) ([]float64, error) {
	db := r.db
	db.mu.Lock()
	defer db.mu.Unlock()
	var scores []float64
	for _, q := range db.st.questions {
		if q.CreatedBy == authorID && q.Status == model.QuestionStatusActive {
			scores = append(scores, q.Score)
		}
	}
	return scores, nil
}

// ─── Users ──────────────────────────────────────────────────────────

// UserRepo implements service.UserStore.
type UserRepo struct{ db *DB }

// Users returns the user store view of db.
func (db *DB) Users() *UserRepo { return &UserRepo{db: db} }

func (r *UserRepo) Create(_ context.Context, u *model.User) error {
	db := r.db
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, existing := range db.st.users {
		if strings.EqualFold(existing.Email, u.Email) && u.Email != "" {
			return apperror.Conflict("user already exists")
		}
	}
	db.st.nextUserID++
	u.ID = db.st.nextUserID
	u.CreatedAt = db.Now()
	db.st.users[u.ID] = *u
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, id int64) (*model.User, error) {
	db := r.db
	db.mu.Lock()
	defer db.mu.Unlock()
	u, ok := db.st.users[id]
	if !ok {
		return nil, apperror.NotFound("user not found")
	}
	return &u, nil
}

func (r *UserRepo) SetReputation(_ context.Context, id int64, reputation int) error {
	db := r.db
	db.mu.Lock()
	defer db.mu.Unlock()
	if err := db.fault("users.SetReputation"); err != nil {
		return err
	}
	u, ok := db.st.users[id]
	if !ok {
		return nil
	}
	u.Reputation = reputation
	db.st.users[id] = u
	return nil
}

func (r *UserRepo) CompanyExists(_ context.Context, id int64) (bool, error) {
	db := r.db
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.st.companies[id], nil
}
