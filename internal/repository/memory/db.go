// Package memory is an in-process implementation of the question stores.
// Units of work snapshot the whole state and restore it on failure, so
// callers observe the same all-or-nothing behaviour as the SQL store.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/stemsi/qbank-backend/internal/model"
)

type voteKey struct {
	questionID int64
	userID     int64
}

type category struct {
	companyID int64
	name      string
}

type attempts struct {
	total   int
	correct int
}

type state struct {
	questions  map[int64]model.Question
	links      map[int64][]int64
	votes      map[voteKey]model.VoteType
	history    []model.HistoryEntry
	users      map[int64]model.User
	companies  map[int64]bool
	categories map[int64]category
	attempts   map[int64]attempts
	views      map[int64]int

	nextQuestionID int64
	nextHistoryID  int64
	nextUserID     int64
}

func newState() state {
	return state{
		questions:  make(map[int64]model.Question),
		links:      make(map[int64][]int64),
		votes:      make(map[voteKey]model.VoteType),
		users:      make(map[int64]model.User),
		companies:  make(map[int64]bool),
		categories: make(map[int64]category),
		attempts:   make(map[int64]attempts),
		views:      make(map[int64]int),
	}
}

func (s state) clone() state {
	c := s
	c.questions = make(map[int64]model.Question, len(s.questions))
	for id, q := range s.questions {
		q.Options = slices.Clone(q.Options)
		q.CorrectAnswers = slices.Clone(q.CorrectAnswers)
		c.questions[id] = q
	}
	c.links = make(map[int64][]int64, len(s.links))
	for id, ids := range s.links {
		c.links[id] = slices.Clone(ids)
	}
	c.votes = maps.Clone(s.votes)
	c.history = slices.Clone(s.history)
	c.users = maps.Clone(s.users)
	c.companies = maps.Clone(s.companies)
	c.categories = maps.Clone(s.categories)
	c.attempts = maps.Clone(s.attempts)
	c.views = maps.Clone(s.views)
	return c
}

type txKey struct{}

// DB holds all in-memory state.
type DB struct {
	mu     sync.Mutex
	txMu   sync.Mutex
	st     state
	faults map[string]error

	// Now stamps created_at and history timestamps.
	Now func() time.Time
}

// New creates an empty DB.
func New() *DB {
	return &DB{
		st:     newState(),
		faults: make(map[string]error),
		Now:    time.Now,
	}
}

// WithinTx runs fn atomically: on error the state is rolled back to what it
// was before fn started and the error is returned unchanged.
func (db *DB) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	db.txMu.Lock()
	defer db.txMu.Unlock()

	db.mu.Lock()
	snapshot := db.st.clone()
	db.mu.Unlock()

	restore := func() {
		db.mu.Lock()
		db.st = snapshot
		db.mu.Unlock()
	}

	defer func() {
		if p := recover(); p != nil {
			restore()
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		restore()
		return err
	}
	return nil
}

// FailOn makes the named operation return err until cleared with a nil err.
// Operation names are "<store>.<method>", e.g. "questions.LinkCategories".
func (db *DB) FailOn(op string, err error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if err == nil {
		delete(db.faults, op)
		return
	}
	db.faults[op] = err
}

// fault must be called with db.mu held.
func (db *DB) fault(op string) error {
	return db.faults[op]
}

// ─── Seeding ────────────────────────────────────────────────────────

// SeedCompany registers a company.
func (db *DB) SeedCompany(id int64) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.st.companies[id] = true
}

// SeedUser inserts a user and returns its id.
func (db *DB) SeedUser(companyID int64, name string, role model.Role, reputation int) int64 {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.st.nextUserID++
	id := db.st.nextUserID
	db.st.companies[companyID] = true
	db.st.users[id] = model.User{
		ID: id, CompanyID: companyID, Name: name, Role: role,
		Reputation: reputation, CreatedAt: db.Now(),
	}
	return id
}

// SeedCategory inserts a category owned by a company.
func (db *DB) SeedCategory(id, companyID int64, name string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.st.categories[id] = category{companyID: companyID, name: name}
}

// AddAttempt records an answer attempt on a question.
func (db *DB) AddAttempt(questionID int64, correct bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	a := db.st.attempts[questionID]
	a.total++
	if correct {
		a.correct++
	}
	db.st.attempts[questionID] = a
}

// AddViews records n views of a question.
func (db *DB) AddViews(questionID int64, n int) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.st.views[questionID] += n
}

// SetCreatedAt backdates a question.
func (db *DB) SetCreatedAt(questionID int64, t time.Time) {
	db.mu.Lock()
	defer db.mu.Unlock()
	q := db.st.questions[questionID]
	q.CreatedAt = t
	db.st.questions[questionID] = q
}

// SetStatusDirect changes a question's status without a history entry.
func (db *DB) SetStatusDirect(questionID int64, status model.QuestionStatus) {
	db.mu.Lock()
	defer db.mu.Unlock()
	q := db.st.questions[questionID]
	q.Status = status
	db.st.questions[questionID] = q
}

// ─── Inspection ─────────────────────────────────────────────────────

// QuestionCount returns the number of stored questions.
func (db *DB) QuestionCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.st.questions)
}

// LinkCount returns the number of stored category links.
func (db *DB) LinkCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	n := 0
	for _, ids := range db.st.links {
		n += len(ids)
	}
	return n
}

// VoteCount returns the number of stored votes.
func (db *DB) VoteCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.st.votes)
}

// History returns every history entry of a question, oldest first.
func (db *DB) History(questionID int64) []model.HistoryEntry {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []model.HistoryEntry
	for _, h := range db.st.history {
		if h.QuestionID == questionID {
			out = append(out, h)
		}
	}
	return out
}

// Question returns a stored question regardless of company.
func (db *DB) Question(id int64) (model.Question, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	q, ok := db.st.questions[id]
	return q, ok
}

// User returns a stored user.
func (db *DB) User(id int64) (model.User, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	u, ok := db.st.users[id]
	return u, ok
}
