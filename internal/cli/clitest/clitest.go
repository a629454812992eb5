// Package clitest provides an in-memory goals service and a wired command
// context for command and TUI tests.
package clitest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/zalando/go-keyring"

	"github.com/julianstephens/goaltrack/internal/auth"
	"github.com/julianstephens/goaltrack/internal/cli"
	"github.com/julianstephens/goaltrack/internal/config"
	"github.com/julianstephens/goaltrack/internal/models"
	"github.com/julianstephens/goaltrack/internal/storage/sqlite"
)

// UserID is the user every fake session signs in as.
const UserID = "u1"

// Habit is a habit in the fake service.
type Habit struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Goal is a goal in the fake service.
type Goal struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	CategoryID  *string `json:"category_id"`
	Habits      []Habit `json:"habits"`
}

// Category is a category in the fake service.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Completion is a completion record in the fake service.
type Completion struct {
	ID             string `json:"id"`
	HabitID        string `json:"habit_id"`
	CompletionDate string `json:"completion_date"`
}

// Service is an in-memory goals API.
type Service struct {
	*httptest.Server

	mu          sync.Mutex
	seq         int
	Categories  []Category
	Goals       []Goal
	Completions []Completion
	Quiz        *models.QuizResponse
	Suggestions []string
	// Unknown makes the collection reads answer 404, as for a customer the
	// service has never stored anything for.
	Unknown bool
	// Fail forces the next matching "METHOD /path-prefix" request to answer 500.
	Fail map[string]bool
	// Requests counts requests per "METHOD /path".
	Requests map[string]int
}

// NewService starts a fake goals API closed at test cleanup.
func NewService(t *testing.T) *Service {
	t.Helper()
	s := &Service{Fail: map[string]bool{}, Requests: map[string]int{}}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

// Seed adds the "Health" category with one goal holding the "Run" habit.
func (s *Service) Seed() *Service {
	s.mu.Lock()
	defer s.mu.Unlock()
	health := "1"
	s.Categories = append(s.Categories, Category{ID: "1", Name: "Health"})
	s.Goals = append(s.Goals, Goal{ID: "g1", Description: "Get fit", CategoryID: &health, Habits: []Habit{{ID: "h1", Title: "Run"}}})
	return s
}

// AddCompletion records a completion directly.
func (s *Service) AddCompletion(habitID, date string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID("c")
	s.Completions = append(s.Completions, Completion{ID: id, HabitID: habitID, CompletionDate: date})
	return id
}

// Count returns how many times "METHOD /path" was requested.
func (s *Service) Count(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Requests[route]
}

// CompletionCount returns the number of stored completion records.
func (s *Service) CompletionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Completions)
}

func (s *Service) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s%d", prefix, s.seq)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func notFound(w http.ResponseWriter, what string) {
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": what + " not found"})
}

func (s *Service) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /me/categories", s.listCategories)
	mux.HandleFunc("POST /me/categories", s.createCategory)
	mux.HandleFunc("PUT /me/categories/{id}", s.renameCategory)
	mux.HandleFunc("DELETE /me/categories/{id}", s.deleteCategory)
	mux.HandleFunc("GET /me/goals", s.listGoals)
	mux.HandleFunc("POST /customers/{customer}/goals", s.createGoal)
	mux.HandleFunc("PATCH /me/goals/{id}", s.moveGoal)
	mux.HandleFunc("DELETE /me/goals/{id}", s.deleteGoal)
	mux.HandleFunc("POST /me/goals/suggestions", s.suggest)
	mux.HandleFunc("POST /me/habits/{habit}/completions", s.recordCompletion)
	mux.HandleFunc("DELETE /me/completions/{id}", s.deleteCompletion)
	mux.HandleFunc("GET /me/completions", s.listCompletions)
	mux.HandleFunc("GET /me/quiz", s.getQuiz)
	mux.HandleFunc("POST /me/quiz", s.saveQuiz)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.Requests[r.Method+" "+r.URL.Path]++
		failed := false
		for route := range s.Fail {
			method, prefix, _ := strings.Cut(route, " ")
			if method == r.Method && strings.HasPrefix(r.URL.Path, prefix) {
				delete(s.Fail, route)
				failed = true
				break
			}
		}
		s.mu.Unlock()
		if failed {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "injected failure"})
			return
		}
		mux.ServeHTTP(w, r)
	})
}

func (s *Service) listCategories(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Unknown {
		notFound(w, "customer")
		return
	}
	writeJSON(w, http.StatusOK, append([]Category{}, s.Categories...))
}

func (s *Service) createCategory(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cat := Category{ID: s.nextID("cat"), Name: body.Name}
	s.Categories = append(s.Categories, cat)
	writeJSON(w, http.StatusCreated, cat)
}

func (s *Service) renameCategory(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.Categories {
		if s.Categories[i].ID == r.PathValue("id") {
			s.Categories[i].Name = body.Name
			writeJSON(w, http.StatusOK, s.Categories[i])
			return
		}
	}
	notFound(w, "category")
}

func (s *Service) deleteCategory(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := r.PathValue("id")
	idx := -1
	for i, c := range s.Categories {
		if c.ID == id {
			idx = i
		}
	}
	if idx < 0 {
		notFound(w, "category")
		return
	}
	s.Categories = append(s.Categories[:idx], s.Categories[idx+1:]...)
	var kept []Goal
	for _, g := range s.Goals {
		if g.CategoryID == nil || *g.CategoryID != id {
			kept = append(kept, g)
		}
	}
	s.Goals = kept
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) listGoals(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Unknown {
		notFound(w, "customer")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"goals": append([]Goal{}, s.Goals...)})
}

func (s *Service) createGoal(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Description string   `json:"goal_description"`
		Habits      []string `json:"finalised_habits"`
		CategoryID  string   `json:"category_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}
	if r.PathValue("customer") != UserID {
		notFound(w, "customer")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g := Goal{ID: s.nextID("g"), Description: body.Description}
	if body.CategoryID != "" {
		cat := body.CategoryID
		g.CategoryID = &cat
	}
	for _, title := range body.Habits {
		g.Habits = append(g.Habits, Habit{ID: s.nextID("h"), Title: title})
	}
	s.Goals = append(s.Goals, g)
	writeJSON(w, http.StatusCreated, g)
}

func (s *Service) moveGoal(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CategoryID *string `json:"category_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.Goals {
		if s.Goals[i].ID == r.PathValue("id") {
			s.Goals[i].CategoryID = body.CategoryID
			writeJSON(w, http.StatusOK, s.Goals[i])
			return
		}
	}
	notFound(w, "goal")
}

func (s *Service) deleteGoal(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, g := range s.Goals {
		if g.ID == r.PathValue("id") {
			s.Goals = append(s.Goals[:i], s.Goals[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	notFound(w, "goal")
}

func (s *Service) suggest(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"habits": s.Suggestions})
}

func (s *Service) recordCompletion(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CompletionDate string `json:"completionDate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := Completion{ID: s.nextID("c"), HabitID: r.PathValue("habit"), CompletionDate: body.CompletionDate}
	s.Completions = append(s.Completions, c)
	writeJSON(w, http.StatusCreated, c)
}

func (s *Service) deleteCompletion(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.Completions {
		if c.ID == r.PathValue("id") {
			s.Completions = append(s.Completions[:i], s.Completions[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	notFound(w, "completion")
}

func (s *Service) listCompletions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Completion
	switch {
	case q.Get("date") != "":
		for _, c := range s.Completions {
			if c.CompletionDate == q.Get("date") {
				out = append(out, c)
			}
		}
	case q.Get("start") != "" && q.Get("end") != "":
		for _, c := range s.Completions {
			if c.CompletionDate >= q.Get("start") && c.CompletionDate <= q.Get("end") {
				out = append(out, c)
			}
		}
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "date or start/end required"})
		return
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, map[string]any{"completions": out})
}

func (s *Service) getQuiz(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Quiz == nil {
		notFound(w, "quiz")
		return
	}
	writeJSON(w, http.StatusOK, s.Quiz)
}

func (s *Service) saveQuiz(w http.ResponseWriter, r *http.Request) {
	var q models.QuizResponse
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Quiz = &q
	writeJSON(w, http.StatusCreated, q)
}

// Env is a command context wired to a fake service, a temporary store and
// captured output.
type Env struct {
	*cli.Context
	Service *Service
	Stdout  *bytes.Buffer
	Stderr  *bytes.Buffer
}

// Now is the fixed instant every Env runs at: 2026-10-18 12:00 UTC.
var Now = time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC)

// NewEnv wires a context to svc. Settings are applied on top of the defaults
// before validation, using config keys.
func NewEnv(t *testing.T, svc *Service, settings map[string]any) *Env {
	t.Helper()
	keyring.MockInit()

	dir := t.TempDir()
	v := viper.New()
	v.Set(config.KeyAPIBaseURL, svc.URL)
	v.Set(config.KeyTimezone, "UTC")
	v.Set(config.KeyStore, filepath.Join(dir, "goaltrack.db"))
	v.Set(config.KeyReadRetries, 1)
	for k, val := range settings {
		v.Set(k, val)
	}
	file := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(file, []byte("profile: default\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := config.LoadWith(v, file)
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	path, err := cfg.StorePath()
	if err != nil {
		t.Fatalf("store path: %v", err)
	}
	store := sqlite.NewStore(path)
	t.Cleanup(func() { store.Close() })

	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	ctx := cli.NewContext(cfg, store,
		cli.WithSession(auth.StaticSession{Bearer: "test-token", User: UserID}),
		cli.WithOutput(stdout, stderr),
		cli.WithClock(func() time.Time { return Now }),
	)
	return &Env{Context: ctx, Service: svc, Stdout: stdout, Stderr: stderr}
}
