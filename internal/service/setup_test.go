package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"signlearn/internal/database"
	"signlearn/internal/models"
	"signlearn/internal/repository"
	"signlearn/internal/security"
)

type sentMail struct {
	kind  string
	to    string
	topic string
}

// recordingMailer captures notifications instead of sending them
type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *recordingMailer) SendWelcomeEmail(_ context.Context, toEmail, toName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{kind: "welcome", to: toEmail, topic: toName})
	return nil
}

func (m *recordingMailer) SendModuleCompletedEmail(_ context.Context, toEmail, _, moduleTitle string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{kind: "module_completed", to: toEmail, topic: moduleTitle})
	return nil
}

func (m *recordingMailer) count(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.sent {
		if s.kind == kind {
			n++
		}
	}
	return n
}

type testEnv struct {
	db       *database.DB
	catalog  *repository.CatalogRepository
	progress *repository.ProgressRepository
	mistakes *repository.MistakeRepository
	users    *repository.UserRepository
	mailer   *recordingMailer

	progressService *ProgressService
	authService     *AuthService
	catalogService  *CatalogService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping database test in short mode")
	}

	db, err := database.Initialize(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.RunMigrations(context.Background()); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	env := &testEnv{
		db:       db,
		catalog:  repository.NewCatalogRepository(db),
		progress: repository.NewProgressRepository(db),
		mistakes: repository.NewMistakeRepository(db),
		users:    repository.NewUserRepository(db),
		mailer:   &recordingMailer{},
	}
	env.progressService = NewProgressService(db, env.catalog, env.progress, env.mistakes, env.users, env.mailer)
	env.authService = NewAuthService(db, env.users, env.catalog, env.progress,
		security.NewTokenManager("test-secret", time.Minute), env.mailer, time.Hour)
	env.catalogService = NewCatalogService(db, env.catalog, env.progress, env.users)
	return env
}

// testCurriculum has a four-lesson "Basics" module ending in a final review
// and a two-lesson "Greetings" module.
func testCurriculum() *models.Curriculum {
	hello := models.CurriculumGesture{Word: "hello", Video: "/videos/hello.mp4"}
	thanks := models.CurriculumGesture{Word: "thanks", Video: "/videos/thanks.mp4", Description: "flat hand from chin"}
	yes := models.CurriculumGesture{Word: "yes", Video: "/videos/yes.mp4"}
	no := models.CurriculumGesture{Word: "no", Video: "/videos/no.mp4"}

	return &models.Curriculum{Modules: []models.CurriculumModule{
		{
			Title: "Basics",
			Order: 1,
			Lessons: []models.CurriculumLesson{
				{Title: "First signs", Type: models.LessonTypeNewGestures, Order: 1, Gestures: []models.CurriculumGesture{hello, thanks}},
				{Title: "Repeat first signs", Type: models.LessonTypeRepeatNew, Order: 2, Gestures: []models.CurriculumGesture{thanks, hello}},
				{Title: "Yes and no", Type: models.LessonTypeRepeatOld, Order: 3, Gestures: []models.CurriculumGesture{yes, no}},
				{Title: "Basics test", Type: models.LessonTypeFinalReview, Order: 4, Gestures: []models.CurriculumGesture{hello, thanks, yes, no}},
			},
		},
		{
			Title: "Greetings",
			Order: 2,
			Lessons: []models.CurriculumLesson{
				{Title: "Greetings", Type: models.LessonTypeNewGestures, Order: 1, Gestures: []models.CurriculumGesture{hello}},
				{Title: "Greetings test", Type: models.LessonTypeFinalReview, Order: 2},
			},
		},
	}}
}

// seedCatalog imports testCurriculum and returns the modules with their lessons in order
func (e *testEnv) seedCatalog(t *testing.T) []models.ModuleWithLessons {
	t.Helper()
	ctx := context.Background()

	if _, err := e.catalogService.Import(ctx, testCurriculum()); err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	modules, err := e.catalog.GetModules(ctx)
	if err != nil {
		t.Fatalf("GetModules() error = %v", err)
	}
	result := make([]models.ModuleWithLessons, 0, len(modules))
	for _, m := range modules {
		lessons, err := e.catalog.GetModuleLessons(ctx, m.ID)
		if err != nil {
			t.Fatalf("GetModuleLessons() error = %v", err)
		}
		item := models.ModuleWithLessons{Module: m}
		for _, l := range lessons {
			item.Lessons = append(item.Lessons, models.LessonListItem{Lesson: l})
		}
		result = append(result, item)
	}
	return result
}

func (e *testEnv) register(t *testing.T, email string) *models.User {
	t.Helper()
	user, err := e.authService.Register(context.Background(), RegisterInput{
		Email:           email,
		Password:        "password123",
		PasswordConfirm: "password123",
		Name:            "Learner",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return user
}

func (e *testEnv) firstGesture(t *testing.T, lessonID int64) models.Gesture {
	t.Helper()
	gestures, err := e.catalog.GetLessonGestures(context.Background(), lessonID)
	if err != nil || len(gestures) == 0 {
		t.Fatalf("GetLessonGestures(%d) = %v, %v", lessonID, gestures, err)
	}
	return gestures[0]
}

func (e *testEnv) finish(t *testing.T, userID, lessonID int64) *FinishResult {
	t.Helper()
	result, err := e.progressService.FinishLesson(context.Background(), userID, lessonID)
	if err != nil {
		t.Fatalf("FinishLesson(%d) error = %v", lessonID, err)
	}
	return result
}
