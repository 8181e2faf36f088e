package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"signlearn/internal/models"
	"signlearn/internal/validation"
)

func TestCompletionPercentage(t *testing.T) {
	tests := []struct {
		name      string
		completed int
		total     int
		want      float64
	}{
		{"no lessons", 0, 0, 0},
		{"nothing completed", 0, 4, 0},
		{"one of four", 1, 4, 25.0},
		{"half", 2, 4, 50.0},
		{"all", 4, 4, 100},
		{"more completions than lessons is capped", 5, 4, 100},
		{"negative total", 1, -1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := completionPercentage(tt.completed, tt.total); got != tt.want {
				t.Errorf("completionPercentage(%d, %d) = %v, want %v", tt.completed, tt.total, got, tt.want)
			}
		})
	}
}

func TestResolveAccess(t *testing.T) {
	now := time.Now()
	completed := &models.UserLessonRecord{CompletedAt: &now}
	visited := &models.UserLessonRecord{}

	tests := []struct {
		name     string
		record   *models.UserLessonRecord
		isFirst  bool
		previous *models.UserLessonRecord
		want     models.LessonAccess
	}{
		{"own completed record", completed, false, nil, models.LessonAccess{Available: true, Completed: true}},
		{"own open record", visited, false, nil, models.LessonAccess{Available: true}},
		{"first lesson without record", nil, true, nil, models.LessonAccess{Available: true}},
		{"previous completed", nil, false, completed, models.LessonAccess{Available: true}},
		{"previous only visited", nil, false, visited, models.LessonAccess{}},
		{"previous untouched", nil, false, nil, models.LessonAccess{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveAccess(tt.record, tt.isFirst, tt.previous); got != tt.want {
				t.Errorf("resolveAccess() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestResolveLessonAccess(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	modules := env.seedCatalog(t)
	user := env.register(t, "learner@example.com")
	basics := modules[0].Lessons

	t.Run("first lesson is open without creating a record", func(t *testing.T) {
		for _, m := range modules {
			access, err := env.progressService.ResolveLessonAccess(ctx, user.ID, m.Lessons[0].ID)
			if err != nil {
				t.Fatalf("ResolveLessonAccess() error = %v", err)
			}
			if access != (models.LessonAccess{Available: true}) {
				t.Errorf("ResolveLessonAccess(first of %s) = %+v, want available", m.Title, access)
			}
		}
		record, err := env.progress.GetLessonRecord(ctx, user.ID, basics[0].ID)
		if err != nil || record != nil {
			t.Errorf("GetLessonRecord() = %v, %v, want no record", record, err)
		}
	})

	t.Run("later lessons are locked", func(t *testing.T) {
		for _, l := range basics[1:] {
			access, err := env.progressService.ResolveLessonAccess(ctx, user.ID, l.ID)
			if err != nil {
				t.Fatalf("ResolveLessonAccess() error = %v", err)
			}
			if access.Available || access.Completed {
				t.Errorf("ResolveLessonAccess(%s) = %+v, want locked", l.Title, access)
			}
		}
	})

	t.Run("unknown lesson", func(t *testing.T) {
		access, err := env.progressService.ResolveLessonAccess(ctx, user.ID, 9999)
		if err != nil {
			t.Fatalf("ResolveLessonAccess() error = %v", err)
		}
		if access != (models.LessonAccess{}) {
			t.Errorf("ResolveLessonAccess(9999) = %+v, want {false false}", access)
		}
	})

	t.Run("finishing a lesson unlocks only the next one", func(t *testing.T) {
		env.finish(t, user.ID, basics[0].ID)

		want := []models.LessonAccess{
			{Available: true, Completed: true},
			{Available: true},
			{},
			{},
		}
		for i, l := range basics {
			access, err := env.progressService.ResolveLessonAccess(ctx, user.ID, l.ID)
			if err != nil {
				t.Fatalf("ResolveLessonAccess() error = %v", err)
			}
			if access != want[i] {
				t.Errorf("ResolveLessonAccess(lesson %d) = %+v, want %+v", i+1, access, want[i])
			}
		}
	})

	t.Run("listing agrees with single lookups", func(t *testing.T) {
		listed, err := env.progressService.GetModulesWithLessons(ctx, user.ID)
		if err != nil {
			t.Fatalf("GetModulesWithLessons() error = %v", err)
		}
		if len(listed) != len(modules) {
			t.Fatalf("GetModulesWithLessons() returned %d modules, want %d", len(listed), len(modules))
		}
		for _, m := range listed {
			for _, item := range m.Lessons {
				access, err := env.progressService.ResolveLessonAccess(ctx, user.ID, item.ID)
				if err != nil {
					t.Fatalf("ResolveLessonAccess() error = %v", err)
				}
				if item.Available != access.Available || item.Completed != access.Completed {
					t.Errorf("lesson %q listed as %v/%v, resolved as %+v", item.Title, item.Available, item.Completed, access)
				}
				if item.Icon != item.LessonType.Icon() || item.TypeLabel != item.LessonType.Label() {
					t.Errorf("lesson %q icon/label = %s/%s", item.Title, item.Icon, item.TypeLabel)
				}
			}
		}
		if listed[0].ProgressPercentage != 25 {
			t.Errorf("Basics ProgressPercentage = %v, want 25", listed[0].ProgressPercentage)
		}
	})
}

func TestRecordAnswer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	modules := env.seedCatalog(t)
	user := env.register(t, "learner@example.com")
	lesson := modules[0].Lessons[0]
	gesture := env.firstGesture(t, lesson.ID)

	t.Run("answers are counted without moving completion", func(t *testing.T) {
		inputs := []AnswerInput{
			{LessonID: lesson.ID, GestureID: gesture.ID, IsCorrect: true, SelectedAnswer: gesture.Word},
			{LessonID: lesson.ID, GestureID: gesture.ID, IsCorrect: false, SelectedAnswer: "thanks"},
			{LessonID: lesson.ID, GestureID: gesture.ID, IsCorrect: false, SelectedAnswer: ""},
		}
		for _, in := range inputs {
			result, err := env.progressService.RecordAnswer(ctx, user.ID, in)
			if err != nil {
				t.Fatalf("RecordAnswer() error = %v", err)
			}
			if result.CompletionPercentage != 0 || result.ModuleCompleted {
				t.Errorf("RecordAnswer() completion = %v/%v, want 0/false", result.CompletionPercentage, result.ModuleCompleted)
			}
			wantMistake := !in.IsCorrect && in.SelectedAnswer != ""
			if result.MistakeRecorded != wantMistake {
				t.Errorf("RecordAnswer(%+v) MistakeRecorded = %v, want %v", in, result.MistakeRecorded, wantMistake)
			}
		}

		record, err := env.progress.GetLessonRecord(ctx, user.ID, lesson.ID)
		if err != nil {
			t.Fatalf("GetLessonRecord() error = %v", err)
		}
		if record.CorrectAnswers != 1 || record.TotalAnswers != 3 || record.IsCompleted() {
			t.Errorf("lesson record = %+v, want 1/3 not completed", record)
		}

		progress, err := env.progress.GetModuleProgress(ctx, user.ID, lesson.ModuleID)
		if err != nil {
			t.Fatalf("GetModuleProgress() error = %v", err)
		}
		if progress.CorrectAnswers != 1 || progress.TotalQuestions != 3 || progress.CompletionPercentage != 0 {
			t.Errorf("module progress = %+v, want 1/3 at 0%%", progress)
		}
	})

	t.Run("repeated mistakes are deduplicated", func(t *testing.T) {
		for _, answer := range []string{"yes", "no"} {
			_, err := env.progressService.RecordAnswer(ctx, user.ID, AnswerInput{LessonID: lesson.ID, GestureID: gesture.ID, SelectedAnswer: answer})
			if err != nil {
				t.Fatalf("RecordAnswer() error = %v", err)
			}
		}

		mistakes, err := env.progressService.GetMistakes(ctx, user.ID, 0)
		if err != nil {
			t.Fatalf("GetMistakes() error = %v", err)
		}
		if len(mistakes) != 1 {
			t.Fatalf("GetMistakes() returned %d rows, want 1", len(mistakes))
		}
		if mistakes[0].MistakeCount != 3 || mistakes[0].LastIncorrectAnswer != "no" {
			t.Errorf("mistake = %+v, want count 3 with last answer \"no\"", mistakes[0])
		}
		if mistakes[0].ModuleID != lesson.ModuleID || mistakes[0].Word != gesture.Word {
			t.Errorf("mistake = %+v, want module %d word %s", mistakes[0], lesson.ModuleID, gesture.Word)
		}
	})

	t.Run("errors", func(t *testing.T) {
		locked := modules[0].Lessons[2]
		tests := []struct {
			name    string
			input   AnswerInput
			wantErr error
		}{
			{"unknown lesson", AnswerInput{LessonID: 9999, GestureID: gesture.ID}, ErrNotFound},
			{"unknown gesture", AnswerInput{LessonID: lesson.ID, GestureID: 9999}, ErrNotFound},
			{"missing lesson", AnswerInput{GestureID: gesture.ID}, ErrValidation},
			{"missing gesture", AnswerInput{LessonID: lesson.ID}, ErrValidation},
			{"locked lesson", AnswerInput{LessonID: locked.ID, GestureID: gesture.ID, IsCorrect: true}, ErrLessonLocked},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := env.progressService.RecordAnswer(ctx, user.ID, tt.input)
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("RecordAnswer() error = %v, want %v", err, tt.wantErr)
				}
			})
		}

		_, err := env.progressService.RecordAnswer(ctx, user.ID, AnswerInput{GestureID: gesture.ID})
		var vErr validation.ValidationError
		if !errors.As(err, &vErr) || vErr.Field != "lesson_id" {
			t.Errorf("RecordAnswer() error = %v, want lesson_id ValidationError", err)
		}

		record, _ := env.progress.GetLessonRecord(ctx, user.ID, locked.ID)
		if record != nil {
			t.Errorf("answer on a locked lesson created record %+v", record)
		}
	})
}

func TestMistakeKeepsModuleSnapshot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	modules := env.seedCatalog(t)
	user := env.register(t, "learner@example.com")
	lesson := modules[0].Lessons[0]
	gesture := env.firstGesture(t, lesson.ID)
	wrong := AnswerInput{LessonID: lesson.ID, GestureID: gesture.ID, SelectedAnswer: "thanks"}

	if _, err := env.progressService.RecordAnswer(ctx, user.ID, wrong); err != nil {
		t.Fatalf("RecordAnswer() error = %v", err)
	}

	// Move the lesson to the end of the second module
	if _, err := env.db.ExecContext(ctx, "UPDATE lessons SET module_id = ?, order_index = ? WHERE id = ?",
		modules[1].ID, 99, lesson.ID); err != nil {
		t.Fatalf("failed to move lesson: %v", err)
	}

	if _, err := env.progressService.RecordAnswer(ctx, user.ID, wrong); err != nil {
		t.Fatalf("RecordAnswer() after move error = %v", err)
	}

	mistakes, err := env.progressService.GetMistakes(ctx, user.ID, 0)
	if err != nil {
		t.Fatalf("GetMistakes() error = %v", err)
	}
	if len(mistakes) != 1 {
		t.Fatalf("GetMistakes() returned %d rows, want 1", len(mistakes))
	}
	if mistakes[0].MistakeCount != 2 || mistakes[0].ModuleID != modules[0].ID {
		t.Errorf("mistake = %+v, want count 2 in module %d", mistakes[0], modules[0].ID)
	}

	moved, err := env.progressService.GetMistakes(ctx, user.ID, modules[1].ID)
	if err != nil {
		t.Fatalf("GetMistakes(module %d) error = %v", modules[1].ID, err)
	}
	if len(moved) != 0 {
		t.Errorf("GetMistakes(module %d) = %+v, want none", modules[1].ID, moved)
	}
}

func TestConcurrentRecordAnswer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	modules := env.seedCatalog(t)
	user := env.register(t, "learner@example.com")
	lesson := modules[0].Lessons[0]
	gesture := env.firstGesture(t, lesson.ID)

	const calls = 10
	var wg sync.WaitGroup
	errs := make(chan error, calls)
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func(correct bool) {
			defer wg.Done()
			in := AnswerInput{LessonID: lesson.ID, GestureID: gesture.ID, IsCorrect: correct, SelectedAnswer: "no"}
			if _, err := env.progressService.RecordAnswer(ctx, user.ID, in); err != nil {
				errs <- err
			}
		}(i%2 == 0)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("RecordAnswer() error = %v", err)
	}

	record, err := env.progress.GetLessonRecord(ctx, user.ID, lesson.ID)
	if err != nil {
		t.Fatalf("GetLessonRecord() error = %v", err)
	}
	if record.TotalAnswers != calls || record.CorrectAnswers != calls/2 {
		t.Errorf("lesson record = %d/%d, want %d/%d", record.CorrectAnswers, record.TotalAnswers, calls/2, calls)
	}

	progress, _ := env.progress.GetModuleProgress(ctx, user.ID, lesson.ModuleID)
	if progress.TotalQuestions != calls {
		t.Errorf("module TotalQuestions = %d, want %d", progress.TotalQuestions, calls)
	}

	mistake, _ := env.mistakes.GetMistake(ctx, user.ID, gesture.ID, lesson.ID)
	if mistake == nil || mistake.MistakeCount != calls/2 {
		t.Errorf("mistake = %+v, want count %d", mistake, calls/2)
	}
}

func TestFinishLesson(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	modules := env.seedCatalog(t)
	user := env.register(t, "learner@example.com")
	basics := modules[0]

	t.Run("registration seeds empty progress for every module", func(t *testing.T) {
		summary, err := env.progressService.GetModuleProgressSummary(ctx, user.ID)
		if err != nil {
			t.Fatalf("GetModuleProgressSummary() error = %v", err)
		}
		if len(summary) != len(modules) {
			t.Fatalf("GetModuleProgressSummary() returned %d rows, want %d", len(summary), len(modules))
		}
		for _, row := range summary {
			progress, err := env.progress.GetModuleProgress(ctx, user.ID, row.Module.ID)
			if err != nil || progress == nil {
				t.Errorf("GetModuleProgress(%s) = %v, %v, want a row", row.Module.Title, progress, err)
			}
			if row.Percentage != 0 || row.IsCompleted {
				t.Errorf("summary %s = %+v, want 0%% not completed", row.Module.Title, row)
			}
		}
	})

	t.Run("one of four lessons is 25 percent", func(t *testing.T) {
		result := env.finish(t, user.ID, basics.Lessons[0].ID)
		if result.CompletionPercentage != 25.0 {
			t.Errorf("CompletionPercentage = %v, want 25.0", result.CompletionPercentage)
		}
		if result.NextLessonID != basics.Lessons[1].ID {
			t.Errorf("NextLessonID = %d, want %d", result.NextLessonID, basics.Lessons[1].ID)
		}
		next, err := env.progress.GetLessonRecord(ctx, user.ID, basics.Lessons[1].ID)
		if err != nil || next == nil || next.IsCompleted() {
			t.Errorf("next lesson record = %+v, %v, want an open record", next, err)
		}
	})

	t.Run("finishing twice keeps the percentage and answer counts", func(t *testing.T) {
		gesture := env.firstGesture(t, basics.Lessons[1].ID)
		if _, err := env.progressService.RecordAnswer(ctx, user.ID, AnswerInput{LessonID: basics.Lessons[1].ID, GestureID: gesture.ID, IsCorrect: true}); err != nil {
			t.Fatalf("RecordAnswer() error = %v", err)
		}
		result := env.finish(t, user.ID, basics.Lessons[0].ID)
		if result.CompletionPercentage != 25.0 {
			t.Errorf("CompletionPercentage = %v, want 25.0", result.CompletionPercentage)
		}
		next, _ := env.progress.GetLessonRecord(ctx, user.ID, basics.Lessons[1].ID)
		if next.TotalAnswers != 1 {
			t.Errorf("next lesson TotalAnswers = %d, want 1", next.TotalAnswers)
		}
	})

	t.Run("locked lessons cannot be finished", func(t *testing.T) {
		_, err := env.progressService.FinishLesson(ctx, user.ID, basics.Lessons[3].ID)
		if !errors.Is(err, ErrLessonLocked) {
			t.Errorf("FinishLesson(final review) error = %v, want %v", err, ErrLessonLocked)
		}
	})

	t.Run("unknown lesson", func(t *testing.T) {
		_, err := env.progressService.FinishLesson(ctx, user.ID, 9999)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("FinishLesson(9999) error = %v, want %v", err, ErrNotFound)
		}
	})

	t.Run("final review completes the module", func(t *testing.T) {
		env.finish(t, user.ID, basics.Lessons[1].ID)
		env.finish(t, user.ID, basics.Lessons[2].ID)
		result := env.finish(t, user.ID, basics.Lessons[3].ID)

		if result.CompletionPercentage != 100 || !result.ModuleCompleted {
			t.Errorf("FinishLesson(final review) = %+v, want 100%% completed", result)
		}
		if result.NextLessonID != 0 {
			t.Errorf("NextLessonID = %d, want 0 after the last lesson", result.NextLessonID)
		}
		if got := env.mailer.count("module_completed"); got != 1 {
			t.Errorf("module completed emails = %d, want 1", got)
		}

		env.finish(t, user.ID, basics.Lessons[3].ID)
		if got := env.mailer.count("module_completed"); got != 1 {
			t.Errorf("module completed emails after repeat = %d, want 1", got)
		}
	})

	t.Run("overview", func(t *testing.T) {
		overview, err := env.progressService.GetOverview(ctx, user.ID)
		if err != nil {
			t.Fatalf("GetOverview() error = %v", err)
		}
		if overview.TotalModules != 2 || overview.CompletedModules != 1 {
			t.Errorf("modules = %d/%d, want 1/2", overview.CompletedModules, overview.TotalModules)
		}
		if overview.TotalLessons != 6 || overview.CompletedLessons != 4 {
			t.Errorf("lessons = %d/%d, want 4/6", overview.CompletedLessons, overview.TotalLessons)
		}
		if overview.OverallAccuracy != 100 {
			t.Errorf("OverallAccuracy = %v, want 100", overview.OverallAccuracy)
		}
	})
}

func TestFinalReviewForcesCompletion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// The final review is the second of three lessons, so counting alone gives 66.7%
	curriculum := &models.Curriculum{Modules: []models.CurriculumModule{{
		Title: "Numbers",
		Lessons: []models.CurriculumLesson{
			{Title: "One to five", Type: models.LessonTypeNewGestures},
			{Title: "Numbers test", Type: models.LessonTypeFinalReview},
			{Title: "Numbers again", Type: models.LessonTypeRepeatOld},
		},
	}}}
	if _, err := env.catalogService.Import(ctx, curriculum); err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	user := env.register(t, "learner@example.com")
	modules, _ := env.catalog.GetModules(ctx)
	lessons, _ := env.catalog.GetModuleLessons(ctx, modules[0].ID)

	env.finish(t, user.ID, lessons[0].ID)
	result := env.finish(t, user.ID, lessons[1].ID)
	if result.CompletionPercentage != 100 || !result.ModuleCompleted {
		t.Errorf("FinishLesson(final review) = %+v, want 100%% completed", result)
	}

	// Later lessons never lower a completed module
	result = env.finish(t, user.ID, lessons[2].ID)
	if result.CompletionPercentage != 100 || !result.ModuleCompleted {
		t.Errorf("FinishLesson(after final review) = %+v, want 100%% completed", result)
	}
}

func TestFinishLessonPersistenceFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	modules := env.seedCatalog(t)
	user := env.register(t, "learner@example.com")

	env.db.Close()
	_, err := env.progressService.FinishLesson(ctx, user.ID, modules[0].Lessons[0].ID)
	if !errors.Is(err, ErrPersistence) {
		t.Errorf("FinishLesson() on closed database error = %v, want %v", err, ErrPersistence)
	}
}

func TestGetQuestion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	modules := env.seedCatalog(t)
	user := env.register(t, "learner@example.com")
	lesson := modules[0].Lessons[0]

	tests := []struct {
		name       string
		n          int
		wantNumber int
		wantNext   int
	}{
		{"first", 1, 1, 2},
		{"last", 2, 2, 0},
		{"zero falls back to first", 0, 1, 2},
		{"past the end falls back to first", 7, 1, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := env.progressService.GetQuestion(ctx, user.ID, lesson.ID, tt.n)
			if err != nil {
				t.Fatalf("GetQuestion() error = %v", err)
			}
			if q.Number != tt.wantNumber || q.NextQuestion != tt.wantNext || q.Total != 2 {
				t.Errorf("GetQuestion(%d) number/next/total = %d/%d/%d, want %d/%d/2", tt.n, q.Number, q.NextQuestion, q.Total, tt.wantNumber, tt.wantNext)
			}
			if q.ModuleTitle != "Basics" || q.LessonIcon != "star" {
				t.Errorf("GetQuestion() module/icon = %s/%s, want Basics/star", q.ModuleTitle, q.LessonIcon)
			}

			correct := 0
			for _, o := range q.Options {
				if o.IsCorrect {
					correct++
					if o.Text != q.Gesture.Word {
						t.Errorf("correct option = %q, want %q", o.Text, q.Gesture.Word)
					}
				}
			}
			if len(q.Options) != optionsPerQuestion || correct != 1 {
				t.Errorf("GetQuestion() options = %+v, want %d with one correct", q.Options, optionsPerQuestion)
			}
		})
	}

	t.Run("locked lesson", func(t *testing.T) {
		_, err := env.progressService.GetQuestion(ctx, user.ID, modules[0].Lessons[1].ID, 1)
		if !errors.Is(err, ErrLessonLocked) {
			t.Errorf("GetQuestion() error = %v, want %v", err, ErrLessonLocked)
		}
	})

	t.Run("lesson without gestures", func(t *testing.T) {
		env.finish(t, user.ID, modules[1].Lessons[0].ID)
		_, err := env.progressService.GetQuestion(ctx, user.ID, modules[1].Lessons[1].ID, 1)
		if !errors.Is(err, ErrLessonEmpty) {
			t.Errorf("GetQuestion() error = %v, want %v", err, ErrLessonEmpty)
		}
	})
}

func TestBuildOptions(t *testing.T) {
	tests := []struct {
		name       string
		candidates []string
	}{
		{"plenty of words", []string{"a", "b", "c", "d", "e"}},
		{"too few words", []string{"a"}},
		{"no words", nil},
		{"duplicates and blanks", []string{"a", "a", "", "hello"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			options := buildOptions("hello", tt.candidates)
			if len(options) != optionsPerQuestion {
				t.Fatalf("buildOptions() returned %d options, want %d", len(options), optionsPerQuestion)
			}
			seen := map[string]bool{}
			for _, o := range options {
				if seen[o.Text] {
					t.Errorf("buildOptions() repeated option %q", o.Text)
				}
				seen[o.Text] = true
				if o.IsCorrect != (o.Text == "hello") {
					t.Errorf("option %q IsCorrect = %v", o.Text, o.IsCorrect)
				}
			}
			if !seen["hello"] {
				t.Error("buildOptions() dropped the correct word")
			}
		})
	}
}
