package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"signlearn/internal/database"
	"signlearn/internal/models"
	"signlearn/internal/repository"
	"signlearn/internal/validation"
)

// ImportResult holds the result of a curriculum import
type ImportResult struct {
	Modules         int `json:"modules"`
	Lessons         int `json:"lessons"`
	Gestures        int `json:"gestures"`
	ReusedGestures  int `json:"reused_gestures"`
	UsersBackfilled int `json:"users_backfilled"`
}

// CatalogService loads and exports the curriculum
type CatalogService struct {
	db           *database.DB
	catalogRepo  *repository.CatalogRepository
	progressRepo *repository.ProgressRepository
	userRepo     *repository.UserRepository
}

// NewCatalogService creates a new catalog service
func NewCatalogService(db *database.DB, catalogRepo *repository.CatalogRepository, progressRepo *repository.ProgressRepository, userRepo *repository.UserRepository) *CatalogService {
	return &CatalogService{
		db:           db,
		catalogRepo:  catalogRepo,
		progressRepo: progressRepo,
		userRepo:     userRepo,
	}
}

// ValidateCurriculum checks a curriculum before it is imported. Gestures
// without an explicit order are numbered by their position.
func ValidateCurriculum(c *models.Curriculum) error {
	if len(c.Modules) == 0 {
		return validation.ValidationError{Field: "modules", Message: "curriculum has no modules"}
	}

	for mi := range c.Modules {
		module := &c.Modules[mi]
		module.Title = strings.TrimSpace(module.Title)
		if module.Title == "" {
			return validation.ValidationError{Field: fmt.Sprintf("modules[%d].title", mi), Message: "title is required"}
		}

		lessonOrders := make(map[int]bool, len(module.Lessons))
		for li := range module.Lessons {
			lesson := &module.Lessons[li]
			field := fmt.Sprintf("modules[%d].lessons[%d]", mi, li)

			lesson.Title = strings.TrimSpace(lesson.Title)
			if lesson.Title == "" {
				return validation.ValidationError{Field: field + ".title", Message: "title is required"}
			}
			if !lesson.Type.Valid() {
				return validation.ValidationError{Field: field + ".type", Message: fmt.Sprintf("unknown lesson type %q", lesson.Type)}
			}
			if lesson.Order == 0 {
				lesson.Order = li + 1
			}
			if lessonOrders[lesson.Order] {
				return validation.ValidationError{Field: field + ".order", Message: fmt.Sprintf("duplicate lesson order %d", lesson.Order)}
			}
			lessonOrders[lesson.Order] = true

			if err := normalizeGestureOrder(field, lesson.Gestures); err != nil {
				return err
			}
		}
	}
	return nil
}

// normalizeGestureOrder fills in missing orders and requires 1..n without gaps
func normalizeGestureOrder(field string, gestures []models.CurriculumGesture) error {
	seen := make(map[int]bool, len(gestures))
	for gi := range gestures {
		g := &gestures[gi]
		g.Word = strings.TrimSpace(g.Word)
		g.Video = strings.TrimSpace(g.Video)
		if g.Word == "" {
			return validation.ValidationError{Field: fmt.Sprintf("%s.gestures[%d].word", field, gi), Message: "word is required"}
		}
		if g.Video == "" {
			return validation.ValidationError{Field: fmt.Sprintf("%s.gestures[%d].video", field, gi), Message: "video is required"}
		}
		if g.Order == 0 {
			g.Order = gi + 1
		}
		if g.Order < 1 || g.Order > len(gestures) || seen[g.Order] {
			return validation.ValidationError{Field: field + ".gestures", Message: "gesture order must run from 1 to the number of gestures without gaps"}
		}
		seen[g.Order] = true
	}
	return nil
}

// Import adds a curriculum to the catalog in one transaction. Gestures with
// the same word and video are reused. Every existing user gets an empty
// progress row for each new module.
func (s *CatalogService) Import(ctx context.Context, c *models.Curriculum) (*ImportResult, error) {
	if err := ValidateCurriculum(c); err != nil {
		return nil, validationError(err)
	}

	result := &ImportResult{}
	err := s.db.InTx(ctx, func(tx *database.Tx) error {
		catalog := s.catalogRepo.WithTx(tx)
		progress := s.progressRepo.WithTx(tx)

		userIDs, err := s.userRepo.WithTx(tx).GetAllUserIDs(ctx)
		if err != nil {
			return err
		}
		existingModules, err := catalog.CountModules(ctx)
		if err != nil {
			return err
		}

		gestureCache := make(map[[2]string]int64)
		for mi, cm := range c.Modules {
			order := cm.Order
			if order == 0 {
				order = existingModules + mi + 1
			}
			module, err := catalog.CreateModule(ctx, cm.Title, cm.Description, order)
			if err != nil {
				return err
			}
			result.Modules++

			for _, cl := range cm.Lessons {
				lesson, err := catalog.CreateLesson(ctx, module.ID, cl.Title, cl.Type, cl.Order)
				if err != nil {
					return err
				}
				result.Lessons++

				for _, cg := range cl.Gestures {
					gestureID, reused, err := s.findOrCreateGesture(ctx, catalog, gestureCache, cg)
					if err != nil {
						return err
					}
					if reused {
						result.ReusedGestures++
					} else {
						result.Gestures++
					}
					if err := catalog.AddLessonGesture(ctx, lesson.ID, gestureID, cg.Order); err != nil {
						return err
					}
				}
			}

			for _, userID := range userIDs {
				if err := progress.EnsureModuleProgress(ctx, userID, module.ID); err != nil {
					return err
				}
			}
		}
		result.UsersBackfilled = len(userIDs)
		return nil
	})
	if err != nil {
		return nil, storageError(s.db.GetDialect(), "failed to import curriculum", err)
	}

	log.Printf("Imported curriculum: %d modules, %d lessons, %d new gestures", result.Modules, result.Lessons, result.Gestures)
	return result, nil
}

func (s *CatalogService) findOrCreateGesture(ctx context.Context, catalog *repository.CatalogRepository, cache map[[2]string]int64, cg models.CurriculumGesture) (int64, bool, error) {
	key := [2]string{cg.Word, cg.Video}
	if id, ok := cache[key]; ok {
		return id, true, nil
	}

	existing, err := catalog.FindGesture(ctx, cg.Word, cg.Video)
	if err != nil {
		return 0, false, err
	}
	if existing != nil {
		cache[key] = existing.ID
		return existing.ID, true, nil
	}

	gesture, err := catalog.CreateGesture(ctx, cg.Word, cg.Video, cg.Description)
	if err != nil {
		return 0, false, err
	}
	cache[key] = gesture.ID
	return gesture.ID, false, nil
}

// Export returns the whole catalog as a curriculum
func (s *CatalogService) Export(ctx context.Context) (*models.Curriculum, error) {
	modules, err := s.catalogRepo.GetModules(ctx)
	if err != nil {
		return nil, err
	}
	lessons, err := s.catalogRepo.GetAllLessons(ctx)
	if err != nil {
		return nil, err
	}
	gestures, err := s.catalogRepo.GetGestures(ctx)
	if err != nil {
		return nil, err
	}
	links, err := s.catalogRepo.GetLessonGestureLinks(ctx)
	if err != nil {
		return nil, err
	}

	gestureByID := make(map[int64]models.Gesture, len(gestures))
	for _, g := range gestures {
		gestureByID[g.ID] = g
	}
	linksByLesson := make(map[int64][]models.LessonGesture)
	for _, link := range links {
		linksByLesson[link.LessonID] = append(linksByLesson[link.LessonID], link)
	}
	lessonsByModule := make(map[int64][]models.Lesson)
	for _, l := range lessons {
		lessonsByModule[l.ModuleID] = append(lessonsByModule[l.ModuleID], l)
	}

	curriculum := &models.Curriculum{Modules: make([]models.CurriculumModule, 0, len(modules))}
	for _, m := range modules {
		cm := models.CurriculumModule{Title: m.Title, Description: m.Description, Order: m.OrderIndex}
		for _, l := range lessonsByModule[m.ID] {
			cl := models.CurriculumLesson{Title: l.Title, Type: l.LessonType, Order: l.OrderIndex}
			lessonLinks := linksByLesson[l.ID]
			sort.Slice(lessonLinks, func(i, j int) bool { return lessonLinks[i].OrderIndex < lessonLinks[j].OrderIndex })
			for _, link := range lessonLinks {
				g := gestureByID[link.GestureID]
				cl.Gestures = append(cl.Gestures, models.CurriculumGesture{
					Word:        g.Word,
					Video:       g.VideoReference,
					Description: g.Description,
					Order:       link.OrderIndex,
				})
			}
			cm.Lessons = append(cm.Lessons, cl)
		}
		curriculum.Modules = append(curriculum.Modules, cm)
	}
	return curriculum, nil
}

// SeedIfEmpty imports the curriculum returned by load when the catalog has no
// modules yet. A missing seed file is not an error.
func (s *CatalogService) SeedIfEmpty(ctx context.Context, path string, load func(path string) (*models.Curriculum, error)) error {
	count, err := s.catalogRepo.CountModules(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	curriculum, err := load(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Printf("No curriculum seed found at %s, starting with an empty catalog", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load curriculum seed: %w", err)
	}

	if _, err := s.Import(ctx, curriculum); err != nil {
		return fmt.Errorf("failed to seed curriculum: %w", err)
	}
	return nil
}
