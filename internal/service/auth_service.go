package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"signlearn/internal/database"
	"signlearn/internal/models"
	"signlearn/internal/repository"
	"signlearn/internal/security"
	"signlearn/internal/validation"
)

var (
	ErrEmailTaken         = errors.New("email already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
)

// WelcomeNotifier greets newly registered users
type WelcomeNotifier interface {
	SendWelcomeEmail(ctx context.Context, toEmail, toName string) error
}

// RegisterInput holds the fields of the registration form
type RegisterInput struct {
	Email           string
	Password        string
	PasswordConfirm string
	Name            string
	About           string
}

// AuthService handles authentication business logic
type AuthService struct {
	db              *database.DB
	userRepo        *repository.UserRepository
	catalogRepo     *repository.CatalogRepository
	progressRepo    *repository.ProgressRepository
	tokens          *security.TokenManager
	welcome         WelcomeNotifier
	sessionDuration time.Duration
}

// NewAuthService creates a new auth service. welcome may be nil.
func NewAuthService(db *database.DB, userRepo *repository.UserRepository, catalogRepo *repository.CatalogRepository,
	progressRepo *repository.ProgressRepository, tokens *security.TokenManager, welcome WelcomeNotifier, sessionDuration time.Duration) *AuthService {
	return &AuthService{
		db:              db,
		userRepo:        userRepo,
		catalogRepo:     catalogRepo,
		progressRepo:    progressRepo,
		tokens:          tokens,
		welcome:         welcome,
		sessionDuration: sessionDuration,
	}
}

// Register creates a new user account with an empty progress row for every module
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Name = strings.TrimSpace(input.Name)

	for _, err := range []error{
		validation.ValidateEmail(input.Email),
		validation.ValidatePassword(input.Password),
		validation.ValidatePasswordConfirmation(input.Password, input.PasswordConfirm),
		validation.ValidateName(input.Name),
		validation.ValidateAbout(input.About),
	} {
		if err != nil {
			return nil, validationError(err)
		}
	}

	existingUser, err := s.userRepo.GetUserByEmail(ctx, input.Email)
	if err != nil {
		return nil, storageError(s.db.GetDialect(), "failed to check existing user", err)
	}
	if existingUser != nil {
		return nil, ErrEmailTaken
	}

	passwordHash, err := security.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.createUserWithProgress(ctx, input.Email, passwordHash, input.Name, input.About)
	if err != nil {
		return nil, err
	}

	if s.welcome != nil {
		if err := s.welcome.SendWelcomeEmail(ctx, user.Email, user.Name); err != nil {
			log.Printf("Error sending welcome email to %s: %v", user.Email, err)
		}
	}
	return user, nil
}

// createUserWithProgress inserts the user and one progress row per existing module in one transaction
func (s *AuthService) createUserWithProgress(ctx context.Context, email, passwordHash, name, about string) (*models.User, error) {
	var user *models.User
	err := s.db.InTx(ctx, func(tx *database.Tx) error {
		var err error
		user, err = s.userRepo.WithTx(tx).CreateUser(ctx, email, passwordHash, name, about)
		if err != nil {
			if tx.GetDialect().IsUniqueViolation(err) {
				return ErrEmailTaken
			}
			return err
		}

		modules, err := s.catalogRepo.WithTx(tx).GetModules(ctx)
		if err != nil {
			return err
		}
		progress := s.progressRepo.WithTx(tx)
		for _, module := range modules {
			if err := progress.EnsureModuleProgress(ctx, user.ID, module.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, ErrEmailTaken) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, storageError(s.db.GetDialect(), "failed to create user", err)
	}
	return user, nil
}

// authenticate checks an email and password pair
func (s *AuthService) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.userRepo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, storageError(s.db.GetDialect(), "failed to get user", err)
	}
	if user == nil || user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if !security.CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Login authenticates a user and creates a session
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.Session, *models.User, error) {
	user, err := s.authenticate(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}

	session, err := s.CreateSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return session, user, nil
}

// CreateSession starts a new session for a user
func (s *AuthService) CreateSession(ctx context.Context, userID int64) (*models.Session, error) {
	sessionID := security.GenerateSessionID()
	expiresAt := time.Now().Add(s.sessionDuration)

	session, err := s.userRepo.CreateSession(ctx, sessionID, userID, expiresAt)
	if err != nil {
		return nil, storageError(s.db.GetDialect(), "failed to create session", err)
	}
	return session, nil
}

// ValidateSession checks if a session is valid and returns the associated user
func (s *AuthService) ValidateSession(ctx context.Context, sessionID string) (*models.User, error) {
	session, err := s.userRepo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, storageError(s.db.GetDialect(), "failed to get session", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	if session.IsExpired() {
		if err := s.userRepo.DeleteSession(ctx, sessionID); err != nil {
			log.Printf("Error deleting expired session: %v", err)
		}
		return nil, ErrSessionExpired
	}

	user, err := s.userRepo.GetUserByID(ctx, session.UserID)
	if err != nil {
		return nil, storageError(s.db.GetDialect(), "failed to get user", err)
	}
	if user == nil {
		return nil, ErrSessionNotFound
	}
	return user, nil
}

// Logout invalidates a session
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.userRepo.DeleteSession(ctx, sessionID); err != nil {
		return storageError(s.db.GetDialect(), "failed to logout", err)
	}
	return nil
}

// CleanupExpiredSessions removes expired sessions and returns how many were removed
func (s *AuthService) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	n, err := s.userRepo.DeleteExpiredSessions(ctx)
	if err != nil {
		return 0, storageError(s.db.GetDialect(), "failed to cleanup sessions", err)
	}
	return n, nil
}

// IssueAccessToken exchanges credentials for a bearer token
func (s *AuthService) IssueAccessToken(ctx context.Context, email, password string) (string, time.Time, error) {
	user, err := s.authenticate(ctx, email, password)
	if err != nil {
		return "", time.Time{}, err
	}
	return s.tokens.Generate(user.ID)
}

// ValidateAccessToken returns the user a bearer token was issued for
func (s *AuthService) ValidateAccessToken(ctx context.Context, token string) (*models.User, error) {
	userID, err := s.tokens.Validate(token)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, storageError(s.db.GetDialect(), "failed to get user", err)
	}
	if user == nil {
		return nil, ErrSessionNotFound
	}
	return user, nil
}

// OAuthLogin authenticates or creates a user using an OAuth provider
func (s *AuthService) OAuthLogin(ctx context.Context, provider, subject, email, name string) (*models.Session, *models.User, error) {
	if provider == "" || subject == "" {
		return nil, nil, errors.New("missing oauth provider information")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validation.ValidateEmail(email); err != nil {
		return nil, nil, validationError(err)
	}

	user, err := s.userRepo.GetUserByOAuth(ctx, provider, subject)
	if err != nil {
		return nil, nil, storageError(s.db.GetDialect(), "failed to lookup oauth user", err)
	}

	if user == nil {
		existingUser, err := s.userRepo.GetUserByEmail(ctx, email)
		if err != nil {
			return nil, nil, storageError(s.db.GetDialect(), "failed to check existing user", err)
		}
		if existingUser != nil {
			if existingUser.OAuthProvider != "" && existingUser.OAuthProvider != provider {
				return nil, nil, ErrEmailTaken
			}
			if err := s.userRepo.LinkOAuthProvider(ctx, existingUser.ID, provider, subject); err != nil {
				return nil, nil, storageError(s.db.GetDialect(), "failed to link oauth provider", err)
			}
			user = existingUser
		} else {
			if name == "" {
				name = strings.Split(email, "@")[0]
			}
			newUser, err := s.createUserWithProgress(ctx, email, "", name, "")
			if err != nil {
				return nil, nil, err
			}
			if err := s.userRepo.LinkOAuthProvider(ctx, newUser.ID, provider, subject); err != nil {
				return nil, nil, storageError(s.db.GetDialect(), "failed to link oauth provider", err)
			}
			user = newUser

			if s.welcome != nil {
				if err := s.welcome.SendWelcomeEmail(ctx, user.Email, user.Name); err != nil {
					log.Printf("Error sending welcome email to %s: %v", user.Email, err)
				}
			}
		}
	}

	session, err := s.CreateSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return session, user, nil
}
