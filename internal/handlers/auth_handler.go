package handlers

import (
	"net/http"
	"time"

	"signlearn/internal/models"
	"signlearn/internal/security"
	"signlearn/internal/service"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService          *service.AuthService
	csrf                 *security.CSRFTokens
	oauthProviders       map[string]OAuthProvider
	oauthRedirectBaseURL string
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, csrf *security.CSRFTokens, oauthProviders map[string]OAuthProvider, oauthRedirectBaseURL string) *AuthHandler {
	return &AuthHandler{
		authService:          authService,
		csrf:                 csrf,
		oauthProviders:       oauthProviders,
		oauthRedirectBaseURL: oauthRedirectBaseURL,
	}
}

type registerRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	Name            string `json:"name"`
	About           string `json:"about"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	User      *models.User `json:"user"`
	CSRFToken string       `json:"csrf_token,omitempty"`
	ExpiresAt time.Time    `json:"expires_at"`
}

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Register creates an account and logs the new user in
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req, maxBodyBytes); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}

	user, err := h.authService.Register(r.Context(), service.RegisterInput{
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
		Name:            req.Name,
		About:           req.About,
	})
	if err != nil {
		respondServiceError(w, "Error registering user", err)
		return
	}

	// Auto-login after registration
	session, err := h.authService.CreateSession(r.Context(), user.ID)
	if err != nil {
		respondServiceError(w, "Error creating session after registration", err)
		return
	}

	h.startSession(w, r, http.StatusCreated, session, user)
}

// Login authenticates with email and password and sets the session cookie
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req, maxBodyBytes); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}

	session, user, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(w, "Error logging in", err)
		return
	}

	h.startSession(w, r, http.StatusOK, session, user)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, status int, session *models.Session, user *models.User) {
	http.SetCookie(w, security.CreateSessionCookie(r, session.ID, session.ExpiresAt))

	csrfToken, err := h.csrf.Issue(session.ID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error generating CSRF token", err)
		return
	}

	writeJSON(w, status, apiResponse{Success: true, Data: sessionResponse{
		User:      user,
		CSRFToken: csrfToken,
		ExpiresAt: session.ExpiresAt,
	}})
}

// Logout deletes the session and clears the cookie
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		if err := h.authService.Logout(r.Context(), cookie.Value); err != nil {
			respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error logging out", err)
			return
		}
	}

	http.SetCookie(w, security.CreateDeleteCookie(r, SessionCookieName))
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "Logged out"})
}

// Token exchanges email and password for a bearer access token
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req, maxBodyBytes); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}

	token, expiresAt, err := h.authService.IssueAccessToken(r.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(w, "Error issuing access token", err)
		return
	}

	respondOK(w, tokenResponse{AccessToken: token, TokenType: "Bearer", ExpiresAt: expiresAt})
}

// Me returns the authenticated user and, for cookie sessions, the CSRF token
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	resp := sessionResponse{User: user}
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		resp.CSRFToken, _ = h.csrf.Issue(cookie.Value)
	}
	respondOK(w, resp)
}
