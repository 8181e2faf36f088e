package handlers

import "signlearn/internal/security"

const (
	SessionCookieName = security.SessionCookieName
	CSRFHeaderName    = security.CSRFHeader

	// maxBodyBytes bounds JSON request bodies; curriculum imports use maxCurriculumBytes
	maxBodyBytes       = 1 << 20
	maxCurriculumBytes = 8 << 20

	ErrInvalidJSON         = "Invalid JSON body"
	ErrInvalidID           = "Invalid id"
	ErrUnauthorized        = "Unauthorized"
	ErrInternalServerError = "Internal server error"
)
