package domain

import "github.com/google/uuid"

// Viewer тот, кто смотрит галерею: аккаунт, гость с email или аноним
type Viewer struct {
	UserID *uuid.UUID
	Email  string
}

// NewViewer создаёт зрителя с нормализованным email
func NewViewer(userID *uuid.UUID, email string) Viewer {
	return Viewer{UserID: userID, Email: NormalizeEmail(email)}
}

func (v Viewer) IsAnonymous() bool {
	return v.UserID == nil && v.Email == ""
}
