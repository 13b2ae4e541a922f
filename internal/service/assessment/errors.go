package assessment

import (
	"errors"

	"github.com/healthalyze/healthalyze_backend/internal/repo"
)

var (
	ErrNotFound       = repo.ErrNotFound
	ErrInvalidSubject = errors.New("subject id must not be empty")
)
