package intake

import "errors"

var (
	ErrInvalidSubject = errors.New("subject id must not be empty")
	ErrNotSubmitted   = errors.New("questionnaire result could not be saved")
)
