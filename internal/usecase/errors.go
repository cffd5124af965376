package usecase

import (
	"errors"
	"fmt"
)

var (
	ErrEventNotFound        = errors.New("event not found")
	ErrPhotoNotFound        = errors.New("photo not found")
	ErrInvalidRotation      = errors.New("rotation must be one of 0, 90, 180, 270")
	ErrFilterDisabled       = errors.New("filter is disabled for this event")
	ErrExclusiveEntryPoints = errors.New("face search and bib search cannot be combined")
	ErrInvalidTimeRange     = errors.New("time range start is after its end")
	ErrFaceSearchFailed     = errors.New("face search failed")
	ErrBibDetectionFailed   = errors.New("bib detection failed")
	ErrEmptyFile            = errors.New("file is empty")
)

// StepError ошибка фатального шага пайплайна загрузки
type StepError struct {
	Step StepName
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s step failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
