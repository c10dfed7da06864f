package examsift

import "errors"

var (
	// ErrUploadNotFound is returned when an upload ID does not exist.
	ErrUploadNotFound = errors.New("examsift: upload not found")

	// ErrQuestionNotFound is returned when a question number does not exist.
	ErrQuestionNotFound = errors.New("examsift: question not found")

	// ErrRenderFailed is returned when a document cannot be rendered to
	// page images.
	ErrRenderFailed = errors.New("examsift: page rendering failed")

	// ErrNoQuestions is returned when saving a result that contains no
	// question records.
	ErrNoQuestions = errors.New("examsift: no questions to save")

	// ErrInvalidConfig is returned for invalid configuration values.
	ErrInvalidConfig = errors.New("examsift: invalid configuration")
)
