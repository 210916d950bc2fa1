package services

import (
	"errors"

	apperrors "wastelens/internal/errors"
)

// Service-level sentinel errors
var (
	// ErrImportDisabled is returned when no external import source is
	// configured.
	ErrImportDisabled = errors.New("dataset import is not configured")
)

func apperrImportDisabled() error {
	return apperrors.NewConfigError("dataset import is not configured", ErrImportDisabled)
}

// isFatalForBundle separates dataset-level failures, which abort a
// combined forecast request, from per-metric model failures, which are
// reported alongside the surviving metric.
func isFatalForBundle(err error) bool {
	return apperrors.IsType(err, apperrors.ErrTypeNotFound) ||
		apperrors.IsType(err, apperrors.ErrTypeValidation)
}
