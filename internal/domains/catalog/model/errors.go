package model

import (
	"errors"
	"net/http"

	"sizechart-backend/internal/shared"
)

// Error codes
const (
	ErrCodeChartNotFound = "CHART_NOT_FOUND"
)

// Errors
var (
	ErrChartNotFound    = errors.New("size chart not found")
	ErrInvalidLabelType = errors.New("invalid label type")
)

// chartNotFoundMessage is shared by every lookup miss so callers cannot
// tell which part of the address failed to match.
const chartNotFoundMessage = "Size chart not found"

func NewChartNotFoundError() *shared.AppError {
	return shared.NewAppError(http.StatusNotFound, ErrCodeChartNotFound, chartNotFoundMessage, ErrChartNotFound)
}

func NewInvalidLabelTypeError(value string) *shared.AppError {
	e := shared.NewValidationError("Invalid label type", map[string]string{
		"type": "unknown label type " + value,
	})
	e.Err = ErrInvalidLabelType
	return e
}
