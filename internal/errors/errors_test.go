package errors

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "without cause",
			err:  NewValidationError("start date is after end date"),
			want: "[VALIDATION] start date is after end date",
		},
		{
			name: "with cause",
			err:  NewLoadError("unparseable date in row 3", errors.New("bad format")),
			want: "[LOAD] unparseable date in row 3: bad format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := NewForecastError("model fit failed", cause)

	assert.ErrorIs(t, err, cause)
}

func TestIsType(t *testing.T) {
	loadErr := NewLoadError("missing column", nil)
	wrapped := fmt.Errorf("load dataset: %w", loadErr)

	assert.True(t, IsType(loadErr, ErrTypeLoad))
	assert.True(t, IsType(wrapped, ErrTypeLoad))
	assert.False(t, IsType(loadErr, ErrTypeForecast))
	assert.False(t, IsType(errors.New("plain"), ErrTypeLoad))
}

func TestErrorHandler_StatusMapping(t *testing.T) {
	handler := NewErrorHandler(nil)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "validation maps to 400",
			err:        NewValidationError("bad filter"),
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION",
		},
		{
			name:       "load maps to 422",
			err:        NewLoadError("missing Date column", nil),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "LOAD",
		},
		{
			name:       "forecast maps to 422",
			err:        NewForecastError("insufficient history", nil),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "FORECAST",
		},
		{
			name:       "not found maps to 404",
			err:        NewNotFoundError("dataset"),
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
		},
		{
			name:       "unknown maps to 500",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_SERVER_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := handler.toAPIError(tt.err)
			require.NotNil(t, apiErr)
			assert.Equal(t, tt.wantStatus, apiErr.StatusCode)
			assert.Equal(t, tt.wantCode, apiErr.ErrorCode)
		})
	}
}

func TestErrorHandler_HandleError(t *testing.T) {
	handler := NewErrorHandler(nil)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/report", nil)

	handler.HandleError(w, r, NewValidationError("start date is after end date"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "start date is after end date")
}
