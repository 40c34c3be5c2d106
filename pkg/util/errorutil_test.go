package util

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
)

func TestToDomainError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{name: "domain error passes through", err: NewForbidden("nope"), wantCode: "FORBIDDEN", wantStatus: http.StatusForbidden},
		{name: "wrapped domain error", err: fmt.Errorf("ctx: %w", NewBadRequest("bad")), wantCode: "BAD_REQUEST", wantStatus: http.StatusBadRequest},
		{name: "pgx no rows", err: pgx.ErrNoRows, wantCode: "NOT_FOUND", wantStatus: http.StatusNotFound},
		{name: "sql no rows", err: sql.ErrNoRows, wantCode: "NOT_FOUND", wantStatus: http.StatusNotFound},
		{name: "fiber error", err: fiber.NewError(http.StatusNotFound, "Cannot GET /x"), wantCode: "NOT_FOUND", wantStatus: http.StatusNotFound},
		{name: "unknown error", err: errors.New("boom"), wantCode: "INTERNAL_ERROR", wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToDomainError(tt.err)
			assert.Equal(t, tt.wantCode, got.Code)
			assert.Equal(t, tt.wantStatus, got.HTTPStatus)
		})
	}

	assert.Nil(t, ToDomainError(nil))
}

func TestInternalErrorHidesCause(t *testing.T) {
	err := ToDomainError(errors.New("pq: connection refused"))
	assert.Equal(t, "internal server error", err.Message)
	assert.ErrorContains(t, err, "connection refused")
}

func TestIsCode(t *testing.T) {
	assert.True(t, IsCode(fmt.Errorf("wrap: %w", NewUnauthorized("x")), "UNAUTHORIZED"))
	assert.False(t, IsCode(errors.New("x"), "UNAUTHORIZED"))
}
