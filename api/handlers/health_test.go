package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/linesmerrill/league-invite-api/databases/mocks"
)

func TestHealthCheckPingsDatabase(t *testing.T) {
	client := &mocks.ClientHelper{}
	db := &mocks.DatabaseHelper{}
	db.On("Client").Return(client)
	client.On("Ping", mock.Anything).Return(nil)

	a := &App{dbHelper: db}
	w := httptest.NewRecorder()
	a.healthCheckHandler(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"alive":true`)
	client.AssertExpectations(t)
}

func TestHealthCheckDatabaseDown(t *testing.T) {
	client := &mocks.ClientHelper{}
	db := &mocks.DatabaseHelper{}
	db.On("Client").Return(client)
	client.On("Ping", mock.Anything).Return(errors.New("server selection timeout"))

	a := &App{dbHelper: db}
	w := httptest.NewRecorder()
	a.healthCheckHandler(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "database unreachable")
}
