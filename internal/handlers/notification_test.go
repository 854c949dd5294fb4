package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/voyagery/voyagery-api/internal/apperrors"
	"github.com/voyagery/voyagery-api/internal/middleware"
	"github.com/voyagery/voyagery-api/internal/models"
	"github.com/voyagery/voyagery-api/pkg/dto"
	"github.com/voyagery/voyagery-api/tests/testutil"
)

func setupNotificationTest(user *models.User) (*testutil.MockNotificationService, http.Handler) {
	mockService := new(testutil.MockNotificationService)
	handler := NewNotificationHandler(mockService)

	app := drift.New()
	app.Use(authenticatedAs(user))

	api := app.Group("/api")
	api.Use(middleware.RequireAuth())
	api.Get("/notifications", handler.List)
	api.Patch("/notifications/:id", handler.MarkRead)
	api.Post("/notifications/read-all", handler.MarkAllRead)

	return mockService, app
}

func TestNotificationHandler_ListUnread(t *testing.T) {
	user := &models.User{ID: uuid.New(), Role: models.RoleGuide}
	mockService, app := setupNotificationTest(user)

	related := uuid.New()
	mockService.On("ListForUser", mock.Anything, user.ID, true).Return([]models.Notification{
		{ID: uuid.New(), UserID: user.ID, Type: models.NotificationRequestCreated, Message: "New consultation request", RelatedID: &related},
	}, nil)

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/notifications?unread=true", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var response []dto.NotificationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Len(t, response, 1)
	assert.Equal(t, models.NotificationRequestCreated, response[0].Type)
	assert.Equal(t, &related, response[0].RelatedID)
	mockService.AssertExpectations(t)
}

func TestNotificationHandler_MarkRead(t *testing.T) {
	user := &models.User{ID: uuid.New(), Role: models.RoleMigrant}
	mockService, app := setupNotificationTest(user)

	mine := uuid.New()
	theirs := uuid.New()
	mockService.On("MarkRead", mock.Anything, user.ID, mine).Return(nil)
	mockService.On("MarkRead", mock.Anything, user.ID, theirs).Return(apperrors.NotFound("notification not found"))

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/api/notifications/"+mine.String(), nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/api/notifications/"+theirs.String(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNotificationHandler_MarkAllRead(t *testing.T) {
	user := &models.User{ID: uuid.New(), Role: models.RoleMigrant}
	mockService, app := setupNotificationTest(user)

	mockService.On("MarkAllRead", mock.Anything, user.ID).Return(int64(3), nil)

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/notifications/read-all", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var response dto.MarkAllReadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, int64(3), response.Updated)
}
