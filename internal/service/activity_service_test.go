package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/freelance-marketplace/internal/models"
	"github.com/ignatzorin/freelance-marketplace/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-marketplace/internal/policy"
	"github.com/ignatzorin/freelance-marketplace/internal/repository"
)

func TestActivityService_Record(t *testing.T) {
	store := new(mockActivityStore)
	svc := NewActivityService(store)
	store.On("Create", mock.Anything, mock.AnythingOfType("*models.Activity")).Return(nil)

	projectID := uuid.New()
	a, err := svc.Record(context.Background(), ActivityInput{
		UserID:    uuid.New(),
		Type:      ActivityProjectCreated,
		Title:     "Проект опубликован",
		Icon:      "briefcase",
		ProjectID: &projectID,
		Metadata:  map[string]int{"views": 3},
	})
	require.NoError(t, err)
	assert.Nil(t, a.Description)
	assert.Equal(t, "briefcase", *a.Icon)
	assert.JSONEq(t, `{"views":3}`, string(a.Metadata))
}

func TestActivityService_MarkRead(t *testing.T) {
	store := new(mockActivityStore)
	svc := NewActivityService(store)

	owner := policy.Actor{ID: uuid.New(), Role: models.RoleFreelance}
	a := &models.Activity{ID: uuid.New(), UserID: owner.ID}
	missing := uuid.New()
	store.On("GetByID", mock.Anything, a.ID).Return(a, nil)
	store.On("GetByID", mock.Anything, missing).Return(nil, repository.ErrActivityNotFound)
	store.On("MarkRead", mock.Anything, a.ID).Return(nil)

	other := policy.Actor{ID: uuid.New(), Role: models.RoleFreelance}
	assert.True(t, apperror.IsNotFound(svc.MarkRead(context.Background(), other, missing)))
	assert.True(t, apperror.IsForbidden(svc.MarkRead(context.Background(), other, a.ID)))
	require.NoError(t, svc.MarkRead(context.Background(), owner, a.ID))
	store.AssertNumberOfCalls(t, "MarkRead", 1)
}

func TestActivityService_MarkAllRead(t *testing.T) {
	store := new(mockActivityStore)
	svc := NewActivityService(store)
	actor := policy.Actor{ID: uuid.New(), Role: models.RoleClient}
	store.On("MarkAllRead", mock.Anything, actor.ID).Return(int64(7), nil)

	n, err := svc.MarkAllRead(context.Background(), actor)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}
