package cache

import (
	"testing"
	"time"

	"github.com/phrazzld/tasklist-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecPreservesTask(t *testing.T) {
	desc := "two litres"
	due := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	created := time.Date(2025, 2, 1, 10, 30, 0, 0, time.UTC)
	task := domain.Task{
		ID:          42,
		OwnerID:     1,
		Title:       "buy milk",
		Description: &desc,
		DueDate:     &due,
		CreatedAt:   created,
		UpdatedAt:   created,
	}

	payload, err := Marshal(task)
	require.NoError(t, err)

	var got domain.Task
	require.NoError(t, Unmarshal(payload, &got))

	assert.Equal(t, task.ID, got.ID)
	assert.Equal(t, task.Title, got.Title)
	require.NotNil(t, got.Description)
	assert.Equal(t, desc, *got.Description)
	require.NotNil(t, got.DueDate)
	assert.True(t, due.Equal(*got.DueDate))
	assert.True(t, created.Equal(got.CreatedAt))
	assert.Nil(t, got.DeletedAt)
}

func TestCodecPreservesEmptyList(t *testing.T) {
	payload, err := Marshal([]*domain.Task{})
	require.NoError(t, err)

	var got []*domain.Task
	require.NoError(t, Unmarshal(payload, &got))
	assert.NotNil(t, got, "an empty cached list must decode as empty, not nil")
	assert.Empty(t, got)
}

func TestUnmarshalRejectsGarbage(t *testing.T) {
	var got domain.Task
	err := Unmarshal([]byte{0xc1}, &got)
	assert.Error(t, err)
}
