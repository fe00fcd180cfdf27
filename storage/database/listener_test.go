package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/gmao/core/events"
)

func TestParseNotification(t *testing.T) {
	evt, err := ParseNotification(`{"type":"UPDATE","task_id":"2f1c","assigned_to":"9a7e","at":"2024-03-01T10:15:30.123456+01:00"}`)
	require.NoError(t, err)
	assert.Equal(t, events.Event{
		Type:       events.TypeUpdate,
		TaskID:     "2f1c",
		AssignedTo: "9a7e",
		At:         time.Date(2024, 3, 1, 9, 15, 30, 123456000, time.UTC),
	}, evt)

	_, err = ParseNotification(`{"type":"DELETE"}`)
	assert.Error(t, err)

	_, err = ParseNotification(`not json`)
	assert.Error(t, err)
}
