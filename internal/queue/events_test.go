package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMediaEvent_RoundTripThroughStreamValues(t *testing.T) {
	event := NewUploadOrphanedEvent("f1", "f2")

	values, err := event.ToMap()
	require.NoError(t, err)
	assert.Equal(t, EventUploadOrphaned, values["type"])

	parsed, err := ParseMediaEvent(values)
	require.NoError(t, err)
	assert.Equal(t, []string{"f1", "f2"}, parsed.FileIDs)
	assert.Equal(t, EventUploadOrphaned, parsed.Type)
}

func TestParseMediaEvent_MissingData(t *testing.T) {
	_, err := ParseMediaEvent(map[string]interface{}{"type": EventPostCreated})
	assert.Error(t, err)
}

func TestParseMediaEvent_BadJSON(t *testing.T) {
	_, err := ParseMediaEvent(map[string]interface{}{"data": "{not json"})
	assert.Error(t, err)
}
