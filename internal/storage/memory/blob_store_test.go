package memory

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlobStorePutObjectCopiesData(t *testing.T) {
	t.Parallel()

	store := NewBlobStore()
	payload := []byte("content")
	uri, err := store.PutObject(context.Background(), "exports/leads.txt", "text/plain", bytes.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, "memory://exports/leads.txt", uri)

	payload[0] = 'C'
	obj, ok := store.Get("exports/leads.txt")
	require.True(t, ok)
	assert.Equal(t, "content", string(obj.Data))
	assert.Equal(t, "text/plain", obj.ContentType)

	obj.Data[0] = 'X'
	again, _ := store.Get("exports/leads.txt")
	assert.Equal(t, "content", string(again.Data))
}

func TestBlobStorePaths(t *testing.T) {
	t.Parallel()

	store := NewBlobStore()
	for _, p := range []string{"leads.txt", "leads.csv", "leads.json"} {
		_, err := store.PutObject(context.Background(), p, "", bytes.NewReader(nil))
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"leads.csv", "leads.json", "leads.txt"}, store.Paths())

	_, ok := store.Get("missing")
	assert.False(t, ok)

	_, err := store.PutObject(context.Background(), "", "", bytes.NewReader(nil))
	assert.Error(t, err)
}
