package acp

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContentBlockRoundTrip(t *testing.T) {
	t.Parallel()

	blocks := []ContentBlock{
		TextBlock("hello"),
		{Type: ContentImage, Data: "base64data", MimeType: "image/png"},
		{Type: ContentResourceLink, URI: "file:///a.go", Name: "a.go"},
		{Type: ContentResource, Resource: &EmbeddedResource{URI: "file:///b.go", Text: "package b"}},
	}

	for _, want := range blocks {
		raw, err := json.Marshal(want)
		require.NoError(t, err)

		var got ContentBlock
		require.NoError(t, json.Unmarshal(raw, &got))
		require.Equal(t, want, got)
	}
}

func TestContentBlockUnknownTypeRejected(t *testing.T) {
	t.Parallel()

	var block ContentBlock
	err := json.Unmarshal([]byte(`{"type":"telepathy"}`), &block)
	require.Error(t, err)
}

func TestContentBlockImageRequiresDataOrURI(t *testing.T) {
	t.Parallel()

	var block ContentBlock
	err := json.Unmarshal([]byte(`{"type":"image"}`), &block)
	require.Error(t, err)
}

func TestEmbeddedResourceIsText(t *testing.T) {
	t.Parallel()

	text := EmbeddedResource{URI: "file:///x", Text: "hi"}
	require.True(t, text.IsText())

	blob := EmbeddedResource{URI: "file:///x", Blob: "aGk="}
	require.False(t, blob.IsText())
}
