package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "bare object", content: `{"questions": ["Q1"]}`},
		{name: "json fence", content: "```json\n{\"questions\": [\"Q1\"]}\n```"},
		{name: "plain fence", content: "```\n{\"questions\": [\"Q1\"]}\n```"},
		{name: "surrounding whitespace", content: "  \n{\"questions\": [\"Q1\"]}\n  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := ExtractJSON(tt.content)
			require.NoError(t, err)

			obj, ok := AsObject(parsed)
			require.True(t, ok)
			assert.Contains(t, obj, "questions")
		})
	}
}

func TestExtractJSONArray(t *testing.T) {
	parsed, err := ExtractJSON(`["a", "b"]`)
	require.NoError(t, err)

	_, ok := AsObject(parsed)
	assert.False(t, ok, "arrays are valid JSON but not objects")
	assert.Equal(t, []interface{}{"a", "b"}, parsed)
}

func TestExtractJSONMalformed(t *testing.T) {
	_, err := ExtractJSON("I'm sorry, I cannot produce JSON for that.")
	require.Error(t, err)
	assert.Equal(t, KindParse, KindOf(err))
	assert.Contains(t, err.Error(), "malformed JSON")
}

func TestExtractJSONTruncatesLongSnippets(t *testing.T) {
	long := "not json " + strings.Repeat("x", 500)
	_, err := ExtractJSON(long)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "...")
	assert.Less(t, len(err.Error()), 400)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindAuth, KindOf(NewError(KindAuth, "bad key", nil)))
	assert.Equal(t, KindTransport, KindOf(assert.AnError), "unclassified errors default to transport")
}

func TestClassifyStatus(t *testing.T) {
	assert.Equal(t, KindAuth, classifyStatus(401))
	assert.Equal(t, KindAuth, classifyStatus(403))
	assert.Equal(t, KindRateLimit, classifyStatus(429))
	assert.Equal(t, KindTransport, classifyStatus(500))
	assert.Equal(t, KindTransport, classifyStatus(404))
}
