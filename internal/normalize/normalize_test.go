package normalize

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threadprint/threadprint/internal/thread"
)

func decode(t *testing.T, raw string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &m))
	return m
}

func TestNormalize_NilNeverPanics(t *testing.T) {
	doc := Normalize(nil)
	assert.Equal(t, thread.ThreadPost, doc.Kind)
	assert.NotNil(t, doc.Items)
	assert.Zero(t, doc.ItemCount)

	var pd *thread.Document
	doc = Normalize(pd)
	assert.NotNil(t, doc.Items)
}

func TestNormalize_UnknownShapeYieldsEmpty(t *testing.T) {
	doc := Normalize(42)
	assert.Equal(t, thread.ThreadPost, doc.Kind)
	assert.Empty(t, doc.Items)
}

func TestNormalize_WrappedAndFlatShapesConverge(t *testing.T) {
	wrapped := decode(t, `{
		"type": "twitter_thread",
		"metadata": {
			"title": "Thread title",
			"url": "https://x.com/jane/status/111",
			"publishedTime": "2024-05-01T10:00:00Z",
			"author": {"name": "Jane Doe", "handle": "@janedoe"}
		},
		"tweets": [
			{"id": "tweet-111", "statusId": "111", "text": "hello", "selected": true}
		]
	}`)
	flat := decode(t, `{
		"type": "twitter_thread",
		"title": "Thread title",
		"url": "https://x.com/jane/status/111",
		"publishedTime": "2024-05-01T10:00:00Z",
		"author": "Jane Doe",
		"authorHandle": "@janedoe",
		"tweets": [
			{"id": "tweet-111", "statusId": "111", "text": "hello", "selected": true}
		]
	}`)

	a := Normalize(wrapped)
	b := Normalize(flat)
	assert.Equal(t, a, b)
	assert.Equal(t, "Thread title", a.Title)
	assert.Equal(t, "Jane Doe", a.Author.Name)
	assert.Equal(t, "@janedoe", a.Author.Handle)
	require.Len(t, a.Items, 1)
	assert.Equal(t, "111", a.Items[0].ExternalID)
}

func TestNormalize_StringImagesBecomeRecords(t *testing.T) {
	doc := Normalize(decode(t, `{
		"tweets": [
			{"text": "with media", "media": {
				"images": ["https://pbs.twimg.com/media/a.jpg", {"url": "https://pbs.twimg.com/media/b.jpg", "alt": "b", "width": 600}]
			}}
		]
	}`))
	require.Len(t, doc.Items, 1)
	imgs := doc.Items[0].Media.Images
	require.Len(t, imgs, 2)
	assert.Equal(t, "https://pbs.twimg.com/media/a.jpg", imgs[0].URL)
	assert.Equal(t, "b", imgs[1].Alt)
	assert.Equal(t, 600, imgs[1].Width)
}

func TestNormalize_DefaultsFilled(t *testing.T) {
	doc := Normalize(decode(t, `{"tweets": [{"text": "x"}, {"text": "y"}]}`))
	assert.Equal(t, thread.ThreadPost, doc.Kind)
	assert.Equal(t, "X (Twitter)", doc.SiteLabel)
	require.Len(t, doc.Items, 2)
	assert.Equal(t, "tweet-0", doc.Items[0].ID)
	assert.Equal(t, "tweet-1", doc.Items[1].ID)
	assert.Equal(t, 0, doc.Items[0].Ordinal)
	assert.Equal(t, 1, doc.Items[1].Ordinal)
	assert.True(t, doc.Items[0].Selected, "selection defaults on")
	assert.Equal(t, 2, doc.ItemCount)
}

func TestNormalize_SelectedFalsePreserved(t *testing.T) {
	doc := Normalize(decode(t, `{"tweets": [{"text": "x", "selected": false}]}`))
	require.Len(t, doc.Items, 1)
	assert.False(t, doc.Items[0].Selected)
}

func TestNormalize_CanonicalIdempotent(t *testing.T) {
	doc := Normalize(decode(t, `{
		"metadata": {"title": "T", "author": {"name": "A", "handle": "@a"}},
		"tweets": [{"text": "one"}, {"text": "two", "media": {"images": ["https://pbs.twimg.com/x.jpg"]}}]
	}`))
	again := Normalize(doc)
	assert.Equal(t, doc, again)
}

func TestNormalize_EngagementNumbers(t *testing.T) {
	doc := Normalize(decode(t, `{"tweets": [{"text": "x", "engagement": {"replies": 3, "likes": 1200}}]}`))
	require.Len(t, doc.Items, 1)
	assert.Equal(t, 3, doc.Items[0].Engagement.Replies)
	assert.Equal(t, 1200, doc.Items[0].Engagement.Likes)
}

func TestNormalize_GenericKind(t *testing.T) {
	doc := Normalize(decode(t, `{"type": "generic", "title": "Article", "tweets": [{"text": "body"}]}`))
	assert.Equal(t, thread.GenericArticle, doc.Kind)
}

func TestNormalize_MalformedEntriesSkipped(t *testing.T) {
	doc := Normalize(decode(t, `{"tweets": [{"text": "good"}, "not an object", 17]}`))
	require.Len(t, doc.Items, 1)
	assert.Equal(t, "good", doc.Items[0].Text)
}
