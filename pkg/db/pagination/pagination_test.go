package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampPageSize(t *testing.T) {
	assert.Equal(t, 10, ClampPageSize(0, 10, 50))
	assert.Equal(t, 10, ClampPageSize(-3, 10, 50))
	assert.Equal(t, 25, ClampPageSize(25, 10, 50))
	assert.Equal(t, 50, ClampPageSize(500, 10, 50))
}

func TestCursorRoundTrip(t *testing.T) {
	token, err := EncodeCursor(Cursor{ID: "7", CreatedAt: "2026-03-01T09:00:00Z"})
	require.NoError(t, err)

	got, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.Equal(t, "7", got.ID)
	assert.Equal(t, "2026-03-01T09:00:00Z", got.CreatedAt)

	_, err = DecodeCursor("%%")
	assert.Error(t, err)
}

func TestBuildCursorPageInfo(t *testing.T) {
	one, two, three := 1, 2, 3
	items := []*int{&one, &two, &three}
	extract := func(v *int) string { return string(rune('0' + *v)) }

	info := BuildCursorPageInfo(items, 2, extract)
	assert.True(t, info.HasMore)
	assert.Equal(t, "2", info.NextPageToken)

	info = BuildCursorPageInfo(items[:2], 2, extract)
	assert.False(t, info.HasMore)
	assert.Empty(t, info.NextPageToken)

	info = BuildCursorPageInfo([]*int{}, 2, extract)
	assert.False(t, info.HasMore)
}
