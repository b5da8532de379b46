package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectionKey(t *testing.T) {
	tests := []struct {
		name  string
		a, b  []string
		equal bool
	}{
		{
			name:  "order does not matter",
			a:     []string{"c1", "c2", "c3"},
			b:     []string{"c3", "c1", "c2"},
			equal: true,
		},
		{
			name:  "duplicates and blanks ignored",
			a:     []string{"c1", "c2", "c2", " "},
			b:     []string{" c2", "c1"},
			equal: true,
		},
		{
			name:  "different membership",
			a:     []string{"c1", "c2"},
			b:     []string{"c1", "c3"},
			equal: false,
		},
		{
			name:  "subset is not equal",
			a:     []string{"c1", "c2"},
			b:     []string{"c1", "c2", "c3"},
			equal: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.equal, SelectionKey(tt.a) == SelectionKey(tt.b))
		})
	}
}

func TestDistinctIDs(t *testing.T) {
	got := DistinctIDs([]string{"b", "a", "b", "", " c ", "a"})
	assert.Equal(t, []string{"b", "a", "c"}, got)
}

func TestHashString(t *testing.T) {
	assert.Equal(t, HashString("Alice@Email.com "), HashString("alice@email.com"))
	assert.Len(t, HashString("x"), 32)
}

func TestValidDocID(t *testing.T) {
	assert.True(t, ValidDocID("c1"))
	assert.True(t, ValidDocID("5f4dcc3b5aa765d61d8327deb882cf99"))
	assert.True(t, ValidDocID("__x"))

	for _, id := range []string{"", "a/b", ".", "..", "__x__", "\xff\xfe", strings.Repeat("a", 1501)} {
		assert.False(t, ValidDocID(id), "id %q", id)
	}
}
