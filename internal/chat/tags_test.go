package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTagsRemember(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want MemoryDirective
	}{
		{
			name: "all fields",
			raw:  "Nice!\n[REMEMBER: User loves guitar | IMPORTANCE: 6 | CATEGORY: personal]",
			want: MemoryDirective{Content: "User loves guitar", Importance: 6, Category: "personal"},
		},
		{
			name: "content only",
			raw:  "Got it.\n[REMEMBER: Exam on Friday]",
			want: MemoryDirective{Content: "Exam on Friday", Importance: 5, Category: "general"},
		},
		{
			name: "mangled importance falls back to default",
			raw:  "Ok.\n[REMEMBER: Likes tea | IMPORTANCE: lots | CATEGORY: preferences]",
			want: MemoryDirective{Content: "Likes tea", Importance: 5, Category: "preferences"},
		},
		{
			name: "missing category falls back to default",
			raw:  "Ok.\n[REMEMBER: Likes tea | IMPORTANCE: 8]",
			want: MemoryDirective{Content: "Likes tea", Importance: 8, Category: "general"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed := ParseTags(tt.raw)
			require.Len(t, parsed.Remember, 1)
			assert.Equal(t, tt.want, parsed.Remember[0])
		})
	}
}

func TestParseTagsForget(t *testing.T) {
	id := "f47ac10b-58cc-4372-a567-0e02b2c3d479"
	parsed := ParseTags("Done, forgotten.\n[FORGET: " + id + "]")

	require.Len(t, parsed.Forget, 1)
	assert.Equal(t, id, parsed.Forget[0])
	assert.Equal(t, "Done, forgotten.", parsed.Clean)
}

func TestParseTagsMalformedLinesDropped(t *testing.T) {
	raw := "Sure.\n" +
		"[REMEMBER: | IMPORTANCE: 3]\n" + // empty content
		"[FORGET: not-a-uuid]\n" +
		"[REMEMBER: Valid fact]"

	parsed := ParseTags(raw)
	require.Len(t, parsed.Remember, 1)
	assert.Equal(t, "Valid fact", parsed.Remember[0].Content)
	assert.Empty(t, parsed.Forget)
	assert.Equal(t, "Sure.", parsed.Clean)
}

func TestParseTagsCleanTextOnly(t *testing.T) {
	raw := "Hello!\nHow is studying going?"
	parsed := ParseTags(raw)

	assert.Equal(t, raw, parsed.Clean)
	assert.Empty(t, parsed.Remember)
	assert.Empty(t, parsed.Forget)
}

func TestParseTagsIdempotentOnCleanText(t *testing.T) {
	raw := "Nice!\n[REMEMBER: User loves guitar | IMPORTANCE: 6 | CATEGORY: personal]"
	first := ParseTags(raw)
	second := ParseTags(first.Clean)

	assert.Equal(t, first.Clean, second.Clean)
	assert.Empty(t, second.Remember)
	assert.Empty(t, second.Forget)
}

func TestParseTagsMultipleDirectivesKeepOrder(t *testing.T) {
	raw := "Updating my notes.\n" +
		"[REMEMBER: First fact]\n" +
		"[REMEMBER: Second fact | IMPORTANCE: 9 | CATEGORY: academic]\n" +
		"[FORGET: f47ac10b-58cc-4372-a567-0e02b2c3d479]"

	parsed := ParseTags(raw)
	require.Len(t, parsed.Remember, 2)
	assert.Equal(t, "First fact", parsed.Remember[0].Content)
	assert.Equal(t, "Second fact", parsed.Remember[1].Content)
	assert.Equal(t, 9, parsed.Remember[1].Importance)
	require.Len(t, parsed.Forget, 1)
}

func TestSubstringBetween(t *testing.T) {
	got := substringBetween("a [X: b | c]", "[X:", "|")
	require.NotNil(t, got)
	assert.Equal(t, " b ", *got)

	assert.Nil(t, substringBetween("no markers here", "[X:", "|"))
	assert.Nil(t, substringBetween("[X: unterminated", "[X:", "]"))
}
