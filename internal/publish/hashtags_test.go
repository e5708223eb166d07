package publish

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashtagsReturnsAtMostFive(t *testing.T) {
	tags := Hashtags("ocean", "The ocean hides underwater lakes", "Follow for more ocean facts")
	parts := strings.Fields(tags)

	assert.LessOrEqual(t, len(parts), 5)
	for _, tag := range parts {
		assert.True(t, strings.HasPrefix(tag, "#"), "not a hashtag: %q", tag)
	}
}

func TestHashtagsPrefersFrequentContentWords(t *testing.T) {
	tags := Hashtags("space", "black holes bend light", "black holes are everywhere")
	assert.Contains(t, tags, "#holes")
	assert.Contains(t, tags, "#black")
}

func TestHashtagsMatchesTopicCategory(t *testing.T) {
	tags := Hashtags("", "a fact about the ocean", "the deep sea is dark")
	assert.Contains(t, tags, "#ocean")
}

func TestHashtagsSkipsStopWords(t *testing.T) {
	tags := Hashtags("", "this that with from", "have been were they")
	assert.NotContains(t, tags, "#this")
	assert.NotContains(t, tags, "#have")
}

func TestHashtagsNoDuplicates(t *testing.T) {
	tags := Hashtags("ocean ocean", "ocean ocean ocean", "ocean")
	parts := strings.Fields(tags)
	seen := map[string]bool{}
	for _, tag := range parts {
		assert.False(t, seen[tag], "duplicate tag %q", tag)
		seen[tag] = true
	}
}

func TestHashtagsDeterministic(t *testing.T) {
	a := Hashtags("science", "why the brain forgets", "memory is rebuilt every time")
	for i := 0; i < 10; i++ {
		assert.Equal(t, a, Hashtags("science", "why the brain forgets", "memory is rebuilt every time"))
	}
}
