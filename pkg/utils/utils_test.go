package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateUUID_IsValid(t *testing.T) {
	id := GenerateUUID()
	assert.True(t, IsValidUUID(id))
	assert.NotEqual(t, id, GenerateUUID())
}

func TestIsValidUUID(t *testing.T) {
	assert.True(t, IsValidUUID("13814000-1dd2-11b2-8080-808080808080"))
	assert.False(t, IsValidUUID(""))
	assert.False(t, IsValidUUID("   "))
	assert.False(t, IsValidUUID("not-a-uuid"))
}

func TestSortedSet(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SortedSet([]string{"c", "a", "b", "a"}))
	assert.Equal(t, []string{}, SortedSet(nil))
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "abc", TruncateString("abc", 5))
	assert.Equal(t, "ab...", TruncateString("abcdef", 2))
}
