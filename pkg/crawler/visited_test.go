package crawler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVisitedSet(t *testing.T) {
	v := NewVisitedSet()
	assert.Equal(t, 0, v.Len())

	assert.True(t, v.Add("http://t/a"))
	assert.True(t, v.Add("http://t/b"))
	assert.False(t, v.Add("http://t/a"), "duplicates are rejected")

	assert.True(t, v.Contains("http://t/b"))
	assert.False(t, v.Contains("http://t/c"))
	assert.Equal(t, 2, v.Len())
	assert.Equal(t, []string{"http://t/a", "http://t/b"}, v.List())

	list := v.List()
	list[0] = "mutated"
	assert.Equal(t, "http://t/a", v.List()[0], "List returns a copy")
}
