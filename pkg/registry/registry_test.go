package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry(t *testing.T) {
	r := New[int]()
	r.Register("b", 2)
	r.Register("a", 1)
	r.Register("b", 3)

	v, ok := r.Lookup("b")
	assert.True(t, ok)
	assert.Equal(t, 3, v)

	_, ok = r.Lookup("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"a", "b"}, r.Names())
}
