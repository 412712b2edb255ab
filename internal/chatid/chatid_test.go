package chatid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	t.Run("joins sorted ids with underscore", func(t *testing.T) {
		assert.Equal(t, "alice_zane", Resolve("zane", "alice"))
		assert.Equal(t, "alice_zane", Resolve("alice", "zane"))
	})

	t.Run("symmetric for any pair", func(t *testing.T) {
		pairs := [][2]string{
			{"u1", "u2"},
			{"9f3a", "07bc"},
			{"a", "aa"},
		}
		for _, p := range pairs {
			assert.Equal(t, Resolve(p[0], p[1]), Resolve(p[1], p[0]))
		}
	})

	t.Run("distinct pairs get distinct ids", func(t *testing.T) {
		assert.NotEqual(t, Resolve("a", "b"), Resolve("a", "c"))
	})
}
