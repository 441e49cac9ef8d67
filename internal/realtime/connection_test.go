package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewConnectionIdentity(t *testing.T) {
	t.Parallel()

	a := NewConnection("user-1", nil)
	b := NewConnection("user-1", nil)

	assert.Equal(t, "user-1", a.UserID())
	assert.Equal(t, "user-1", b.UserID())
	assert.NotEqual(t, a.ID(), b.ID(), "each connection gets its own identifier")
}
