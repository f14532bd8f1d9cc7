package apperr

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, NotFound, KindOf(NotFoundf("post %d not found", 7)))
	assert.Equal(t, Forbidden, KindOf(Forbiddenf("not your post")))
	assert.Equal(t, Unknown, KindOf(fmt.Errorf("connection reset")))
	assert.Equal(t, Unknown, KindOf(nil))
}

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("applying vote: %w", Conflictf("duplicate rate"))
	assert.Equal(t, Conflict, KindOf(err))
	assert.True(t, Is(err, Conflict))
	assert.False(t, Is(err, NotFound))
}

func TestMessage(t *testing.T) {
	err := Validationf("body must not be empty")
	assert.EqualError(t, err, "body must not be empty")
}
