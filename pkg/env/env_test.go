package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	t.Setenv("BOOKSTORE_TEST_FORMAT", " console ")
	assert.Equal(t, "console", Get("BOOKSTORE_TEST_FORMAT", "json"))

	t.Setenv("BOOKSTORE_TEST_FORMAT", "   ")
	assert.Equal(t, "json", Get("BOOKSTORE_TEST_FORMAT", "json"))

	assert.Equal(t, "json", Get("BOOKSTORE_TEST_UNSET_KEY", "json"))
}
