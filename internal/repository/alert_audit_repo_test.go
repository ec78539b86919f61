package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNullIfEmpty(t *testing.T) {
	assert.Nil(t, nullIfEmpty(""))
	assert.Equal(t, "10.0.0.1", nullIfEmpty("10.0.0.1"))
}
