package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildWhereClause_EmptyFilterYieldsNoClause(t *testing.T) {
	clause, args := BuildWhereClause(nil, 1)
	assert.Empty(t, clause)
	assert.Empty(t, args)
}

func TestBuildWhereClause_SingleColumn(t *testing.T) {
	clause, args := BuildWhereClause(map[string]interface{}{"source_ip": "10.0.0.1"}, 1)
	assert.Equal(t, "WHERE source_ip = $1", clause)
	assert.Equal(t, []interface{}{"10.0.0.1"}, args)
}

func TestBuildUpdateSet_EmptyYieldsNoClause(t *testing.T) {
	clause, args := BuildUpdateSet(nil, 1)
	assert.Empty(t, clause)
	assert.Empty(t, args)
}
