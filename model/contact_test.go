package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContact_BeforeCreateAssignsID(t *testing.T) {
	c := &Contact{Name: "First Last", Email: "email@example.com"}
	assert.Empty(t, c.ID)

	require.NoError(t, c.BeforeCreate(nil))

	_, err := uuid.Parse(c.ID)
	assert.NoError(t, err)
}

func TestContact_BeforeCreateKeepsExistingID(t *testing.T) {
	c := &Contact{ID: "0191d3a4-8a6b-7c1e-9d2f-3b4c5d6e7f80"}
	require.NoError(t, c.BeforeCreate(nil))
	assert.Equal(t, "0191d3a4-8a6b-7c1e-9d2f-3b4c5d6e7f80", c.ID)
}
