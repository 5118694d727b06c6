package ident

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestToInternal(t *testing.T) {
	oid := primitive.NewObjectID()

	got, err := ToInternal(oid.Hex())
	require.NoError(t, err)
	assert.Equal(t, oid, got)
	assert.Equal(t, oid.Hex(), ToExternal(got))
}

func TestToInternal_Malformed(t *testing.T) {
	for _, in := range []string{"", "123", "zzzzzzzzzzzzzzzzzzzzzzzz", "66b0c0ffee66b0c0ffee66b0c0"} {
		_, err := ToInternal(in)
		require.Error(t, err, in)
		assert.True(t, errors.Is(err, ErrInvalidID), in)
	}
}

func TestToInternalAll_StopsAtFirstBadID(t *testing.T) {
	a, b := primitive.NewObjectID(), primitive.NewObjectID()

	got, err := ToInternalAll([]string{a.Hex(), b.Hex()})
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{a, b}, got)
	assert.Equal(t, []string{a.Hex(), b.Hex()}, ToExternalAll(got))

	_, err = ToInternalAll([]string{a.Hex(), "nope"})
	assert.ErrorIs(t, err, ErrInvalidID)
}
