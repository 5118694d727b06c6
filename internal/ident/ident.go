// Package ident converts between the string ids used at the API boundary and
// MongoDB object ids used for storage lookups.
package ident

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrInvalidID = errors.New("invalid id")

// ToInternal parses a 24 character hex id.
func ToInternal(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w %q: %v", ErrInvalidID, id, err)
	}
	return oid, nil
}

// ToInternalAll parses every id, failing on the first malformed one.
func ToInternalAll(ids []string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := ToInternal(id)
		if err != nil {
			return nil, err
		}
		out = append(out, oid)
	}
	return out, nil
}

func ToExternal(id primitive.ObjectID) string {
	return id.Hex()
}

func ToExternalAll(ids []primitive.ObjectID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.Hex()
	}
	return out
}
