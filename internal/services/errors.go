package services

import (
	"errors"
	"fmt"

	"github.com/kiffoh/messaging-app-mongoDB/internal/ident"
	"github.com/kiffoh/messaging-app-mongoDB/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotFound           = errors.New("not found")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrConflict           = errors.New("already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := ident.ToInternal(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return oid, nil
}

func parseIDs(ids []string) ([]primitive.ObjectID, error) {
	oids, err := ident.ToInternalAll(ids)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return oids, nil
}

// storeErr lifts repository sentinels into service errors. what names the
// entity for the message.
func storeErr(err error, what string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%s %w", what, ErrNotFound)
	case errors.Is(err, repository.ErrDuplicate):
		return fmt.Errorf("%s %w", what, ErrConflict)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}

// unique drops repeated ids, keeping first occurrences in order.
func unique(ids []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
