package service

import (
	"errors"
	"fmt"

	"github.com/example/storefront/pkg/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrGateway      = errors.New("payment gateway error")
)

// Message strips the sentinel prefix so the client sees only the detail.
func Message(err error) string {
	var d *detailError
	if errors.As(err, &d) {
		return d.msg
	}
	return err.Error()
}

type detailError struct {
	kind error
	msg  string
}

func (e *detailError) Error() string { return e.kind.Error() + ": " + e.msg }
func (e *detailError) Unwrap() error { return e.kind }

func fail(kind error, format string, args ...any) error {
	return &detailError{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// notFound maps a repository miss to ErrNotFound with a readable message and
// passes any other error through.
func notFound(err error, what string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fail(ErrNotFound, "%s not found", what)
	}
	return err
}

func parseID(field, hex string) (primitive.ObjectID, error) {
	if hex == "" {
		return primitive.NilObjectID, fail(ErrValidation, "%s is required", field)
	}
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, fail(ErrValidation, "invalid %s", field)
	}
	return id, nil
}
