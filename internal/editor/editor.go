// Package editor holds the in-memory editing sessions for blueprints and
// content documents. Edits are local until Save; every network call goes
// through the API client and a failed call leaves the edit state untouched.
package editor

import (
	"errors"

	"github.com/mrashed98/blueprint-cms/internal/client"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrForbidden      = errors.New("system blueprints cannot be modified")
	ErrPersistence    = errors.New("save failed")
	ErrOutOfRange     = errors.New("index out of range")
	ErrNotConfirmed   = errors.New("deletion must be confirmed")
	ErrNotLoaded      = errors.New("nothing loaded")
	ErrNotPublishable = errors.New("archived content cannot be published from the editor")
)

// PersistenceError carries the server's message for a failed call. Error
// returns that message unchanged so it can be shown as is.
type PersistenceError struct {
	Status  int
	Message string
	Err     error
}

func (e *PersistenceError) Error() string {
	return e.Message
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

// persistenceError converts a client failure. 404s become ErrNotFound.
func persistenceError(err error) error {
	if err == nil {
		return nil
	}
	if client.IsNotFound(err) {
		return ErrNotFound
	}
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return &PersistenceError{Status: apiErr.Status, Message: apiErr.Message, Err: err}
	}
	return &PersistenceError{Message: err.Error(), Err: err}
}

// Direction is the way MoveField shifts a field.
type Direction int

const (
	Up Direction = iota
	Down
)
