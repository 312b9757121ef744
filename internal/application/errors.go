package application

import (
	"errors"

	"github.com/ericfisherdev/vaultpanel/internal/domain/port/driven"
)

// Local validation failures. The request is never sent and the triggering
// control is never disabled.
var (
	ErrEmptyCredentials = errors.New("email and password are required")
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
	ErrEmptyEntry       = errors.New("service name and password are required")
)

var (
	// ErrNoSession is returned when an operation needs a signed-in user or a
	// bearer token and none is available.
	ErrNoSession = errors.New("no valid session")

	// ErrNotConfirmed is returned when a destructive operation is invoked
	// without every required confirmation. It is a silent no-op.
	ErrNotConfirmed = errors.New("operation not confirmed")

	// ErrControlBusy is returned when the triggering control already has a
	// backend round trip outstanding.
	ErrControlBusy = errors.New("operation already in progress")

	// ErrEntryNotFound is returned for an entry ID that is not rendered.
	ErrEntryNotFound = errors.New("entry not found")

	// ErrStaleResponse is returned when a response arrives after the session
	// it was issued for has ended. The response is discarded.
	ErrStaleResponse = errors.New("session changed while request was in flight")

	// ErrDispatcherStopped is returned by Dispatcher.Do once Run has exited.
	ErrDispatcherStopped = errors.New("dispatcher stopped")

	// ErrAlreadyInitialized is returned by a second SessionController.Initialize.
	ErrAlreadyInitialized = errors.New("session controller already initialized")
)

// backendMessage returns the backend-provided message carried by err, or
// fallback when there is none.
func backendMessage(err error, fallback string) string {
	var be *driven.BackendError
	if errors.As(err, &be) && be.Message != "" {
		return be.Message
	}
	return fallback
}

// errorDetail returns the most specific description of err available.
func errorDetail(err error) string {
	var be *driven.BackendError
	if errors.As(err, &be) && be.Message != "" {
		return be.Message
	}
	return err.Error()
}
