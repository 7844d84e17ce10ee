package domain

import (
	"errors"
	"fmt"
)

// Transport-level outcomes returned by upstream adapters and repositories.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("already exists")
)

// UpstreamAuthError means the credential endpoint itself refused us.
type UpstreamAuthError struct {
	Status int
	Err    error
}

func (e UpstreamAuthError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("upstream auth failed with status %d", e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("upstream auth failed: %v", e.Err)
	}
	return "upstream auth failed"
}

func (e UpstreamAuthError) Unwrap() error { return e.Err }

// UpstreamError is a downstream API failure that survived the single permitted retry,
// or a payload missing an expected top-level key.
type UpstreamError struct {
	Service string
	Msg     string
	Err     error
}

func (e UpstreamError) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = "request failed"
	}
	if e.Service == "" {
		return msg
	}
	return fmt.Sprintf("%s: %s", e.Service, msg)
}

func (e UpstreamError) Unwrap() error { return e.Err }

// NotFoundError is an empty-but-valid lookup result. Resource names what was looked for.
type NotFoundError struct {
	Resource string
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e NotFoundError) Unwrap() error { return e.Err }

// DataConsistencyError is a dangling id reference inside one upstream response.
type DataConsistencyError struct {
	Table string
	ID    string
	Err   error
}

func (e DataConsistencyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("inconsistent %s %q: %v", e.Table, e.ID, e.Err)
	}
	return fmt.Sprintf("%s %q referenced but missing", e.Table, e.ID)
}

func (e DataConsistencyError) Unwrap() error { return e.Err }

type ValidationError struct {
	Field string
	Msg   string
}

func (e ValidationError) Error() string {
	switch {
	case e.Field != "" && e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Field != "":
		return fmt.Sprintf("invalid %s", e.Field)
	default:
		return "validation error"
	}
}

func IsUpstreamAuth(err error) bool {
	var target UpstreamAuthError
	return errors.As(err, &target)
}

func IsUpstream(err error) bool {
	var target UpstreamError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsDataConsistency(err error) bool {
	var target DataConsistencyError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}
