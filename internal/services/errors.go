package services

import (
	"fmt"
	"strings"
)

// PlatformError represents an error from an upstream platform
type PlatformError struct {
	Platform   string
	Operation  string
	Message    string
	URL        string
	StatusCode int
	Err        error
}

func (e *PlatformError) Error() string {
	msg := e.Platform + " " + e.Operation + " failed"
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.URL != "" {
		msg += " (URL: " + e.URL + ")"
	}
	if e.Err != nil {
		msg += " - " + e.Err.Error()
	}
	return msg
}

func (e *PlatformError) Unwrap() error {
	return e.Err
}

// ItemError records one failed item of a batch download
type ItemError struct {
	Group string
	ID    string
	Err   error
}

func (e ItemError) Error() string {
	if e.Group != "" {
		return fmt.Sprintf("%s/%s: %v", e.Group, e.ID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.ID, e.Err)
}

func (e ItemError) Unwrap() error {
	return e.Err
}

// BatchError is returned next to a partial collection when some items of a
// batch failed. Items that succeeded are kept in the collection.
type BatchError struct {
	Items []ItemError
}

func (e *BatchError) Error() string {
	parts := make([]string, 0, len(e.Items))
	for _, item := range e.Items {
		parts = append(parts, item.Error())
	}
	return fmt.Sprintf("%d item(s) failed: %s", len(e.Items), strings.Join(parts, "; "))
}

// Unwrap exposes every item error to errors.Is and errors.As
func (e *BatchError) Unwrap() []error {
	errs := make([]error, len(e.Items))
	for i, item := range e.Items {
		errs[i] = item
	}
	return errs
}

func (e *BatchError) add(group, id string, err error) {
	e.Items = append(e.Items, ItemError{Group: group, ID: id, Err: err})
}

// errOrNil returns nil for an empty batch so callers can return it directly.
func (e *BatchError) errOrNil() error {
	if e == nil || len(e.Items) == 0 {
		return nil
	}
	return e
}
