package models

import "errors"

// Sentinel errors shared by the acquisition, modelling and API layers.
// Callers match them with errors.Is; producers wrap them with context.
var (
	ErrUnrecognizedIdentifier = errors.New("unrecognized identifier")
	ErrUnsupportedOption      = errors.New("unsupported option")
	ErrInsufficientData       = errors.New("insufficient data")
	ErrNotFound               = errors.New("not found")
)
