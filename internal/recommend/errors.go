// Reco - Hybrid Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reco

package recommend

import (
	"errors"
	"fmt"
)

// Kind classifies domain errors.
type Kind int

const (
	// KindInvalidArgument reports a caller-supplied value outside its domain.
	KindInvalidArgument Kind = iota + 1

	// KindInvalidState reports data that cannot support the computation,
	// such as an empty rating set.
	KindInvalidState
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid argument"
	case KindInvalidState:
		return "invalid state"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is matching on the kind alone.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidState    = errors.New("invalid state")

	// ErrRecomputeInProgress is returned when a batch is already running.
	ErrRecomputeInProgress = errors.New("recompute already in progress")
)

// Error is a structured domain error: the operation, the kind and the
// offending value, so callers can format it however they report errors.
type Error struct {
	Op    string
	Kind  Kind
	Value any
	Msg   string
}

func (e *Error) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s (got %v)", e.Op, e.Kind, e.Msg, e.Value)
}

// Is matches the kind sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrInvalidArgument:
		return e.Kind == KindInvalidArgument
	case ErrInvalidState:
		return e.Kind == KindInvalidState
	}
	return false
}

func invalidArgument(op string, value any, msg string) error {
	return &Error{Op: op, Kind: KindInvalidArgument, Value: value, Msg: msg}
}

func invalidState(op, msg string) error {
	return &Error{Op: op, Kind: KindInvalidState, Msg: msg}
}
