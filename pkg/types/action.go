package types

import (
	"github.com/arthur-debert/popctl/pkg/errors"
)

// ActionKind is the concrete operation an Action performs.
type ActionKind string

const (
	ActionInstall ActionKind = "install"
	ActionRemove  ActionKind = "remove"
	ActionPurge   ActionKind = "purge"
)

// Action is one concrete install/remove/purge instruction derived from a
// diff. Immutable once constructed.
type Action struct {
	Kind    ActionKind
	Package string
	Source  Source
	Reason  string
}

// NewAction constructs an Action, rejecting empty package names.
func NewAction(kind ActionKind, pkg string, source Source, reason string) (Action, error) {
	if pkg == "" {
		return Action{}, errors.New(errors.ErrActionInvalid, "action package name cannot be empty")
	}
	if !source.Valid() {
		return Action{}, errors.Newf(errors.ErrUnknownSource, "unknown package source %q", source)
	}
	return Action{Kind: kind, Package: pkg, Source: source, Reason: reason}, nil
}

// ActionResult reports the outcome of executing one Action. Message is
// meaningful on success, Error on failure.
type ActionResult struct {
	Action  Action
	Success bool
	Message string
	Error   error
}

// SuccessResult builds a successful result for an action.
func SuccessResult(action Action, message string) ActionResult {
	return ActionResult{Action: action, Success: true, Message: message}
}

// FailureResult builds a failed result for an action.
func FailureResult(action Action, err error) ActionResult {
	return ActionResult{Action: action, Success: false, Error: err}
}
