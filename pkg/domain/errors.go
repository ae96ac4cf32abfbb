package domain

import "errors"

// ErrPageNotFound is returned when a page id cannot be found in the store.
var ErrPageNotFound = errors.New("page not found")

// ErrPlacementRejected is wrapped by placement errors returned to callers
// that prefer error values over validation results.
var ErrPlacementRejected = errors.New("placement rejected")

// ErrTemplateNotFound is returned when a palette template does not exist.
var ErrTemplateNotFound = errors.New("template not found")

// ErrEditorClosed is returned by operations issued after an editor was closed.
var ErrEditorClosed = errors.New("editor closed")

// ErrInvalidCommand is returned for commands with an unknown op or missing arguments.
var ErrInvalidCommand = errors.New("invalid command")

// ErrDuplicateID is returned when a component id is already used in the document.
var ErrDuplicateID = errors.New("duplicate component id")
