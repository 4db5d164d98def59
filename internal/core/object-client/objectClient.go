package objectclient

import (
	"errors"

	"github.com/markdave123-py/Trackname/internal/core"
)

// ObjectClient is re-exported so callers wiring storage only import this package.
type ObjectClient = core.ObjectClient

// ErrNotFound is returned when a key does not exist (or was already consumed).
var ErrNotFound = errors.New("object not found")

// Prefixes separating staged uploads from produced artifacts.
const (
	UploadsPrefix = "uploads/"
	OutputPrefix  = "output/"
)
