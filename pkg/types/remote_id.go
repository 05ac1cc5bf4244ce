package types

import "strings"

// RemoteID is an opaque identifier assigned by the remote commerce platform.
// It is stored and compared verbatim and never coerced to an integer: the
// remote ID space is not guaranteed to stay numeric.
type RemoteID string

func (id RemoteID) String() string {
	return string(id)
}

func (id RemoteID) IsZero() bool {
	return strings.TrimSpace(string(id)) == ""
}
