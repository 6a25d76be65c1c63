package topology

import "errors"

var (
	ErrInvalidTopology = errors.New("invalid topology")
	ErrInvalidTarget   = errors.New("invalid target endpoint")
)
