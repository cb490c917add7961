package coordinator

import "errors"

var (
    ErrNilProbe        = errors.New("coordinator: nil Probe")
    ErrInvalidInterval = errors.New("coordinator: polling interval must be positive")
)
