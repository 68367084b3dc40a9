package backend

import "github.com/cockroachdb/errors"

// Bring-up failures are fatal for the process: none of them are retried and
// there is no degraded mode. These sentinels classify what went wrong so the
// entry point can report it before exiting; match them with errors.Is.
var (
	// ErrLayerMissing reports a requested validation layer absent from the
	// enumerated layer set.
	ErrLayerMissing = errors.New("requested validation layer is not available")

	// ErrNoDevice reports that no enumerated physical device satisfied the
	// qualification predicates.
	ErrNoDevice = errors.New("no suitable physical device found")

	// ErrDeviceCreate reports logical device creation failure.
	ErrDeviceCreate = errors.New("logical device creation failed")

	// ErrSurfaceCreate reports window surface creation failure.
	ErrSurfaceCreate = errors.New("window surface creation failed")

	// ErrMemoryType reports that no memory type is both compatible with an
	// allocation and device-local.
	ErrMemoryType = errors.New("no compatible device-local memory type")
)
