package cleaning

import (
	"errors"
	"fmt"

	"github.com/Pulsar1722/homeIoTServer/internal/switchbot"
)

// ErrDeviceOffline is matched by every DeviceOfflineError.
var ErrDeviceOffline = errors.New("cleaning: device is not online")

// DeviceOfflineError reports that the vacuum was offline or missing from the catalog.
type DeviceOfflineError struct {
	// Device is the configured device name.
	Device string
	// Status is what the lookup returned.
	Status switchbot.OnlineStatus
}

// Error implements error.
func (e *DeviceOfflineError) Error() string {
	return fmt.Sprintf("cleaning: device %q is not online (status %s), cleaning skipped", e.Device, e.Status)
}

// Is makes errors.Is(err, ErrDeviceOffline) hold.
func (e *DeviceOfflineError) Is(target error) bool {
	return target == ErrDeviceOffline
}
