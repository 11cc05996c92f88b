package switchbot

import (
	"context"
	"net/http"
	"net/url"

	"github.com/Pulsar1722/homeIoTServer/internal/logger"
)

// Devices fetches the physical device catalog.
func (c *Client) Devices(ctx context.Context) ([]Device, error) {
	var list deviceList
	if err := c.do(ctx, "get devices", http.MethodGet, "/devices", &list); err != nil {
		return nil, err
	}

	return list.DeviceList, nil
}

// DeviceStatus fetches the status of the device with the given provider ID.
func (c *Client) DeviceStatus(ctx context.Context, deviceID string) (*DeviceStatus, error) {
	var status DeviceStatus
	if err := c.do(ctx, "get device status", http.MethodGet, "/devices/"+url.PathEscape(deviceID)+"/status", &status); err != nil {
		return nil, err
	}

	return &status, nil
}

// DeviceStatusByName resolves name against the current catalog and reports
// whether the device is online.
func (c *Client) DeviceStatusByName(ctx context.Context, name string) (OnlineStatus, error) {
	if name == "" {
		return NotFound, errEmptyName
	}

	devices, err := c.Devices(ctx)
	if err != nil {
		return NotFound, err
	}

	device, ok := findDevice(devices, name)
	if !ok {
		logger.InfoKV(ctx, "Device not found", "device_name", name, "catalog_size", len(devices))

		return NotFound, nil
	}

	status, err := c.DeviceStatus(ctx, device.DeviceID)
	if err != nil {
		return NotFound, err
	}

	logger.InfoKV(ctx, "Device status fetched",
		"device_name", name,
		"device_id", device.DeviceID,
		"online_status", status.OnlineStatus,
	)

	if status.IsOnline() {
		return Online, nil
	}

	return Offline, nil
}

// IsDeviceOnline is DeviceStatusByName collapsed to a boolean gate:
// Offline and NotFound are both false.
func (c *Client) IsDeviceOnline(ctx context.Context, name string) (bool, error) {
	status, err := c.DeviceStatusByName(ctx, name)
	if err != nil {
		return false, err
	}

	return status == Online, nil
}

// findDevice returns the first device whose name matches exactly.
func findDevice(devices []Device, name string) (Device, bool) {
	for _, device := range devices {
		if device.DeviceName == name {
			return device, true
		}
	}

	return Device{}, false
}
