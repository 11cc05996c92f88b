package switchbot

import "encoding/json"

// statusSuccess is the envelope statusCode of a successful call.
const statusSuccess = 100

// onlineStatusOnline is the onlineStatus value of a reachable device.
const onlineStatusOnline = "online"

// envelope wraps every API response.
type envelope struct {
	StatusCode int             `json:"statusCode"`
	Message    string          `json:"message"`
	Body       json.RawMessage `json:"body"`
}

// Scene is a manual scene of the catalog.
type Scene struct {
	SceneID   string `json:"sceneId"`
	SceneName string `json:"sceneName"`
}

// Device is a physical device of the catalog.
type Device struct {
	DeviceID    string `json:"deviceId"`
	DeviceName  string `json:"deviceName"`
	DeviceType  string `json:"deviceType"`
	HubDeviceID string `json:"hubDeviceId"`
}

// deviceList is the body of GET /devices. Infrared remotes are ignored.
type deviceList struct {
	DeviceList []Device `json:"deviceList"`
}

// DeviceStatus is the subset of GET /devices/{id}/status used here.
type DeviceStatus struct {
	DeviceID     string `json:"deviceId"`
	DeviceType   string `json:"deviceType"`
	OnlineStatus string `json:"onlineStatus"`
	Battery      int    `json:"battery"`
	WorkingState string `json:"workingStatus"`
}

// IsOnline reports whether the device answered as online.
func (s *DeviceStatus) IsOnline() bool {
	return s.OnlineStatus == onlineStatusOnline
}

// OnlineStatus is the tri-state result of a status lookup by name.
type OnlineStatus int

const (
	// Online means the device exists and reported online.
	Online OnlineStatus = iota
	// Offline means the device exists and reported anything but online.
	Offline
	// NotFound means no device of that name is in the catalog.
	NotFound
)

// String implements fmt.Stringer.
func (s OnlineStatus) String() string {
	switch s {
	case Online:
		return "online"
	case Offline:
		return "offline"
	case NotFound:
		return "not_found"
	default:
		return "unknown"
	}
}
