// Package switchbot is a client for the SwitchBot cloud API v1.1.
//
// Every request is signed with a fresh AuthContext (HMAC-SHA256 over
// token, epoch-millisecond timestamp and nonce) and bounded by a per-call
// timeout. Scenes and devices are addressed by their human-readable names:
// the catalog is fetched on every call and matched exactly, nothing is
// cached, so renames in the SwitchBot app take effect immediately.
//
// A name missing from the catalog is not an error. ExecuteSceneByName logs
// and returns nil; DeviceStatusByName reports NotFound. Transport, HTTP and
// API-level failures are returned as *RemoteAPIError.
package switchbot
