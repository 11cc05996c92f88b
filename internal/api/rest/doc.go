// Package rest exposes the presence triggers over HTTP.
//
// Geofencing apps call plain GET URLs, so every trigger is a GET route:
//
//	GET /arrivedHome/{name}
//	GET /leftHome/{name}
//	GET /leftWorkplace/{name}
//	GET /homeStatus
//	GET /healthz
//
// When a trigger token is configured, every route except /healthz requires it
// in the X-Trigger-Token header or the key query parameter.
package rest
