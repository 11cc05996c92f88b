// Package events publishes presence changes to an MQTT broker.
//
// Topics (prefix "homeiot" by default):
//
//	homeiot/presence/<member>      retained member state
//	homeiot/household              retained AtHome count
//	homeiot/events/<transition>    first_arrival and last_departure, not retained
//	homeiot/system/status          online/offline, with an offline last will
package events
