// Package presence implements the gRPC transport for the presence triggers.
//
// The homeiot.v1.PresenceService descriptor is declared by hand over the
// protobuf well-known types, so neither side needs generated code:
// member names travel as google.protobuf.StringValue and the household
// status as google.protobuf.Struct.
package presence
