// Package client implements the homeiot-trigger command.
//
// The command connects to the presence server over gRPC, sends one trigger
// (arrival, departure, workplace exit) or a status query and prints the
// resulting household status.
package client
