// Command homeiot-trigger sends a single presence trigger to homeiot-server.
package main

import "github.com/Pulsar1722/homeIoTServer/cmd/homeiot-trigger/cmd"

func main() {
	cmd.Execute()
}
