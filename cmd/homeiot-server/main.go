// Command homeiot-server runs the presence-triggered home automation controller.
package main

import "github.com/Pulsar1722/homeIoTServer/cmd/homeiot-server/cmd"

func main() {
	cmd.Execute()
}
