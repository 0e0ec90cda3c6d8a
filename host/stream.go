// Package host implements the two host-side helpers that drive the
// emulated device through its boot monitor protocol (spec §4.8):
// BootHelper, a line-buffered REPL driver, and FlashHelper, which adds
// page-buffered flash programming on top of it.
package host

import "github.com/lookbusy1344/sam3x-emulator/mcu"

// Stream is the small interface BootHelper drives (spec §6's "host
// helpers' surface": write(&str) -> bool, read() -> String). Grounded
// on teacher debugger/interface.go's convention of a minimal interface
// sitting between a driver and its backing engine.
type Stream interface {
	// SetSerialInput feeds command text to the device's serial input and
	// reports whether the device accepted it (false models a
	// disconnected or unresponsive device).
	SetSerialInput(command string) bool
	// SerialOutput drains whatever the device has queued for
	// transmission since the last call.
	SerialOutput() string
}

// DeviceStream adapts the boot monitor's character-at-a-time state
// machine to the Stream interface, feeding it directly rather than
// executing firmware through the CPU loop - the boot monitor is a
// ROM-resident routine modeled as a direct parser (mcu.BootMonitor), not
// Thumb code the CPU executes.
type DeviceStream struct {
	bus     *mcu.Bus
	monitor *mcu.BootMonitor
}

// NewDeviceStream wires a Stream directly to bus/monitor.
func NewDeviceStream(bus *mcu.Bus, monitor *mcu.BootMonitor) *DeviceStream {
	return &DeviceStream{bus: bus, monitor: monitor}
}

// SetSerialInput implements Stream.
func (d *DeviceStream) SetSerialInput(command string) bool {
	d.monitor.ParseInput(d.bus, command)
	return true
}

// SerialOutput implements Stream.
func (d *DeviceStream) SerialOutput() string {
	return d.monitor.TakeOutput()
}
