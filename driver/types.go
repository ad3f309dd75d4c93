// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"os"

	"github.com/efficientgo/core/errors"
)

type USBDeviceSpeed uint32

const (
	USBSpeedUnknown USBDeviceSpeed = iota
	USBSpeedLow
	USBSpeedFull
	USBSpeedHigh
	USBSpeedWireless
	USBSpeedSuper
)

// ParseSpeed maps a configured speed name to its vhci attach value.
func ParseSpeed(name string) (USBDeviceSpeed, error) {
	switch name {
	case "low":
		return USBSpeedLow, nil
	case "full":
		return USBSpeedFull, nil
	case "high":
		return USBSpeedHigh, nil
	case "wireless":
		return USBSpeedWireless, nil
	case "super":
		return USBSpeedSuper, nil
	default:
		return USBSpeedUnknown, errors.Newf("unknown USB speed %q", name)
	}
}

const (
	VHCIControllerBusType    = "platform"
	VHCIControllerDeviceName = "vhci_hcd.0"
)

type HubSpeed uint8

const (
	HubSpeedHigh HubSpeed = iota
	HubSpeedSuper
)

type USBIPStatus uint32

const (
	SDevStatusUndefined USBIPStatus = iota
	SDevStatusAvailable
	SDevStatusUsed
	SDevStatusError
	VDevStatusNull
	VDevStatusNotAssigned
	VDevStatusUsed
	VDevStatusError
)

type VirtualPort uint8

// VHCISlot is the state of one virtual port of the vhci controller.
type VHCISlot struct {
	HubSpeed HubSpeed
	Port     VirtualPort
	Status   USBIPStatus

	DeviceID uint32
	BusId    string
}

func (s VHCISlot) IsEmpty() bool {
	return s.Status == VDevStatusNull || s.Status == VDevStatusNotAssigned
}

// VHCIDriver attaches the kernel end of a per-device transport socket
// to the vhci virtual host controller and tracks port occupancy.
type VHCIDriver interface {
	AttachDevice(sock *os.File, deviceId uint32, speed USBDeviceSpeed) (VirtualPort, error)
	DetachDevice(port VirtualPort) error
	UpdateAttachedDevices() error
	GetDeviceSlots() []VHCISlot
}
