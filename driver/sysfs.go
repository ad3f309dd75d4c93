// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/efficientgo/core/errors"
	"github.com/go-kit/log"
)

type sysfsVHCIDriver struct {
	fsys fs.FS

	AvailableControllers uint

	AttachedDevices []VHCISlot

	logger log.Logger
}

const (
	Sys    = "/sys"
	sysBus = "bus"
)

func hostControllerPath() string {
	return path.Join(sysBus, VHCIControllerBusType, "devices", VHCIControllerDeviceName)
}

func (d *sysfsVHCIDriver) GetDeviceSlots() []VHCISlot {
	return d.AttachedDevices
}

func (d *sysfsVHCIDriver) readDeviceAttribute(sysPath string, attributeName string) (string, error) {
	content, err := fs.ReadFile(d.fsys, path.Join(sysPath, attributeName))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(content)), nil
}

func (d *sysfsVHCIDriver) initPorts() error {
	nportsStr, err := d.readDeviceAttribute(hostControllerPath(), "nports")
	if err != nil {
		return errors.New("failed to read nports attribute")
	}
	var nports uint32 = 0
	_, err = fmt.Sscanf(nportsStr, "%d", &nports)
	if err != nil {
		return errors.New("failed to parse nports attribute")
	}
	if nports <= 0 {
		return errors.New("VHCI host controller does not have any ports available")
	}

	d.AttachedDevices = make([]VHCISlot, nports)
	return nil
}

func (d *sysfsVHCIDriver) countControllers() error {
	// count controllers
	var count uint = 0
	devicesDir := path.Join(sysBus, VHCIControllerBusType, "devices")
	files, err := fs.ReadDir(d.fsys, devicesDir)
	if err != nil {
		return errors.Wrap(err, "failed to read platform sysdir")
	}
	for _, file := range files {
		if strings.HasPrefix(file.Name(), "vhci_hcd.") {
			count++
		}
	}

	d.AvailableControllers = count
	return nil
}

func (d *sysfsVHCIDriver) updateDevicesFromControllerStatus(statusContent string) error {
	lines := strings.Split(statusContent, "\n")

	var port VirtualPort
	var deviceId uint32
	var speed int
	var status USBIPStatus
	var fd uint // ignored
	var hubSpeed string
	var busId string
	for i, line := range lines[1:] {
		_, err := fmt.Sscanf(
			line,
			"%2s  %d %d %d %x %d %31s",
			&hubSpeed, &port, &status, &speed, &deviceId, &fd, &busId,
		)
		if err != nil {
			return errors.Wrapf(err, "failed to parse status line %d: %s", i, line)
		}

		if int(port) > len(d.AttachedDevices) {
			return errors.Newf("failed to parse status line %d: port %d out of range", i, port)
		}

		var device = &d.AttachedDevices[port]

		switch hubSpeed {
		case "hs":
			device.HubSpeed = HubSpeedHigh
		default:
			device.HubSpeed = HubSpeedSuper
		}

		device.Port = port
		device.Status = status
		device.DeviceID = deviceId

		if status == VDevStatusNull || status == VDevStatusNotAssigned {
			device.BusId = ""
		} else {
			_ = d.logger.Log("msg", "Processing non-empty virtual port", "port", port, "status", status, "busId", busId)
			device.BusId = busId
		}
	}
	return nil
}

func (d *sysfsVHCIDriver) UpdateAttachedDevices() error {
	var i uint
	for i = 0; i < d.AvailableControllers; i++ {
		var name string
		if i == 0 {
			name = "status"
		} else {
			name = fmt.Sprintf("status.%d", i)
		}
		status, err := d.readDeviceAttribute(hostControllerPath(), name)
		if err != nil {
			return errors.Newf("failed to get status of controller %d", i)
		}
		err = d.updateDevicesFromControllerStatus(status)
		if err != nil {
			return err
		}
	}
	return nil
}

func (d *sysfsVHCIDriver) GetFreePort(speed USBDeviceSpeed) (VirtualPort, error) {
	for _, device := range d.AttachedDevices {
		// Exclusively pair super devices with super ports and vice versa
		if (device.HubSpeed == HubSpeedSuper) != (speed == USBSpeedSuper) {
			continue
		}

		if device.IsEmpty() {
			return device.Port, nil
		}
	}
	return 0, errors.New("failed to find free port")
}

// AttachDevice hands sock, the kernel end of a per-device transport
// socket, to the vhci controller on a free port matching speed.
func (d *sysfsVHCIDriver) AttachDevice(sock *os.File, deviceId uint32, speed USBDeviceSpeed) (VirtualPort, error) {
	port, err := d.GetFreePort(speed)
	if err != nil {
		return 0, err
	}

	attachPath := path.Join(hostControllerPath(), "attach")
	attachStr := fmt.Sprintf("%d %d %d %d", port, sock.Fd(), deviceId, speed)
	err = d.writeStringToFile(attachPath, attachStr)
	if err != nil {
		return 0, err
	}

	return port, nil
}

func (d *sysfsVHCIDriver) DetachDevice(port VirtualPort) error {
	if int(port) > len(d.AttachedDevices) {
		return errors.Newf("port number %d out of bounds", port)
	}
	detachPath := path.Join(hostControllerPath(), "detach")
	detachStr := fmt.Sprintf("%d", port)
	return d.writeStringToFile(detachPath, detachStr)
}

func (d *sysfsVHCIDriver) writeStringToFile(path string, content string) error {
	f, err := os.OpenFile(filepath.Join(Sys, path), os.O_WRONLY, 0)
	if err != nil {
		return errors.Wrapf(err, "failed to open %s for writing", path)
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	_, err = f.WriteString(content)
	if err != nil {
		return errors.Wrapf(err, "failed to write command to %s", path)
	}
	return nil
}

func NewSysfsVHCIDriver(fsys fs.FS, logger log.Logger) (VHCIDriver, error) {

	if logger == nil {
		logger = log.NewNopLogger()
	}

	driver := &sysfsVHCIDriver{
		fsys:   fsys,
		logger: logger,
	}

	err := driver.initPorts()
	if err != nil {
		return nil, err
	}

	err = driver.countControllers()
	if err != nil {
		return nil, err
	}

	_ = logger.Log("msg", "Initialized VHCI driver", "nports", len(driver.AttachedDevices), "ncontrollers", driver.AvailableControllers)

	err = driver.UpdateAttachedDevices()
	if err != nil {
		return nil, err
	}

	return driver, nil
}
