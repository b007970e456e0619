//go:build windows

package win32

import (
	"fmt"
	"strings"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")
	dxva2  = windows.NewLazySystemDLL("dxva2.dll")
	gdi32  = windows.NewLazySystemDLL("gdi32.dll")

	procEnumDisplayMonitors = user32.NewProc("EnumDisplayMonitors")
	procGetMonitorInfoW     = user32.NewProc("GetMonitorInfoW")
	procEnumDisplayDevicesW = user32.NewProc("EnumDisplayDevicesW")

	procGetNumberOfPhysicalMonitorsFromHMONITOR = dxva2.NewProc("GetNumberOfPhysicalMonitorsFromHMONITOR")
	procGetPhysicalMonitorsFromHMONITOR         = dxva2.NewProc("GetPhysicalMonitorsFromHMONITOR")
	procDestroyPhysicalMonitors                 = dxva2.NewProc("DestroyPhysicalMonitors")
	procGetMonitorBrightness                    = dxva2.NewProc("GetMonitorBrightness")
	procSetMonitorBrightness                    = dxva2.NewProc("SetMonitorBrightness")

	procCreateDCW          = gdi32.NewProc("CreateDCW")
	procDeleteDC           = gdi32.NewProc("DeleteDC")
	procGetDeviceGammaRamp = gdi32.NewProc("GetDeviceGammaRamp")
	procSetDeviceGammaRamp = gdi32.NewProc("SetDeviceGammaRamp")
)

const monitorInfoPrimary = 0x1

type rect struct {
	Left, Top, Right, Bottom int32
}

type monitorInfoEx struct {
	Size    uint32
	Monitor rect
	Work    rect
	Flags   uint32
	Device  [32]uint16
}

type displayDevice struct {
	Size       uint32
	Name       [32]uint16
	String     [128]uint16
	StateFlags uint32
	ID         [128]uint16
	Key        [128]uint16
}

type physicalMonitor struct {
	Handle      windows.Handle
	Description [128]uint16
}

// Monitor is one HMONITOR reported by EnumDisplayMonitors.
type Monitor struct {
	Handle  windows.Handle
	Device  string // GDI device name, e.g. \\.\DISPLAY1
	Primary bool
}

var (
	enumMu       sync.Mutex
	enumMonitors []Monitor
	enumCallback = sync.OnceValue(func() uintptr {
		return windows.NewCallback(monitorEnumProc)
	})
)

func monitorEnumProc(hmon, hdc, clip, data uintptr) uintptr {
	info := monitorInfoEx{Size: uint32(unsafe.Sizeof(monitorInfoEx{}))}
	m := Monitor{Handle: windows.Handle(hmon)}
	if r, _, _ := procGetMonitorInfoW.Call(hmon, uintptr(unsafe.Pointer(&info))); r != 0 {
		m.Device = windows.UTF16ToString(info.Device[:])
		m.Primary = info.Flags&monitorInfoPrimary != 0
	}
	enumMonitors = append(enumMonitors, m)
	return 1
}

// EnumMonitors returns every monitor in enumeration order.
func EnumMonitors() ([]Monitor, error) {
	enumMu.Lock()
	defer enumMu.Unlock()

	enumMonitors = nil
	r, _, err := procEnumDisplayMonitors.Call(0, 0, enumCallback(), 0)
	if r == 0 {
		return nil, fmt.Errorf("EnumDisplayMonitors failed: %w", err)
	}
	out := enumMonitors
	enumMonitors = nil
	return out, nil
}

// MonitorDeviceIDFor returns the device ID of the first monitor attached to a
// GDI adapter device such as \\.\DISPLAY1.
func MonitorDeviceIDFor(device string) (string, error) {
	name, err := windows.UTF16PtrFromString(device)
	if err != nil {
		return "", err
	}
	dd := displayDevice{Size: uint32(unsafe.Sizeof(displayDevice{}))}
	r, _, callErr := procEnumDisplayDevicesW.Call(uintptr(unsafe.Pointer(name)), 0, uintptr(unsafe.Pointer(&dd)), 0)
	if r == 0 {
		return "", fmt.Errorf("EnumDisplayDevicesW %s failed: %w", device, callErr)
	}
	return windows.UTF16ToString(dd.ID[:]), nil
}

// EDID reads the EDID blob the monitor class driver cached in the registry.
func EDID(deviceID string) ([]byte, error) {
	id, err := ParseMonitorDeviceID(deviceID)
	if err != nil {
		return nil, err
	}

	model, err := registry.OpenKey(registry.LOCAL_MACHINE, id.RegistryPath(), registry.ENUMERATE_SUB_KEYS)
	if err != nil {
		return nil, fmt.Errorf("failed to open registry key: %w", err)
	}
	defer model.Close()

	instances, err := model.ReadSubKeyNames(-1)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", id.RegistryPath(), err)
	}

	for _, inst := range instances {
		key, err := registry.OpenKey(model, inst, registry.QUERY_VALUE)
		if err != nil {
			continue
		}
		driver, _, err := key.GetStringValue("Driver")
		key.Close()
		if err != nil || !strings.EqualFold(driver, id.Driver) {
			continue
		}

		params, err := registry.OpenKey(model, inst+`\Device Parameters`, registry.QUERY_VALUE)
		if err != nil {
			return nil, fmt.Errorf("failed to open device parameters: %w", err)
		}
		blob, _, err := params.GetBinaryValue("EDID")
		params.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read EDID: %w", err)
		}
		return blob, nil
	}

	return nil, fmt.Errorf("no registry instance for %s", deviceID)
}

// PhysicalMonitor is a dxva2 handle valid inside WithPhysicalMonitors.
type PhysicalMonitor struct {
	Handle      windows.Handle
	Description string
}

// WithPhysicalMonitors opens the physical monitors behind hmon, calls fn and
// destroys the handles on every path.
func WithPhysicalMonitors(hmon windows.Handle, fn func([]PhysicalMonitor) error) error {
	var count uint32
	r, _, err := procGetNumberOfPhysicalMonitorsFromHMONITOR.Call(uintptr(hmon), uintptr(unsafe.Pointer(&count)))
	if r == 0 {
		return fmt.Errorf("GetNumberOfPhysicalMonitorsFromHMONITOR failed: %w", err)
	}
	if count == 0 {
		return fn(nil)
	}

	raw := make([]physicalMonitor, count)
	r, _, err = procGetPhysicalMonitorsFromHMONITOR.Call(uintptr(hmon), uintptr(count), uintptr(unsafe.Pointer(&raw[0])))
	if r == 0 {
		return fmt.Errorf("GetPhysicalMonitorsFromHMONITOR failed: %w", err)
	}
	defer procDestroyPhysicalMonitors.Call(uintptr(count), uintptr(unsafe.Pointer(&raw[0])))

	monitors := make([]PhysicalMonitor, count)
	for i, pm := range raw {
		monitors[i] = PhysicalMonitor{
			Handle:      pm.Handle,
			Description: windows.UTF16ToString(pm.Description[:]),
		}
	}
	return fn(monitors)
}

// MonitorBrightness reads the DDC/CI brightness range of a physical monitor.
func MonitorBrightness(h windows.Handle) (lo, cur, hi uint32, err error) {
	r, _, callErr := procGetMonitorBrightness.Call(uintptr(h),
		uintptr(unsafe.Pointer(&lo)), uintptr(unsafe.Pointer(&cur)), uintptr(unsafe.Pointer(&hi)))
	if r == 0 {
		return 0, 0, 0, fmt.Errorf("GetMonitorBrightness failed: %w", callErr)
	}
	return lo, cur, hi, nil
}

// SetMonitorBrightness writes a raw brightness value to a physical monitor.
func SetMonitorBrightness(h windows.Handle, value uint32) error {
	r, _, err := procSetMonitorBrightness.Call(uintptr(h), uintptr(value))
	if r == 0 {
		return fmt.Errorf("SetMonitorBrightness failed: %w", err)
	}
	return nil
}

// GammaRamp is the 3x256 table used by Get/SetDeviceGammaRamp.
type GammaRamp [3][256]uint16

func withDC(device string, fn func(hdc uintptr) error) error {
	driver, err := windows.UTF16PtrFromString("DISPLAY")
	if err != nil {
		return err
	}
	name, err := windows.UTF16PtrFromString(device)
	if err != nil {
		return err
	}
	hdc, _, callErr := procCreateDCW.Call(uintptr(unsafe.Pointer(driver)), uintptr(unsafe.Pointer(name)), 0, 0)
	if hdc == 0 {
		return fmt.Errorf("CreateDCW %s failed: %w", device, callErr)
	}
	defer procDeleteDC.Call(hdc)
	return fn(hdc)
}

// SetGammaRamp applies ramp to the display device.
func SetGammaRamp(device string, ramp *GammaRamp) error {
	return withDC(device, func(hdc uintptr) error {
		if r, _, err := procSetDeviceGammaRamp.Call(hdc, uintptr(unsafe.Pointer(ramp))); r == 0 {
			return fmt.Errorf("SetDeviceGammaRamp failed: %w", err)
		}
		return nil
	})
}

// GetGammaRamp reads the current ramp of the display device.
func GetGammaRamp(device string) (*GammaRamp, error) {
	var ramp GammaRamp
	err := withDC(device, func(hdc uintptr) error {
		if r, _, err := procGetDeviceGammaRamp.Call(hdc, uintptr(unsafe.Pointer(&ramp))); r == 0 {
			return fmt.Errorf("GetDeviceGammaRamp failed: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &ramp, nil
}
