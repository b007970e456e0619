//go:build darwin

package quartz

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ebitengine/purego"
)

const (
	coreGraphicsPath    = "/System/Library/Frameworks/CoreGraphics.framework/CoreGraphics"
	coreFoundationPath  = "/System/Library/Frameworks/CoreFoundation.framework/CoreFoundation"
	ioKitPath           = "/System/Library/Frameworks/IOKit.framework/IOKit"
	coreDisplayPath     = "/System/Library/Frameworks/CoreDisplay.framework/CoreDisplay"
	displayServicesPath = "/System/Library/PrivateFrameworks/DisplayServices.framework/DisplayServices"

	cfStringEncodingUTF8 = 0x08000100
	maxDisplays          = 16
)

// ErrMissing is returned when an optional framework symbol is not present.
var ErrMissing = errors.New("quartz: symbol not available")

var (
	loadOnce sync.Once
	loadErr  error

	cgGetActiveDisplayList       func(max uint32, displays *uint32, count *uint32) int32
	cgDisplayIsBuiltin           func(display uint32) uint32
	cgDisplayGammaTableCapacity  func(display uint32) uint32
	cgSetDisplayTransferByTable  func(display uint32, size uint32, red, green, blue *float32) int32
	cgGetDisplayTransferByTable  func(display uint32, capacity uint32, red, green, blue *float32, count *uint32) int32
	cgDisplayIOServicePort       func(display uint32) uint32
	cfStringCreateWithCString    func(alloc uintptr, s *byte, encoding uint32) uintptr
	cfRelease                    func(ref uintptr)
	ioDisplayGetFloatParameter   func(service uint32, options uint32, key uintptr, value *float32) int32
	ioDisplaySetFloatParameter   func(service uint32, options uint32, key uintptr, value float32) int32
	displayServicesGetBrightness func(display uint32, value *float32) int32
	displayServicesSetBrightness func(display uint32, value float32) int32
	coreDisplayGetUserBrightness func(display uint32) float64
	coreDisplaySetUserBrightness func(display uint32, value float64)
)

// Load opens the frameworks. CoreGraphics is required, the rest are optional.
func Load() error {
	loadOnce.Do(func() {
		cg, err := purego.Dlopen(coreGraphicsPath, purego.RTLD_LAZY|purego.RTLD_GLOBAL)
		if err != nil {
			loadErr = fmt.Errorf("dlopen CoreGraphics: %w", err)
			return
		}
		purego.RegisterLibFunc(&cgGetActiveDisplayList, cg, "CGGetActiveDisplayList")
		purego.RegisterLibFunc(&cgDisplayIsBuiltin, cg, "CGDisplayIsBuiltin")
		purego.RegisterLibFunc(&cgDisplayGammaTableCapacity, cg, "CGDisplayGammaTableCapacity")
		purego.RegisterLibFunc(&cgSetDisplayTransferByTable, cg, "CGSetDisplayTransferByTable")
		purego.RegisterLibFunc(&cgGetDisplayTransferByTable, cg, "CGGetDisplayTransferByTable")
		optional(&cgDisplayIOServicePort, cg, "CGDisplayIOServicePort")

		if cf, err := purego.Dlopen(coreFoundationPath, purego.RTLD_LAZY|purego.RTLD_GLOBAL); err == nil {
			optional(&cfStringCreateWithCString, cf, "CFStringCreateWithCString")
			optional(&cfRelease, cf, "CFRelease")
		}
		if iokit, err := purego.Dlopen(ioKitPath, purego.RTLD_LAZY|purego.RTLD_GLOBAL); err == nil {
			optional(&ioDisplayGetFloatParameter, iokit, "IODisplayGetFloatParameter")
			optional(&ioDisplaySetFloatParameter, iokit, "IODisplaySetFloatParameter")
		}
		if ds, err := purego.Dlopen(displayServicesPath, purego.RTLD_LAZY); err == nil {
			optional(&displayServicesGetBrightness, ds, "DisplayServicesGetBrightness")
			optional(&displayServicesSetBrightness, ds, "DisplayServicesSetBrightness")
		}
		if cd, err := purego.Dlopen(coreDisplayPath, purego.RTLD_LAZY); err == nil {
			optional(&coreDisplayGetUserBrightness, cd, "CoreDisplay_Display_GetUserBrightness")
			optional(&coreDisplaySetUserBrightness, cd, "CoreDisplay_Display_SetUserBrightness")
		}
	})
	return loadErr
}

// optional registers fn only when the symbol resolves; fn stays nil otherwise.
func optional(fn any, lib uintptr, name string) {
	addr, err := purego.Dlsym(lib, name)
	if err != nil || addr == 0 {
		return
	}
	purego.RegisterFunc(fn, addr)
}

// ActiveDisplays returns the CGDirectDisplayIDs of every active display.
func ActiveDisplays() ([]uint32, error) {
	if err := Load(); err != nil {
		return nil, err
	}
	ids := make([]uint32, maxDisplays)
	var count uint32
	if rc := cgGetActiveDisplayList(maxDisplays, &ids[0], &count); rc != 0 {
		return nil, fmt.Errorf("CGGetActiveDisplayList failed: %d", rc)
	}
	return ids[:count], nil
}

// IsBuiltin reports whether display is the internal panel.
func IsBuiltin(display uint32) bool {
	if Load() != nil {
		return false
	}
	return cgDisplayIsBuiltin(display) != 0
}

// DisplayServicesBrightness reads brightness through the private
// DisplayServices framework.
func DisplayServicesBrightness(display uint32) (float64, error) {
	if Load() != nil || displayServicesGetBrightness == nil {
		return 0, ErrMissing
	}
	var v float32
	if rc := displayServicesGetBrightness(display, &v); rc != 0 {
		return 0, fmt.Errorf("DisplayServicesGetBrightness failed: %d", rc)
	}
	return float64(v), nil
}

// SetDisplayServicesBrightness writes brightness through DisplayServices.
func SetDisplayServicesBrightness(display uint32, value float64) error {
	if Load() != nil || displayServicesSetBrightness == nil {
		return ErrMissing
	}
	if rc := displayServicesSetBrightness(display, float32(value)); rc != 0 {
		return fmt.Errorf("DisplayServicesSetBrightness failed: %d", rc)
	}
	return nil
}

// CoreDisplayBrightness reads the user brightness through CoreDisplay.
func CoreDisplayBrightness(display uint32) (float64, error) {
	if Load() != nil || coreDisplayGetUserBrightness == nil {
		return 0, ErrMissing
	}
	return coreDisplayGetUserBrightness(display), nil
}

// SetCoreDisplayBrightness writes the user brightness through CoreDisplay.
func SetCoreDisplayBrightness(display uint32, value float64) error {
	if Load() != nil || coreDisplaySetUserBrightness == nil {
		return ErrMissing
	}
	coreDisplaySetUserBrightness(display, value)
	return nil
}

func brightnessKey() (uintptr, error) {
	if cfStringCreateWithCString == nil || cfRelease == nil {
		return 0, ErrMissing
	}
	key := []byte("brightness\x00")
	ref := cfStringCreateWithCString(0, &key[0], cfStringEncodingUTF8)
	if ref == 0 {
		return 0, ErrMissing
	}
	return ref, nil
}

func ioService(display uint32) (uint32, error) {
	if cgDisplayIOServicePort == nil || ioDisplayGetFloatParameter == nil || ioDisplaySetFloatParameter == nil {
		return 0, ErrMissing
	}
	service := cgDisplayIOServicePort(display)
	if service == 0 {
		return 0, fmt.Errorf("no IOService for display %d", display)
	}
	return service, nil
}

// IOKitBrightness reads kIODisplayBrightnessKey from the display's IOService.
func IOKitBrightness(display uint32) (float64, error) {
	if err := Load(); err != nil {
		return 0, err
	}
	service, err := ioService(display)
	if err != nil {
		return 0, err
	}
	key, err := brightnessKey()
	if err != nil {
		return 0, err
	}
	defer cfRelease(key)

	var v float32
	if rc := ioDisplayGetFloatParameter(service, 0, key, &v); rc != 0 {
		return 0, fmt.Errorf("IODisplayGetFloatParameter failed: %d", rc)
	}
	return float64(v), nil
}

// SetIOKitBrightness writes kIODisplayBrightnessKey on the display's IOService.
func SetIOKitBrightness(display uint32, value float64) error {
	if err := Load(); err != nil {
		return err
	}
	service, err := ioService(display)
	if err != nil {
		return err
	}
	key, err := brightnessKey()
	if err != nil {
		return err
	}
	defer cfRelease(key)

	if rc := ioDisplaySetFloatParameter(service, 0, key, float32(value)); rc != 0 {
		return fmt.Errorf("IODisplaySetFloatParameter failed: %d", rc)
	}
	return nil
}

// GammaCapacity returns the transfer table size of display.
func GammaCapacity(display uint32) int {
	if Load() != nil {
		return 0
	}
	return int(cgDisplayGammaTableCapacity(display))
}

// SetTransfer installs the same table on all three channels.
func SetTransfer(display uint32, table []float32) error {
	if err := Load(); err != nil {
		return err
	}
	if len(table) == 0 {
		return fmt.Errorf("empty transfer table")
	}
	if rc := cgSetDisplayTransferByTable(display, uint32(len(table)), &table[0], &table[0], &table[0]); rc != 0 {
		return fmt.Errorf("CGSetDisplayTransferByTable failed: %d", rc)
	}
	return nil
}

// Transfer returns the red channel of the current transfer table.
func Transfer(display uint32) ([]float32, error) {
	if err := Load(); err != nil {
		return nil, err
	}
	capacity := cgDisplayGammaTableCapacity(display)
	if capacity == 0 {
		return nil, fmt.Errorf("display %d has no transfer table", display)
	}
	red := make([]float32, capacity)
	green := make([]float32, capacity)
	blue := make([]float32, capacity)
	var count uint32
	if rc := cgGetDisplayTransferByTable(display, capacity, &red[0], &green[0], &blue[0], &count); rc != 0 {
		return nil, fmt.Errorf("CGGetDisplayTransferByTable failed: %d", rc)
	}
	return red[:count], nil
}
