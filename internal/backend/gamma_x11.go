//go:build linux

package backend

import (
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"

	"displayctl/internal/topology"
)

// X11 drives CRTC gamma through the RandR extension.
type X11 struct {
	Dial func() (*xgb.Conn, error)
}

// NewX11 connects to $DISPLAY on every call.
func NewX11() *X11 {
	return &X11{Dial: xgb.NewConn}
}

func (x *X11) Name() string { return "randr" }

// withCrtc finds the CRTC currently driving the named output.
func (x *X11) withCrtc(name string, fn func(conn *xgb.Conn, crtc randr.Crtc) error) error {
	if name == "" {
		return ErrUnsupported
	}
	conn, err := x.Dial()
	if err != nil {
		return fmt.Errorf("failed to connect to X server: %w", err)
	}
	defer conn.Close()

	if err := randr.Init(conn); err != nil {
		return fmt.Errorf("%w: randr: %v", ErrUnsupported, err)
	}

	root := xproto.Setup(conn).DefaultScreen(conn).Root
	resources, err := randr.GetScreenResources(conn, root).Reply()
	if err != nil {
		return fmt.Errorf("failed to get screen resources: %w", err)
	}

	for _, output := range resources.Outputs {
		info, err := randr.GetOutputInfo(conn, output, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}
		if string(info.Name) != name || info.Crtc == 0 {
			continue
		}
		return fn(conn, info.Crtc)
	}
	return fmt.Errorf("%w: no active crtc for %s", ErrUnsupported, name)
}

// Apply sets a linear ramp on the output's CRTC.
func (x *X11) Apply(out topology.Output, factor float64) error {
	return x.withCrtc(out.Connector, func(conn *xgb.Conn, crtc randr.Crtc) error {
		size, err := randr.GetCrtcGammaSize(conn, crtc).Reply()
		if err != nil {
			return fmt.Errorf("failed to get gamma size: %w", err)
		}
		if size.Size == 0 {
			return fmt.Errorf("%w: crtc %d has no gamma table", ErrUnsupported, crtc)
		}
		ramp := Ramp(int(size.Size), factor)
		return randr.SetCrtcGammaChecked(conn, crtc, size.Size, ramp, ramp, ramp).Check()
	})
}

// Factor reads the top entry of the red ramp.
func (x *X11) Factor(out topology.Output) (float64, error) {
	var factor float64
	err := x.withCrtc(out.Connector, func(conn *xgb.Conn, crtc randr.Crtc) error {
		gamma, err := randr.GetCrtcGamma(conn, crtc).Reply()
		if err != nil {
			return fmt.Errorf("failed to get gamma: %w", err)
		}
		factor = RampFactor(gamma.Red)
		return nil
	})
	return factor, err
}
