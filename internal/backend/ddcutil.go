package backend

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"displayctl/internal/command"
	"displayctl/internal/ddc"
)

// DDCUtil drives the ddcutil command line tool by bus number.
type DDCUtil struct {
	Runner command.Runner

	mu  sync.Mutex
	max map[int]uint16
}

// NewDDCUtil returns the ddcutil backend.
func NewDDCUtil(runner command.Runner) *DDCUtil {
	return &DDCUtil{Runner: runner, max: make(map[int]uint16)}
}

func (d *DDCUtil) Name() string { return NameDDCUtil }
func (d *DDCUtil) Scoped() bool { return true }

func (d *DDCUtil) run(args ...string) ([]byte, error) {
	if _, err := d.Runner.LookPath("ddcutil"); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	res, err := d.Runner.Run(command.Request{Name: "ddcutil", Args: args})
	if err != nil {
		return nil, err
	}
	if !res.OK() {
		return nil, fmt.Errorf("ddcutil %s exited with %d", args[0], res.ExitCode)
	}
	return res.Stdout, nil
}

// Get runs `ddcutil getvcp 10 --bus N --brief`.
func (d *DDCUtil) Get(t Target) (float64, error) {
	if err := command.ValidBus(t.Bus); err != nil {
		return 0, err
	}
	out, err := d.run("getvcp", "10", "--bus", strconv.Itoa(t.Bus), "--brief")
	if err != nil {
		return 0, err
	}

	cur, max, err := ParseBriefVCP(out)
	if err != nil {
		return 0, err
	}

	d.mu.Lock()
	if d.max == nil {
		d.max = make(map[int]uint16)
	}
	d.max[t.Bus] = max
	d.mu.Unlock()

	v, _ := ddc.Reply{Max: max, Current: cur}.Normalized()
	return v, nil
}

// Set runs `ddcutil setvcp 10 V --bus N --noverify`.
func (d *DDCUtil) Set(t Target, value float64) error {
	if err := command.ValidBus(t.Bus); err != nil {
		return err
	}

	d.mu.Lock()
	max, ok := d.max[t.Bus]
	d.mu.Unlock()
	if !ok {
		max = 100
	}

	raw := ddc.Scale(Clamp(value), max)
	_, err := d.run("setvcp", "10", strconv.Itoa(int(raw)), "--bus", strconv.Itoa(t.Bus), "--noverify")
	return err
}

// ParseBriefVCP parses a continuous-feature line such as "VCP 10 C 50 100".
func ParseBriefVCP(out []byte) (cur, max uint16, err error) {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "VCP ") {
			continue
		}
		var code, c, m int
		if n, _ := fmt.Sscanf(line, "VCP %x C %d %d", &code, &c, &m); n != 3 {
			return 0, 0, fmt.Errorf("%w: unexpected ddcutil line %q", ddc.ErrProtocol, line)
		}
		if m <= 0 || c < 0 || m > 0xFFFF || c > 0xFFFF {
			return 0, 0, fmt.Errorf("%w: ddcutil reported %d/%d", ddc.ErrZeroMax, c, m)
		}
		return uint16(c), uint16(m), nil
	}
	return 0, 0, fmt.Errorf("%w: no VCP line in ddcutil output", ddc.ErrNoReply)
}
