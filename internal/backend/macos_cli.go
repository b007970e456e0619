package backend

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"displayctl/internal/command"
)

// Output patterns of the macOS DDC tools, in the order they are tried.
var (
	m1ddcPatterns = []*regexp.Regexp{
		regexp.MustCompile(`luminance:\s*(\d+)`),
		regexp.MustCompile(`^\s*(\d+)\s*$`),
	}
	ddcctlPatterns = []*regexp.Regexp{
		regexp.MustCompile(`current:\s*(\d+),\s*max:\s*(\d+)`),
		regexp.MustCompile(`control\s+#\d+\s+=\s+(\d+)`),
		regexp.MustCompile(`brightness\s*=\s*(\d+)`),
	}
)

// MacCLI drives m1ddc or ddcctl by 1-based display index.
type MacCLI struct {
	Tool   string // NameM1DDC or NameDDCCtl
	Runner command.Runner
}

// NewM1DDC returns the m1ddc backend.
func NewM1DDC(runner command.Runner) *MacCLI { return &MacCLI{Tool: NameM1DDC, Runner: runner} }

// NewDDCCtl returns the ddcctl backend.
func NewDDCCtl(runner command.Runner) *MacCLI { return &MacCLI{Tool: NameDDCCtl, Runner: runner} }

func (m *MacCLI) Name() string { return m.Tool }
func (m *MacCLI) Scoped() bool { return true }

func (m *MacCLI) args(bus int, value string) []string {
	n := strconv.Itoa(bus)
	if m.Tool == NameM1DDC {
		if value == "" {
			return []string{"display", n, "get", "luminance"}
		}
		return []string{"display", n, "set", "luminance", value}
	}
	if value == "" {
		value = "?"
	}
	return []string{"-d", n, "-b", value}
}

func (m *MacCLI) run(args []string) (string, error) {
	if _, err := m.Runner.LookPath(m.Tool); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	res, err := m.Runner.Run(command.Request{Name: m.Tool, Args: args})
	if err != nil {
		return "", err
	}
	if !res.OK() {
		return "", fmt.Errorf("%s exited with %d", m.Tool, res.ExitCode)
	}
	return strings.TrimSpace(string(res.Stdout)), nil
}

// Get reads luminance out of 100 (or out of the reported max for ddcctl).
func (m *MacCLI) Get(t Target) (float64, error) {
	if err := command.ValidBus(t.Bus); err != nil {
		return 0, err
	}
	out, err := m.run(m.args(t.Bus, ""))
	if err != nil {
		return 0, err
	}
	cur, max, err := m.parse(out)
	if err != nil {
		return 0, err
	}
	return Clamp(float64(cur) / float64(max)), nil
}

// Set writes round(value*100).
func (m *MacCLI) Set(t Target, value float64) error {
	if err := command.ValidBus(t.Bus); err != nil {
		return err
	}
	raw := int(Clamp(value)*100 + 0.5)
	_, err := m.run(m.args(t.Bus, strconv.Itoa(raw)))
	return err
}

func (m *MacCLI) parse(out string) (cur, max int, err error) {
	patterns := ddcctlPatterns
	if m.Tool == NameM1DDC {
		patterns = m1ddcPatterns
	}
	for _, re := range patterns {
		matches := re.FindStringSubmatch(out)
		if len(matches) < 2 {
			continue
		}
		cur, err := strconv.Atoi(matches[1])
		if err != nil {
			continue
		}
		max := 100
		if len(matches) > 2 {
			if v, err := strconv.Atoi(matches[2]); err == nil && v > 0 {
				max = v
			}
		}
		return cur, max, nil
	}
	return 0, 0, fmt.Errorf("could not parse value from %s output: '%s'", m.Tool, out)
}
