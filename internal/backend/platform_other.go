//go:build !linux && !darwin && !windows

package backend

// Platform returns an empty chain; nothing can control displays here.
func Platform(d Deps) Chain {
	return d.assemble(nil, nil)
}
