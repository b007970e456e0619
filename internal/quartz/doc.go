// Package quartz binds the CoreGraphics, DisplayServices, CoreDisplay and
// IOKit display calls through purego, without cgo. It is empty on other
// platforms.
package quartz
