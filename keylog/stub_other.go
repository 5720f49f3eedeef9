//go:build !linux && !windows

package keylog

import "context"

// StubSource is used on platforms without a key capture backend.
type StubSource struct{}

func NewPlatformSource() Source {
	return StubSource{}
}

func (StubSource) Name() string { return "none" }

func (StubSource) Available() (bool, string) {
	return false, "key capture not implemented for this platform"
}

func (StubSource) Start(context.Context, *Queue) error {
	return ErrNotAvailable
}

func (StubSource) Stop() error {
	return nil
}
