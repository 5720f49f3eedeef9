//go:build !linux && !windows

package platform

// Open has no native implementation here; callers fall back to Noop.
func Open(uintptr) (Shim, error) {
	return nil, ErrUnsupported
}
