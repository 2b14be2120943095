//go:build !linux || !(amd64 || arm64)

package haptic

func openRumble() (Output, error) {
	return nil, ErrUnsupported
}

func Diagnose() (string, error) {
	return "", ErrUnsupported
}
