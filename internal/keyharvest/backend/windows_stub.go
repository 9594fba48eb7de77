//go:build !windows

package backend

import "github.com/sjzar/keyharvest/internal/errors"

func newWindowsBackend() (Backend, error) {
	return nil, errors.New(errors.ErrTypeInvalidArg, "windows memory backend is unavailable on this build", nil, 400)
}
