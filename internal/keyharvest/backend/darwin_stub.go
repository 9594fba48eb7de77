//go:build !darwin

package backend

import "github.com/sjzar/keyharvest/internal/errors"

func newDarwinBackend() (Backend, error) {
	return nil, errors.New(errors.ErrTypeInvalidArg, "darwin memory backend is unavailable on this build", nil, 400)
}
