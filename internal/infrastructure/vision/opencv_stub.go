//go:build !gocv
// +build !gocv

package vision

import "errors"

// newOpenCVBackend сообщает о недоступности OpenCV в сборке без тега gocv.
func newOpenCVBackend() (Backend, error) {
	return nil, errors.New("gocv build tag is not enabled")
}
