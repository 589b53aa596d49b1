//go:build windows

package main

import "errors"

func sendControl(int, string) error {
	return errors.ErrUnsupported
}
