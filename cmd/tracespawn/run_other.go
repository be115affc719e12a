//go:build !linux

package main

import (
	"errors"

	"github.com/rs/zerolog"
)

func execute(*options, zerolog.Logger) error {
	return errors.New("tracespawn is only supported on linux")
}
