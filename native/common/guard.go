// Package common holds the pause and authority guards shared by the mint
// vault and stake vault engines, generalized from the teacher's
// native/common package.
package common

import "errors"

var ErrModulePaused = errors.New("module paused")

// PauseView is the narrow read-only surface an engine needs to check its own
// pause state. Each vault implements it directly over its own config record.
type PauseView interface {
	IsPaused(module string) bool
}

// Guard rejects the call with ErrModulePaused when module is paused.
func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}
