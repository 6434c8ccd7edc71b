// engine/params.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package engine

import (
	"sync/atomic"

	"github.com/brunoga/deep"

	"github.com/kb9vt/mpxrds/mpx"
	"github.com/kb9vt/mpxrds/rds"
)

// Params is the full live-tunable parameter set: the DSP side (mpx.Config),
// the output stage (mpx.OutputConfig), and RDS metadata (rds.Params),
// published as a unit.
type Params struct {
	MPX    mpx.Config
	Output mpx.OutputConfig
	RDS    rds.Params
}

// paramStore is a double-buffered snapshot published by atomic pointer
// swap, so the audio callback reads with a single atomic load rather
// than contending with the controller for a mutex.
//
// The controller stages a deep copy of the current snapshot, mutates the
// copy, and publishes it; readers always see a complete, consistent
// Params value, never a partially-written one.
type paramStore struct {
	current atomic.Pointer[Params]
}

func newParamStore(initial Params) *paramStore {
	s := &paramStore{}
	s.current.Store(&initial)
	return s
}

// Load returns the currently published snapshot. Safe to call from the
// realtime audio callback.
func (s *paramStore) Load() *Params {
	return s.current.Load()
}

// Update stages a deep copy of the current snapshot, applies mutate to
// it, and publishes the result. Intended for controller use only; it
// never blocks a concurrent Load.
func (s *paramStore) Update(mutate func(*Params)) error {
	cur := s.current.Load()
	next, err := deep.Copy(*cur)
	if err != nil {
		return err
	}
	mutate(&next)
	s.current.Store(&next)
	return nil
}
