// platform/audio_output.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package platform

// typedef unsigned char uint8;
// void audioOutputCallback(void *userdata, uint8 *stream, int len);
import "C"

import (
	"fmt"
	gomath "math"
	"reflect"
	"runtime"
	"unsafe"

	"github.com/kb9vt/mpxrds/log"
	"github.com/kb9vt/mpxrds/util"
	"github.com/veandco/go-sdl2/sdl"
)

//export audioOutputCallback
func audioOutputCallback(user unsafe.Pointer, ptr *C.uint8, size C.int) {
	n := int(size)
	hdr := reflect.SliceHeader{Data: uintptr(unsafe.Pointer(ptr)), Len: n, Cap: n}
	raw := *(*[]byte)(unsafe.Pointer(&hdr))

	out := (*AudioOutput)(user)
	samples := out.fill(n / 4)
	for i, v := range samples {
		bits := gomath.Float32bits(v)
		raw[4*i] = byte(bits)
		raw[4*i+1] = byte(bits >> 8)
		raw[4*i+2] = byte(bits >> 16)
		raw[4*i+3] = byte(bits >> 24)
	}
}

// AudioOutput opens a playback device at a fixed sample rate and channel
// count and pulls one composite sample per channel-frame from fillFrame
// each time the host requests more audio.
type AudioOutput struct {
	deviceID   sdl.AudioDeviceID
	deviceOpen bool
	running    bool
	channels   int
	fillFrame  func() float32
	mu         util.LoggingMutex
	lg         *log.Logger
	pinner     runtime.Pinner
}

// NewAudioOutput creates an output device wrapper. fillFrame is called
// from the SDL audio thread once per output channel-frame; it is the
// realtime path and must not block.
func NewAudioOutput(lg *log.Logger, fillFrame func() float32) *AudioOutput {
	return &AudioOutput{lg: lg, fillFrame: fillFrame}
}

// Start opens deviceName (empty string selects the host default) at the
// given sample rate and channel count and begins pulling samples.
func (ao *AudioOutput) Start(deviceName string, sampleRate, channels int) error {
	ao.mu.Lock(ao.lg)
	defer ao.mu.Unlock(ao.lg)

	if ao.running {
		return fmt.Errorf("output already running")
	}

	user := unsafe.Pointer(ao)
	ao.pinner.Pin(user)
	spec := sdl.AudioSpec{
		Freq:     int32(sampleRate),
		Format:   sdl.AUDIO_F32SYS,
		Channels: uint8(channels),
		Samples:  1024,
		Callback: sdl.AudioCallback(C.audioOutputCallback),
		UserData: user,
	}

	id, err := sdl.OpenAudioDevice(deviceName, false, &spec, nil, 0)
	if err != nil {
		ao.pinner.Unpin()
		return fmt.Errorf("failed to open output device: %v", err)
	}

	ao.deviceID = id
	ao.deviceOpen = true
	ao.channels = channels
	ao.running = true
	sdl.PauseAudioDevice(ao.deviceID, false)
	ao.lg.Infof("Opened output device %q at %d Hz, %d ch", deviceName, sampleRate, channels)
	return nil
}

// Stop pauses and closes the output device.
func (ao *AudioOutput) Stop() {
	ao.mu.Lock(ao.lg)
	defer ao.mu.Unlock(ao.lg)
	if ao.deviceOpen {
		sdl.PauseAudioDevice(ao.deviceID, true)
		sdl.CloseAudioDevice(ao.deviceID)
		ao.pinner.Unpin()
		ao.deviceOpen = false
		ao.running = false
		ao.lg.Info("Closed output device")
	}
}

// fill produces nSamples interleaved float32 values (nSamples/channels
// channel-frames), duplicating one fillFrame() call's result across
// every output channel.
func (ao *AudioOutput) fill(nSamples int) []float32 {
	out := make([]float32, nSamples)
	if ao.channels <= 0 || ao.fillFrame == nil {
		return out
	}
	for i := 0; i+ao.channels <= len(out); i += ao.channels {
		v := ao.fillFrame()
		for c := 0; c < ao.channels; c++ {
			out[i+c] = v
		}
	}
	return out
}

// GetAudioOutputDevices returns a list of available audio playback
// devices.
func GetAudioOutputDevices() []string {
	count := sdl.GetNumAudioDevices(false)
	devices := make([]string, 0, count)
	for i := 0; i < count; i++ {
		if name := sdl.GetAudioDeviceName(i, false); name != "" {
			devices = append(devices, name)
		}
	}
	return devices
}
