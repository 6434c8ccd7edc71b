// platform/audio_input.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package platform

// typedef unsigned char uint8;
// void audioInputCallback(void *userdata, uint8 *stream, int len);
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

//export audioInputCallback
func audioInputCallback(user unsafe.Pointer, ptr *C.uint8, size C.int) {
	n := int(size)
	hdr := reflect.SliceHeader{Data: uintptr(unsafe.Pointer(ptr)), Len: n, Cap: n}
	raw := *(*[]byte)(unsafe.Pointer(&hdr))

	samples := make([]float32, n/4)
	for i := range samples {
		bits := uint32(raw[4*i]) | uint32(raw[4*i+1])<<8 | uint32(raw[4*i+2])<<16 | uint32(raw[4*i+3])<<24
		samples[i] = gomath.Float32frombits(bits)
	}

	ac := (*AudioCapture)(user)
	ac.deliver(samples)
}

// AudioCapture opens a capture device and delivers interleaved stereo
// float32 frames at the device's native rate to a callback. Mono
// devices are duplicated to stereo before delivery.
type AudioCapture struct {
	deviceID      sdl.AudioDeviceID
	deviceOpen    bool
	currentDevice string
	running       bool
	channels      int
	onFrames      func(stereoInterleaved []float32)
	mu            util.LoggingMutex
	lg            *log.Logger
	pinner        runtime.Pinner
}

// NewAudioCapture creates a capture device wrapper. onFrames is called
// from the SDL audio thread each time a new block of samples arrives;
// it must not block.
func NewAudioCapture(lg *log.Logger, onFrames func(stereoInterleaved []float32)) *AudioCapture {
	return &AudioCapture{lg: lg, onFrames: onFrames}
}

// Start opens deviceName (empty string selects the host default) at the
// given sample rate and channel count and begins delivering frames.
func (ac *AudioCapture) Start(deviceName string, sampleRate, channels int) error {
	ac.mu.Lock(ac.lg)
	defer ac.mu.Unlock(ac.lg)

	if ac.running {
		return fmt.Errorf("capture already running")
	}

	if status := GetMicrophoneAuthorizationStatus(); status != MicAuthAuthorized {
		RequestMicrophoneAccess()
		if status = GetMicrophoneAuthorizationStatus(); status != MicAuthAuthorized {
			return fmt.Errorf("microphone access not authorized: %s", status)
		}
	}

	if ac.deviceOpen && ac.currentDevice != deviceName {
		sdl.PauseAudioDevice(ac.deviceID, true)
		sdl.CloseAudioDevice(ac.deviceID)
		ac.pinner.Unpin()
		ac.deviceOpen = false
		ac.lg.Infof("Closed capture device %q to switch to %q", ac.currentDevice, deviceName)
	}

	if !ac.deviceOpen {
		user := unsafe.Pointer(ac)
		ac.pinner.Pin(user)
		spec := sdl.AudioSpec{
			Freq:     int32(sampleRate),
			Format:   sdl.AUDIO_F32SYS,
			Channels: uint8(channels),
			Samples:  2048,
			Callback: sdl.AudioCallback(C.audioInputCallback),
			UserData: user,
		}

		id, err := sdl.OpenAudioDevice(deviceName, true, &spec, nil, 0)
		if err != nil {
			ac.pinner.Unpin()
			return fmt.Errorf("failed to open capture device: %v", err)
		}

		ac.deviceID = id
		ac.deviceOpen = true
		ac.currentDevice = deviceName
		ac.channels = channels
		ac.lg.Infof("Opened capture device %q at %d Hz, %d ch", deviceName, sampleRate, channels)
	}

	ac.running = true
	sdl.PauseAudioDevice(ac.deviceID, false)
	ac.lg.Infof("Started capture")
	return nil
}

// Stop pauses the capture device. The device handle stays open so a
// later Start on the same device is cheap.
func (ac *AudioCapture) Stop() {
	ac.mu.Lock(ac.lg)
	defer ac.mu.Unlock(ac.lg)
	if ac.running {
		sdl.PauseAudioDevice(ac.deviceID, true)
		ac.running = false
		ac.lg.Infof("Stopped capture")
	}
}

// Close closes the capture device. Call on shutdown.
func (ac *AudioCapture) Close() {
	ac.mu.Lock(ac.lg)
	defer ac.mu.Unlock(ac.lg)
	if ac.deviceOpen {
		sdl.PauseAudioDevice(ac.deviceID, true)
		sdl.CloseAudioDevice(ac.deviceID)
		ac.pinner.Unpin()
		ac.deviceOpen = false
		ac.lg.Info("Closed capture device")
	}
}

// deliver is invoked by the cgo trampoline with a block of raw float32
// samples; mono input is duplicated into an interleaved stereo buffer
// before reaching onFrames, which runs inline on the audio thread and
// therefore must not block or take locks.
func (ac *AudioCapture) deliver(samples []float32) {
	if ac.onFrames == nil {
		return
	}
	if ac.channels == 2 {
		ac.onFrames(samples)
		return
	}
	stereo := make([]float32, len(samples)*2)
	for i, v := range samples {
		stereo[2*i] = v
		stereo[2*i+1] = v
	}
	ac.onFrames(stereo)
}

// GetAudioInputDevices returns a list of available audio capture devices.
func GetAudioInputDevices() []string {
	count := sdl.GetNumAudioDevices(true)
	devices := make([]string, 0, count)
	for i := 0; i < count; i++ {
		if name := sdl.GetAudioDeviceName(i, true); name != "" {
			devices = append(devices, name)
		}
	}
	return devices
}
