package audio

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/previewer/internal/shared"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

const (
	DefaultSampleRate = beep.SampleRate(44100)
	SpeakerBufferSize = 100 * time.Millisecond
	resampleQuality   = 4
)

// Player plays one decoded payload to completion.
type Player interface {
	Play(ctx context.Context, payload []byte) error
}

// backend is the mixer behind a [Device].
type backend interface {
	Init(sampleRate beep.SampleRate, bufferSize int) error
	Play(s ...beep.Streamer)
	Lock()
	Unlock()
	Close()
}

type speakerBackend struct{}

func (speakerBackend) Init(sr beep.SampleRate, n int) error { return speaker.Init(sr, n) }
func (speakerBackend) Play(s ...beep.Streamer)              { speaker.Play(s...) }
func (speakerBackend) Lock()                                { speaker.Lock() }
func (speakerBackend) Unlock()                              { speaker.Unlock() }
func (speakerBackend) Close()                               { speaker.Close() }

// drainBackend consumes streams without producing sound.
type drainBackend struct {
	mu sync.Mutex
}

func (d *drainBackend) Init(beep.SampleRate, int) error { return nil }
func (d *drainBackend) Lock()                           { d.mu.Lock() }
func (d *drainBackend) Unlock()                         { d.mu.Unlock() }
func (d *drainBackend) Close()                          {}

func (d *drainBackend) Play(streamers ...beep.Streamer) {
	go func() {
		buf := make([][2]float64, 512)
		for _, s := range streamers {
			for {
				d.mu.Lock()
				_, ok := s.Stream(buf)
				d.mu.Unlock()
				if !ok {
					break
				}
			}
		}
	}()
}

// Device is the shared audio output handle. The underlying speaker is initialised lazily,
// exactly once, at a fixed sample rate; a failed init is reported by every sink.
type Device struct {
	rate    beep.SampleRate
	buffer  time.Duration
	backend backend
	logger  *log.Logger

	once    sync.Once
	initErr error
	opened  atomic.Bool
	sinks   atomic.Int64
}

// NewDevice returns a device backed by the system speaker.
func NewDevice(logger *log.Logger) *Device {
	return newDevice(speakerBackend{}, logger)
}

// NewMutedDevice returns a device that decodes and drains streams silently.
func NewMutedDevice(logger *log.Logger) *Device {
	return newDevice(&drainBackend{}, logger)
}

func newDevice(b backend, logger *log.Logger) *Device {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &Device{rate: DefaultSampleRate, buffer: SpeakerBufferSize, backend: b, logger: logger}
}

// SampleRate is the rate every stream is resampled to.
func (d *Device) SampleRate() beep.SampleRate {
	return d.rate
}

func (d *Device) open() error {
	d.once.Do(func() {
		if err := d.backend.Init(d.rate, d.rate.N(d.buffer)); err != nil {
			d.initErr = err
			d.logger.Error("failed to initialize audio output", "error", err)
			return
		}
		d.opened.Store(true)
		d.logger.Debug("audio output initialized", "sample_rate", int(d.rate), "buffer", d.buffer)
	})
	return d.initErr
}

// NewSink returns a sink for one pipeline. It is safe for concurrent use.
func (d *Device) NewSink() *Sink {
	id := d.sinks.Add(1)
	return &Sink{device: d, logger: d.logger.With("sink", id)}
}

// Close releases the speaker if it was opened.
func (d *Device) Close() error {
	if d.opened.CompareAndSwap(true, false) {
		d.backend.Close()
	}
	return nil
}
