package audio

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/charmbracelet/log"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/wav"
)

var (
	errEmptyPayload = errors.New("empty payload")
	wavMagic        = []byte("RIFF")
)

// Sink plays payloads for a single pipeline on its [Device].
type Sink struct {
	device *Device
	logger *log.Logger
}

var _ Player = (*Sink)(nil)

// Play decodes payload and blocks until it has been fully played or ctx is done.
//
// Decoding failures return [*DecodeError]; an unavailable output returns [*DeviceError].
// On cancellation only this sink's stream is silenced.
func (s *Sink) Play(ctx context.Context, payload []byte) error {
	stream, format, err := decode(payload)
	if err != nil {
		return err
	}
	defer stream.Close()

	d := s.device
	if err := d.open(); err != nil {
		return &DeviceError{Err: err}
	}

	var src beep.Streamer = stream
	if format.SampleRate != d.rate {
		src = beep.Resample(resampleQuality, format.SampleRate, d.rate, stream)
	}

	done := make(chan struct{})
	ctrl := &beep.Ctrl{Streamer: beep.Seq(src, beep.Callback(func() { close(done) }))}

	s.logger.Debug("playing", "sample_rate", int(format.SampleRate), "channels", format.NumChannels, "samples", stream.Len())
	d.backend.Play(ctrl)

	select {
	case <-done:
	case <-ctx.Done():
		d.backend.Lock()
		ctrl.Streamer = nil
		d.backend.Unlock()
		s.logger.Debug("playback cancelled")
		return ctx.Err()
	}

	if err := stream.Err(); err != nil {
		return &DecodeError{Err: err}
	}
	s.logger.Debug("playback finished")
	return nil
}

func decode(payload []byte) (beep.StreamSeekCloser, beep.Format, error) {
	if len(payload) == 0 {
		return nil, beep.Format{}, &DecodeError{Err: errEmptyPayload}
	}

	var (
		stream beep.StreamSeekCloser
		format beep.Format
		err    error
	)
	if bytes.HasPrefix(payload, wavMagic) {
		stream, format, err = wav.Decode(bytes.NewReader(payload))
	} else {
		stream, format, err = mp3.Decode(io.NopCloser(bytes.NewReader(payload)))
	}
	if err != nil {
		return nil, beep.Format{}, &DecodeError{Err: err}
	}
	return stream, format, nil
}
