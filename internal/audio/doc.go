// Package audio decodes preview payloads and plays them on a shared output device.
//
// A single [Device] is created per run and owns the speaker. Each pipeline asks it for its own
// [Sink] with [Device.NewSink]; sinks decode independently and their streams are mixed by the
// speaker, so several previews may play at once.
//
// Payloads starting with "RIFF" are decoded as WAV, everything else as MP3. Streams whose
// sample rate differs from the device rate are resampled.
//
// [NewMutedDevice] returns a device that decodes and drains streams without sound output.
package audio
