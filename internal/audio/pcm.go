// Package audio handles the captured speech audio: decoding browser WAV
// uploads or raw PCM, MP3 encoding for upload, and local microphone capture.
package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	// DefaultSampleRate is the capture rate the control panels record at.
	DefaultSampleRate = 48_000
	// DefaultChannels is mono (1 channel).
	DefaultChannels = 1

	// WAVHeaderSize is the length of the header written by EncodeWAV.
	WAVHeaderSize = 44

	bitDepth       = 16
	bytesPerSample = 2

	formatPCM        = 1
	formatExtensible = 0xFFFE
)

// PCM is signed 16-bit mono audio.
type PCM struct {
	Samples    []int16
	SampleRate int
}

// Duration returns the length of the audio in seconds.
func (p PCM) Duration() float64 {
	if p.SampleRate <= 0 {
		return 0
	}

	return float64(len(p.Samples)) / float64(p.SampleRate)
}

// Normalize decodes captured audio into mono PCM. A RIFF/WAVE container is
// parsed (16-bit PCM only, multi-channel input is down-mixed); anything else
// is taken as raw S16LE mono at DefaultSampleRate.
func Normalize(data []byte) (PCM, error) {
	if len(data) == 0 {
		return PCM{}, errors.New("audio data is empty")
	}

	if isWAV(data) {
		return decodeWAV(data)
	}

	if len(data)%bytesPerSample != 0 {
		return PCM{}, fmt.Errorf("raw PCM length %d is not a whole number of 16-bit samples", len(data))
	}

	return PCM{
		Samples:    BytesToInt16(data),
		SampleRate: DefaultSampleRate,
	}, nil
}

func isWAV(data []byte) bool {
	return len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE"
}

func decodeWAV(data []byte) (PCM, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))

	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		return PCM{}, fmt.Errorf("failed to read WAV header: %w", err)
	}

	if dec.NumChans == 0 || dec.SampleRate == 0 {
		return PCM{}, errors.New("WAV file has no fmt chunk")
	}
	if dec.WavAudioFormat != formatPCM && dec.WavAudioFormat != formatExtensible {
		return PCM{}, fmt.Errorf("unsupported WAV encoding %d: only linear PCM is supported", dec.WavAudioFormat)
	}
	if dec.BitDepth != bitDepth {
		return PCM{}, fmt.Errorf("unsupported WAV sample size %d bits: only 16-bit is supported", dec.BitDepth)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return PCM{}, fmt.Errorf("failed to decode WAV samples: %w", err)
	}
	if buf == nil {
		return PCM{}, errors.New("WAV file has no data chunk")
	}

	samples := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = int16(v)
	}

	if channels := int(dec.NumChans); channels > 1 {
		samples = downmix(samples, channels)
	}

	return PCM{
		Samples:    samples,
		SampleRate: int(dec.SampleRate),
	}, nil
}

// downmix averages interleaved channels into one.
func downmix(samples []int16, channels int) []int16 {
	frames := len(samples) / channels
	mono := make([]int16, frames)

	for i := range frames {
		var sum int32
		for ch := range channels {
			sum += int32(samples[i*channels+ch])
		}
		mono[i] = int16(sum / int32(channels))
	}

	return mono
}

// EncodeWAV wraps mono PCM in a 16-bit RIFF/WAVE container.
func EncodeWAV(pcm PCM) ([]byte, error) {
	out := &memFile{}
	enc := wav.NewEncoder(out, pcm.SampleRate, bitDepth, DefaultChannels, formatPCM)

	data := make([]int, len(pcm.Samples))
	for i, s := range pcm.Samples {
		data[i] = int(s)
	}

	err := enc.Write(&goaudio.IntBuffer{
		Data:           data,
		SourceBitDepth: bitDepth,
		Format: &goaudio.Format{
			NumChannels: DefaultChannels,
			SampleRate:  pcm.SampleRate,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to write WAV samples: %w", err)
	}

	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize WAV header: %w", err)
	}

	return out.buf, nil
}

// BytesToInt16 converts S16LE (signed 16-bit little-endian) bytes to int16 samples.
func BytesToInt16(data []byte) []int16 {
	numSamples := len(data) / bytesPerSample
	if numSamples == 0 {
		return nil
	}

	samples := make([]int16, numSamples)

	for i := range numSamples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*bytesPerSample:]))
	}

	return samples
}

// memFile is an in-memory io.WriteSeeker; the WAV encoder seeks back to
// patch chunk sizes on Close.
type memFile struct {
	buf []byte
	pos int
}

func (m *memFile) Write(p []byte) (int, error) {
	if end := m.pos + len(p); end > len(m.buf) {
		m.buf = append(m.buf, make([]byte, end-len(m.buf))...)
	}

	n := copy(m.buf[m.pos:], p)
	m.pos += n

	return n, nil
}

func (m *memFile) Seek(offset int64, whence int) (int64, error) {
	var next int64

	switch whence {
	case io.SeekStart:
		next = offset
	case io.SeekCurrent:
		next = int64(m.pos) + offset
	case io.SeekEnd:
		next = int64(len(m.buf)) + offset
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}

	if next < 0 {
		return 0, errors.New("negative seek position")
	}

	m.pos = int(next)

	return next, nil
}
