package audio

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	mp3encoder "github.com/braheezy/shine-mp3/pkg/mp3"
)

// supportedMP3Rates are the sample rates shine can encode.
var supportedMP3Rates = map[int]bool{
	8000: true, 11025: true, 12000: true,
	16000: true, 22050: true, 24000: true,
	32000: true, 44100: true, 48000: true,
}

// EncodeMP3 encodes mono PCM as MP3 and writes the frames to w.
func EncodeMP3(pcm PCM, w io.Writer) error {
	if w == nil {
		return errors.New("output writer cannot be nil")
	}

	if len(pcm.Samples) == 0 {
		return errors.New("no samples to encode")
	}

	if !supportedMP3Rates[pcm.SampleRate] {
		return fmt.Errorf("sample rate %d Hz is not supported by the MP3 encoder", pcm.SampleRate)
	}

	// WORKAROUND: shine-mp3 Write() mishandles mono input, so encode as stereo
	// with both channels carrying the same samples.
	stereo := make([]int16, len(pcm.Samples)*2)
	for i, sample := range pcm.Samples {
		stereo[i*2] = sample
		stereo[i*2+1] = sample
	}

	slog.Debug("encoding MP3",
		"monoSamples", len(pcm.Samples),
		"sampleRate", pcm.SampleRate)

	encoder := mp3encoder.NewEncoder(pcm.SampleRate, 2)
	if err := encoder.Write(w, stereo); err != nil {
		return fmt.Errorf("failed to encode audio to MP3: %w", err)
	}

	return nil
}
