package audio_test

import (
	"bytes"
	"math"
	"testing"

	"github.com/alkime/speakimage/internal/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sine(n, rate int) []int16 {
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = int16(8000 * math.Sin(2*math.Pi*440*float64(i)/float64(rate)))
	}

	return samples
}

func TestEncodeMP3(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	pcm := audio.PCM{Samples: sine(48000, 48000), SampleRate: 48000}

	require.NoError(t, audio.EncodeMP3(pcm, &out))
	assert.NotZero(t, out.Len(), "should produce MP3 frames")
	assert.Less(t, out.Len(), len(pcm.Samples)*2, "MP3 should be smaller than the PCM")
}

func TestEncodeMP3_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		pcm         audio.PCM
		nilWriter   bool
		expectError string
	}{
		{
			name:        "nil writer",
			pcm:         audio.PCM{Samples: []int16{1}, SampleRate: 48000},
			nilWriter:   true,
			expectError: "cannot be nil",
		},
		{
			name:        "no samples",
			pcm:         audio.PCM{SampleRate: 48000},
			expectError: "no samples",
		},
		{
			name:        "unsupported rate",
			pcm:         audio.PCM{Samples: []int16{1}, SampleRate: 96000},
			expectError: "not supported",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var err error
			if tt.nilWriter {
				err = audio.EncodeMP3(tt.pcm, nil)
			} else {
				err = audio.EncodeMP3(tt.pcm, &bytes.Buffer{})
			}

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectError)
		})
	}
}
