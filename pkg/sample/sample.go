// Package sample decodes source audio files into mono 16-bit PCM.
package sample

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/aiff"
	"github.com/go-audio/riff"
	"github.com/go-audio/wav"
	"github.com/rs/zerolog"
)

// Errors.
var (
	ErrNotMono           = errors.New("sample: only mono samples are supported")
	ErrUnsupportedFormat = errors.New("sample: unsupported format")
	ErrInvalidFile       = errors.New("sample: invalid file")
)

// WAV format tags.
const (
	wavFormatPCM        = 0x0001
	wavFormatFloat      = 0x0003
	wavFormatExtensible = 0xFFFE
)

// Sample is a decoded mono sample.
type Sample struct {
	Name       string  // identifier the sample was decoded from
	Data       []int16 // 16-bit PCM points
	SampleRate uint32  // Hz
}

// Len returns the number of points in the sample.
func (s *Sample) Len() int {
	return len(s.Data)
}

// Decoder turns a sample identifier into decoded audio.
type Decoder interface {
	Decode(ref string) (*Sample, error)
}

// FileDecoder decodes WAV and AIFF files below a directory.
type FileDecoder struct {
	dir string
	log zerolog.Logger
}

// NewFileDecoder creates a decoder resolving identifiers relative to dir.
func NewFileDecoder(dir string, log zerolog.Logger) *FileDecoder {
	return &FileDecoder{
		dir: dir,
		log: log.With().Str("component", "sample").Logger(),
	}
}

// Decode reads the file named ref. The format is chosen by extension.
func (d *FileDecoder) Decode(ref string) (*Sample, error) {
	path := filepath.Join(d.dir, ref)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sample '%s': %w", ref, err)
	}
	defer f.Close()

	var s *Sample
	switch ext := strings.ToLower(filepath.Ext(ref)); ext {
	case ".wav", ".wave":
		s, err = DecodeWAV(f)
	case ".aif", ".aiff", ".aifc":
		s, err = DecodeAIFF(f)
	default:
		err = fmt.Errorf("%w: extension %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode sample '%s': %w", ref, err)
	}
	s.Name = ref

	d.log.Trace().
		Str("sample", ref).
		Int("points", s.Len()).
		Uint32("sample_rate", s.SampleRate).
		Msg("Decoded sample")
	return s, nil
}

// DecodeWAV decodes a mono PCM WAV file.
func DecodeWAV(r io.ReadSeeker) (*Sample, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, fmt.Errorf("%w: not a WAV file", ErrInvalidFile)
	}
	switch d.WavAudioFormat {
	case wavFormatPCM:
	case wavFormatExtensible:
		sub, err := wavSubFormat(r)
		if err != nil {
			return nil, err
		}
		if sub != wavFormatPCM {
			return nil, fmt.Errorf("%w: WAV sub-format %d is not PCM", ErrUnsupportedFormat, sub)
		}
		if _, err := r.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
		}
		d = wav.NewDecoder(r)
		if !d.IsValidFile() {
			return nil, fmt.Errorf("%w: not a WAV file", ErrInvalidFile)
		}
	default:
		return nil, fmt.Errorf("%w: WAV audio format %d is not PCM", ErrUnsupportedFormat, d.WavAudioFormat)
	}
	if d.NumChans != 1 {
		return nil, fmt.Errorf("%w: got %d channels", ErrNotMono, d.NumChans)
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}

	// 8-bit WAV is unsigned.
	data, err := toInt16(buf.Data, int(d.BitDepth), true)
	if err != nil {
		return nil, err
	}
	return &Sample{Data: data, SampleRate: uint32(d.SampleRate)}, nil
}

// wavSubFormat returns the format tag held in the GUID of a
// WAVE_FORMAT_EXTENSIBLE fmt chunk. The wav decoder skips those bytes.
func wavSubFormat(r io.ReadSeeker) (uint16, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}

	p := riff.New(r)
	if err := p.ParseHeaders(); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}
	for {
		ch, err := p.NextChunk()
		if err != nil {
			return 0, fmt.Errorf("%w: no fmt chunk: %w", ErrInvalidFile, err)
		}
		if ch.ID != riff.FmtID {
			ch.Drain()
			continue
		}

		// base fields (16), cbSize, valid bits, channel mask, then the GUID
		// whose first two bytes are the format tag.
		var head [26]byte
		if ch.Size < len(head) {
			return 0, fmt.Errorf("%w: extensible fmt chunk is %d bytes", ErrInvalidFile, ch.Size)
		}
		if err := ch.ReadLE(&head); err != nil {
			return 0, fmt.Errorf("%w: %w", ErrInvalidFile, err)
		}
		return binary.LittleEndian.Uint16(head[24:]), nil
	}
}

// DecodeAIFF decodes a mono uncompressed AIFF file.
func DecodeAIFF(r io.ReadSeeker) (*Sample, error) {
	d := aiff.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, fmt.Errorf("%w: not an AIFF file", ErrInvalidFile)
	}
	if d.NumChans != 1 {
		return nil, fmt.Errorf("%w: got %d channels", ErrNotMono, d.NumChans)
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}

	data, err := toInt16(buf.Data, int(d.BitDepth), false)
	if err != nil {
		return nil, err
	}
	return &Sample{Data: data, SampleRate: uint32(d.SampleRate)}, nil
}

// toInt16 scales integer PCM of the given bit depth to 16 bits.
func toInt16(data []int, bitDepth int, unsigned8 bool) ([]int16, error) {
	out := make([]int16, len(data))
	switch bitDepth {
	case 8:
		for i, v := range data {
			if unsigned8 {
				v -= 128
			}
			out[i] = int16(v << 8)
		}
	case 16:
		for i, v := range data {
			out[i] = int16(v)
		}
	case 24:
		for i, v := range data {
			out[i] = int16(v >> 8)
		}
	case 32:
		for i, v := range data {
			out[i] = int16(v >> 16)
		}
	default:
		return nil, fmt.Errorf("%w: bit depth %d", ErrUnsupportedFormat, bitDepth)
	}
	return out, nil
}
