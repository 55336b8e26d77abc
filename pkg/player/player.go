package player

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/rs/zerolog"

	"github.com/hiway/sfc/pkg/sample"
)

const (
	// DefaultSampleRate is the output rate of the audio device.
	DefaultSampleRate = 44100
	// ChannelCount represents mono audio
	ChannelCount = 1
	// BitDepthInBytes represents 16-bit audio
	BitDepthInBytes = 2

	// DefaultGap is the silence left between two auditioned samples.
	DefaultGap = 150 * time.Millisecond
)

// Player is the interface for playing decoded samples.
type Player interface {
	Play(s *sample.Sample) error
	Close() error
}

var (
	otoCtx  *oto.Context
	ctxRate int
	once    sync.Once
	ctxErr  error
)

// initOtoContext initializes the oto context singleton. Oto allows one
// context per process, so the first caller picks the device rate.
func initOtoContext(rate int) (*oto.Context, int, error) {
	once.Do(func() {
		op := &oto.NewContextOptions{}
		op.SampleRate = rate
		op.ChannelCount = ChannelCount
		op.Format = oto.FormatSignedInt16LE

		var readyChan chan struct{}
		otoCtx, readyChan, ctxErr = oto.NewContext(op)
		if ctxErr == nil {
			<-readyChan // Wait for the context to be ready
			ctxRate = rate
		}
	})
	return otoCtx, ctxRate, ctxErr
}

// OtoPlayer uses the ebitengine/oto/v3 library to play samples on the
// default audio device.
type OtoPlayer struct {
	log  zerolog.Logger
	ctx  *oto.Context
	rate int
	gap  time.Duration
	mu   sync.Mutex // Serializes playback
}

// NewOtoPlayer creates a new player using the Oto library. rate is the
// device rate; samples at other rates are converted before playback.
func NewOtoPlayer(rate int, log zerolog.Logger) (*OtoPlayer, error) {
	if rate <= 0 {
		rate = DefaultSampleRate
	}
	ctx, actual, err := initOtoContext(rate)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize Oto audio context")
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}
	log.Debug().Int("sample_rate", actual).Msg("Oto audio context initialized successfully")

	return &OtoPlayer{
		log:  log.With().Str("player_type", "oto").Logger(),
		ctx:  ctx,
		rate: actual,
		gap:  DefaultGap,
	}, nil
}

// Play plays s and blocks until it has finished.
func (p *OtoPlayer) Play(s *sample.Sample) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if s.Len() == 0 {
		p.log.Debug().Str("sample_name", s.Name).Msg("Skipping playback for empty sample")
		return nil
	}

	points := s.Data
	if int(s.SampleRate) != p.rate && s.SampleRate > 0 {
		points = Resample(points, int(s.SampleRate), p.rate)
	}

	p.log.Debug().
		Str("sample_name", s.Name).
		Int("points", s.Len()).
		Uint32("sample_rate", s.SampleRate).
		Int("device_rate", p.rate).
		Msg("Playing sample")

	if err := p.playSound(bytes.NewReader(Encode(points))); err != nil {
		p.log.Error().Err(err).Str("sample_name", s.Name).Msg("Failed to play sound")
		return fmt.Errorf("failed to play sample '%s': %w", s.Name, err)
	}

	time.Sleep(p.gap)
	p.log.Trace().Str("sample_name", s.Name).Msg("Finished playing sample")
	return nil
}

// playSound plays the raw audio data from an io.Reader.
func (p *OtoPlayer) playSound(reader io.Reader) error {
	player := p.ctx.NewPlayer(reader)
	defer player.Close()

	player.Play()

	// Wait for playback to complete. This is blocking.
	for player.IsPlaying() {
		time.Sleep(time.Millisecond) // Prevent busy-waiting
	}

	if err := player.Err(); err != nil {
		return fmt.Errorf("oto player error: %w", err)
	}
	return nil
}

// Close cleans up the OtoPlayer resources.
func (p *OtoPlayer) Close() error {
	p.log.Debug().Msg("Closing OtoPlayer")
	// The Oto context is global and shared, so we don't close it here.
	return nil
}

// Encode converts points to little-endian signed 16-bit PCM.
func Encode(points []int16) []byte {
	buf := make([]byte, len(points)*BitDepthInBytes)
	for i, v := range points {
		binary.LittleEndian.PutUint16(buf[i*BitDepthInBytes:], uint16(v))
	}
	return buf
}

// Resample converts points from srcRate to dstRate by linear interpolation.
func Resample(points []int16, srcRate, dstRate int) []int16 {
	if len(points) == 0 || srcRate == dstRate || srcRate <= 0 || dstRate <= 0 {
		return points
	}

	outLen := int(int64(len(points)) * int64(dstRate) / int64(srcRate))
	if outLen == 0 {
		return nil
	}

	out := make([]int16, outLen)
	step := float64(srcRate) / float64(dstRate)
	last := len(points) - 1
	for i := range out {
		pos := float64(i) * step
		j := int(pos)
		if j >= last {
			out[i] = points[last]
			continue
		}
		frac := pos - float64(j)
		a, b := float64(points[j]), float64(points[j+1])
		out[i] = int16(a + (b-a)*frac)
	}
	return out
}

// --- StubPlayer (Kept for testing) ---

// StubPlayer logs playback and records what it was asked to play.
type StubPlayer struct {
	log    zerolog.Logger
	mu     sync.Mutex
	played []string
}

// NewStubPlayer creates a new StubPlayer.
func NewStubPlayer(log zerolog.Logger) *StubPlayer {
	return &StubPlayer{log: log.With().Str("player_type", "stub").Logger()}
}

// Play records the sample name.
func (p *StubPlayer) Play(s *sample.Sample) error {
	p.log.Debug().
		Str("sample_name", s.Name).
		Int("points", s.Len()).
		Uint32("sample_rate", s.SampleRate).
		Msg("Simulating playing sample")

	p.mu.Lock()
	p.played = append(p.played, s.Name)
	p.mu.Unlock()
	return nil
}

// Played returns the names of the samples played so far, in order.
func (p *StubPlayer) Played() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.played...)
}

// Close cleans up the StubPlayer resources.
func (p *StubPlayer) Close() error {
	p.log.Debug().Msg("Closing StubPlayer")
	return nil
}
