// Package sfc compiles a directory of TOML descriptors and audio files into
// a SoundFont 2 bank.
package sfc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/hiway/sfc/pkg/config"
	"github.com/hiway/sfc/pkg/hydra"
	"github.com/hiway/sfc/pkg/queue"
	"github.com/hiway/sfc/pkg/sample"
	"github.com/hiway/sfc/pkg/sf2"
)

// Version is the compiler version written to ISFT.
const Version = "0.3.0"

// ErrInternal wraps a broken structural invariant detected while encoding.
var ErrInternal = errors.New("sfc: internal error")

// Software returns the default ISFT value.
func Software() string {
	return fmt.Sprintf("sfc %s:sfc %s", Version, Version)
}

// Compiler turns a project manifest into a Font.
type Compiler struct {
	settings config.Settings
	log      zerolog.Logger
	stamp    string
}

// New creates a compiler.
func New(settings config.Settings, log zerolog.Logger) *Compiler {
	return &Compiler{
		settings: settings,
		log:      log.With().Str("component", "compiler").Logger(),
	}
}

// SetStamp sets the creation date (ICRD) used when the manifest has none.
func (c *Compiler) SetStamp(date string) {
	c.stamp = date
	c.log.Debug().Str("stamp", date).Msg("Set creation date stamp")
}

func (c *Compiler) software() string {
	if c.settings.Software != "" {
		return c.settings.Software
	}
	return Software()
}

// Compile loads the project at manifest and assembles its bank. Nothing is
// written.
func (c *Compiler) Compile(manifest string) (font *sf2.Font, err error) {
	defer recoverInternal(&err)

	project, err := config.LoadProject(manifest, c.log)
	if err != nil {
		return nil, err
	}

	info, err := project.Info(c.software())
	if err != nil {
		return nil, err
	}
	if info.CreationDate == "" && c.stamp != "" {
		if err := sf2.ValidateString(c.stamp, sf2.InfoStringLimit); err != nil {
			return nil, fmt.Errorf("creation date stamp: %w", err)
		}
		info.CreationDate = c.stamp
	}

	dec := sample.NewFileDecoder(filepath.Join(project.Dir, config.SampleDir), c.log)
	asm := hydra.New(dec, hydra.Options{Validation: c.settings.Validation}, c.log)
	res, err := asm.Assemble(project)
	if err != nil {
		return nil, err
	}

	c.log.Info().
		Str("project", project.Name).
		Int("presets", len(res.Hydra.PresetHeaders)-1).
		Int("instruments", len(res.Hydra.Instruments)-1).
		Int("samples", len(res.Hydra.SampleHeaders)-1).
		Msg("Compiled project")

	return &sf2.Font{
		Info:    info,
		Samples: res.Samples,
		Hydra:   res.Hydra,
	}, nil
}

// Encode serializes font. A malformed hydra is reported as ErrInternal.
func Encode(font *sf2.Font) (data []byte, err error) {
	defer recoverInternal(&err)

	var buf bytes.Buffer
	if _, err := font.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func recoverInternal(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%w: %v", ErrInternal, r)
	}
}

// Build compiles manifest and writes the bank to output. On any error no
// output file is created or replaced.
func (c *Compiler) Build(manifest, output string) (*sf2.Font, error) {
	font, err := c.Compile(manifest)
	if err != nil {
		return nil, err
	}

	data, err := Encode(font)
	if err != nil {
		return nil, err
	}

	if err := WriteFile(output, data); err != nil {
		return nil, err
	}

	c.log.Info().
		Str("path", output).
		Int("bytes", len(data)).
		Msg("Wrote SoundFont")
	return font, nil
}

// WriteFile writes data to a temporary file next to path and renames it
// into place.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	name := tmp.Name()

	cleanup := func(err error) error {
		tmp.Close()
		os.Remove(name)
		return err
	}

	if _, err := tmp.Write(data); err != nil {
		return cleanup(fmt.Errorf("failed to write '%s': %w", name, err))
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(fmt.Errorf("failed to sync '%s': %w", name, err))
	}
	if err := tmp.Chmod(0o644); err != nil {
		return cleanup(fmt.Errorf("failed to chmod '%s': %w", name, err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return fmt.Errorf("failed to close '%s': %w", name, err)
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return fmt.Errorf("failed to rename '%s' to '%s': %w", name, path, err)
	}
	return nil
}

// Verify re-reads the bank at path, checks its structure and logs its
// contents.
func (c *Compiler) Verify(path string) (*sf2.Font, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open '%s': %w", path, err)
	}
	defer f.Close()

	font, err := sf2.Read(f)
	if err != nil {
		return nil, fmt.Errorf("verification of '%s' failed: %w", path, err)
	}

	log := c.log.With().Str("path", path).Logger()
	log.Info().
		Str("name", font.Info.Name).
		Str("version", font.Info.Version.String()).
		Str("sound_engine", font.Info.SoundEngine).
		Str("software", font.Info.Software).
		Int("sample_points", len(font.Samples)).
		Msg("Verified SoundFont")

	h := &font.Hydra
	for i := 0; i < len(h.PresetHeaders)-1; i++ {
		p := h.PresetHeaders[i]
		next := h.PresetHeaders[i+1].BagIndex
		log.Info().
			Int("index", i).
			Str("preset", p.Name).
			Uint16("midi_preset", p.Preset).
			Uint16("midi_bank", p.Bank).
			Int("zones", int(next)-int(p.BagIndex)).
			Ints("instruments", zoneTargets(h.PresetBags, h.PresetGens, p.BagIndex, next, sf2.OpInstrument)).
			Msg("Preset")
	}

	for i := 0; i < len(h.Instruments)-1; i++ {
		inst := h.Instruments[i]
		next := h.Instruments[i+1].BagIndex
		log.Info().
			Int("index", i).
			Str("instrument", inst.Name).
			Int("zones", int(next)-int(inst.BagIndex)).
			Ints("samples", zoneTargets(h.InstrumentBags, h.InstrumentGens, inst.BagIndex, next, sf2.OpSampleID)).
			Msg("Instrument")
	}

	for i, s := range h.SampleHeaders[:len(h.SampleHeaders)-1] {
		log.Info().
			Int("index", i).
			Str("sample", s.Name).
			Uint32("start", s.Start).
			Uint32("end", s.End).
			Int("points", s.Len()).
			Uint32("start_loop", s.StartLoop).
			Uint32("end_loop", s.EndLoop).
			Uint32("sample_rate", s.SampleRate).
			Uint8("original_pitch", s.OriginalPitch).
			Int8("pitch_correction", s.PitchCorrection).
			Msg("Sample")
	}
	return font, nil
}

// zoneTargets returns the amount of every op generator in bags [from, to).
func zoneTargets(bags []sf2.Bag, gens []sf2.Generator, from, to uint16, op sf2.GenOperator) []int {
	var out []int
	for b := int(from); b < int(to) && b+1 < len(bags); b++ {
		for g := int(bags[b].GenIndex); g < int(bags[b+1].GenIndex) && g < len(gens); g++ {
			if gens[g].Operator == op {
				out = append(out, int(gens[g].Amount.Raw))
			}
		}
	}
	return out
}

// Samples returns the sample data referenced by each header of font, in
// header order.
func Samples(font *sf2.Font) []*sample.Sample {
	headers := font.Hydra.SampleHeaders
	var out []*sample.Sample
	for _, h := range headers {
		if h.IsTerminal() {
			continue
		}
		if h.End < h.Start || int(h.End) > len(font.Samples) {
			continue
		}
		out = append(out, &sample.Sample{
			Name:       h.Name,
			Data:       font.Samples[h.Start:h.End],
			SampleRate: h.SampleRate,
		})
	}
	return out
}

// Audition plays every sample of font through q in order and waits for
// playback to finish. The queue is closed on return.
func Audition(ctx context.Context, font *sf2.Font, q *queue.Queue, log zerolog.Logger) error {
	defer q.Close()

	for _, s := range Samples(font) {
		log.Info().Str("sample", s.Name).Int("points", s.Len()).Msg("Auditioning sample")
		if err := q.Push(ctx, s); err != nil {
			return fmt.Errorf("failed to queue sample '%s': %w", s.Name, err)
		}
	}

	q.Close()
	return q.Wait(ctx)
}
