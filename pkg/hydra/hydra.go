// Package hydra assembles the SoundFont record tables from a descriptor tree.
//
// Records reference each other only through contiguous index ranges: a preset
// header names the first of its zones in the preset bag list, and the zone
// count is the difference to the next header's index. The assembler therefore
// treats every list as an append-only arena and records "current length" as
// the start index of each parent before appending its children. One terminal
// record closes every list so the last real entry's range can be derived.
package hydra

import (
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/hiway/sfc/pkg/config"
	"github.com/hiway/sfc/pkg/sample"
	"github.com/hiway/sfc/pkg/sf2"
)

// ErrIndexOverflow is returned when a list grows past what its 16-bit index
// fields, or the 32-bit sample offsets, can address.
var ErrIndexOverflow = errors.New("hydra: index overflow")

// Options controls assembly.
type Options struct {
	Validation config.ValidationPolicy
}

// Result is the assembled bank: the nine hydra lists, each closed by its
// terminal record, and the shared sample buffer they point into.
type Result struct {
	Hydra   sf2.Hydra
	Samples []int16
}

type pendingSample struct {
	header sf2.SampleHeader // offsets relative to data
	data   []int16
}

// Assembler builds a Result in a single pass over a project.
type Assembler struct {
	decoder sample.Decoder
	opts    Options
	log     zerolog.Logger

	hydra   sf2.Hydra
	pending []pendingSample
}

// New creates an assembler that decodes samples with decoder.
func New(decoder sample.Decoder, opts Options, log zerolog.Logger) *Assembler {
	if opts.Validation == "" {
		opts.Validation = config.ValidationStrict
	}
	return &Assembler{
		decoder: decoder,
		opts:    opts,
		log:     log.With().Str("component", "hydra").Logger(),
	}
}

// index converts a list length to a record index field.
func index(n int, list string) (uint16, error) {
	if n < 0 || n > math.MaxUint16 {
		return 0, fmt.Errorf("%w: %s index %d", ErrIndexOverflow, list, n)
	}
	return uint16(n), nil
}

// Assemble expands every preset of p. Each instrument reference is expanded
// from scratch, so an instrument used by N preset zones yields N instrument
// records, N copies of its zones and N decoded copies of its samples.
func (a *Assembler) Assemble(p *config.Project) (*Result, error) {
	a.hydra = sf2.Hydra{}
	a.pending = nil

	for _, preset := range p.Presets {
		if err := a.expandPreset(preset); err != nil {
			return nil, fmt.Errorf("preset %q: %w", preset.Name, err)
		}
	}

	if err := a.terminate(); err != nil {
		return nil, err
	}

	samples, err := a.relocate()
	if err != nil {
		return nil, err
	}

	h := &a.hydra
	a.log.Debug().
		Int("presets", len(h.PresetHeaders)-1).
		Int("instruments", len(h.Instruments)-1).
		Int("samples", len(h.SampleHeaders)-1).
		Int("sample_points", len(samples)).
		Msg("Hydra assembled")

	res := &Result{Hydra: a.hydra, Samples: samples}
	a.hydra = sf2.Hydra{}
	a.pending = nil
	return res, nil
}

func (a *Assembler) expandPreset(preset *config.Preset) error {
	h := &a.hydra

	bagStart, err := index(len(h.PresetBags), "pbag")
	if err != nil {
		return err
	}

	for _, zone := range preset.Zones {
		if err := a.expandInstrument(zone.Instrument); err != nil {
			return fmt.Errorf("zone %q: %w", zone.Name, err)
		}

		inst, err := index(len(h.Instruments)-1, "inst")
		if err != nil {
			return err
		}
		h.PresetGens = append(h.PresetGens, sf2.InstrumentGenerator(inst))

		gen, err := index(len(h.PresetGens)-1, "pgen")
		if err != nil {
			return err
		}
		h.PresetBags = append(h.PresetBags, sf2.Bag{GenIndex: gen, ModIndex: 0})

		a.log.Trace().
			Str("preset", preset.Name).
			Str("zone", zone.Name).
			Uint16("instrument", inst).
			Uint16("generator", gen).
			Msg("Appended preset zone")
	}

	h.PresetHeaders = append(h.PresetHeaders, sf2.PresetHeader{
		Name:     preset.Name,
		Preset:   uint16(preset.MIDIPreset),
		Bank:     uint16(preset.MIDIBank),
		BagIndex: bagStart,
	})

	a.log.Debug().
		Str("preset", preset.Name).
		Int("midi_preset", preset.MIDIPreset).
		Int("midi_bank", preset.MIDIBank).
		Uint16("bag_start", bagStart).
		Int("zones", len(preset.Zones)).
		Msg("Expanded preset")
	return nil
}

func (a *Assembler) expandInstrument(inst *config.Instrument) error {
	h := &a.hydra

	bagStart, err := index(len(h.InstrumentBags), "ibag")
	if err != nil {
		return err
	}

	for _, zone := range inst.Zones {
		s, err := a.decoder.Decode(zone.Sample)
		if err != nil {
			return fmt.Errorf("instrument %q zone %q: %w", inst.Name, zone.Name, err)
		}

		a.pending = append(a.pending, pendingSample{
			header: relativeHeader(zone, s),
			data:   s.Data,
		})
		smpl, err := index(len(a.pending)-1, "shdr")
		if err != nil {
			return err
		}
		h.InstrumentGens = append(h.InstrumentGens, sf2.SampleGenerator(smpl))

		gen, err := index(len(h.InstrumentGens)-1, "igen")
		if err != nil {
			return err
		}
		h.InstrumentBags = append(h.InstrumentBags, sf2.Bag{GenIndex: gen, ModIndex: 0})

		// Overrides are checked but only the sample link is emitted.
		for _, o := range zone.Overrides {
			g, err := sf2.OverrideGenerator(o.Field, o.Amount)
			if err != nil {
				return fmt.Errorf("instrument %q zone %q: %w", inst.Name, zone.Name, err)
			}
			a.log.Debug().
				Str("instrument", inst.Name).
				Str("zone", zone.Name).
				Str("field", o.Field).
				Uint16("operator", uint16(g.Operator)).
				Uint16("raw", g.Amount.Raw).
				Msg("Generator override not emitted")
		}

		a.log.Trace().
			Str("instrument", inst.Name).
			Str("zone", zone.Name).
			Uint16("sample", smpl).
			Uint16("generator", gen).
			Msg("Appended instrument zone")
	}

	h.Instruments = append(h.Instruments, sf2.Instrument{Name: inst.Name, BagIndex: bagStart})

	a.log.Debug().
		Str("instrument", inst.Name).
		Uint16("bag_start", bagStart).
		Int("zones", len(inst.Zones)).
		Msg("Expanded instrument")
	return nil
}

// relativeHeader builds a sample header with offsets relative to the
// sample's own first point. The loop spans everything but the lead and tail.
func relativeHeader(zone *config.InstrumentZone, s *sample.Sample) sf2.SampleHeader {
	n := uint32(s.Len())
	startLoop := min(uint32(sf2.MinLoopLead), n)
	endLoop := startLoop
	if n >= sf2.MinLoopTail && n-sf2.MinLoopTail > startLoop {
		endLoop = n - sf2.MinLoopTail
	}

	return sf2.SampleHeader{
		Name:            zone.Sample,
		Start:           0,
		End:             n,
		StartLoop:       startLoop,
		EndLoop:         endLoop,
		SampleRate:      s.SampleRate,
		OriginalPitch:   zone.OriginalPitch,
		PitchCorrection: zone.PitchCorrection,
		SampleLink:      0,
		SampleType:      sf2.SampleTypeMono,
	}
}

// terminate closes the eight structural lists. Each terminal's index field is
// the final length of the list it points into, taken before that list gets
// its own terminal.
func (a *Assembler) terminate() error {
	h := &a.hydra

	pbags, err := index(len(h.PresetBags), "pbag")
	if err != nil {
		return err
	}
	pgens, err := index(len(h.PresetGens), "pgen")
	if err != nil {
		return err
	}
	pmods, err := index(len(h.PresetMods), "pmod")
	if err != nil {
		return err
	}
	ibags, err := index(len(h.InstrumentBags), "ibag")
	if err != nil {
		return err
	}
	igens, err := index(len(h.InstrumentGens), "igen")
	if err != nil {
		return err
	}
	imods, err := index(len(h.InstrumentMods), "imod")
	if err != nil {
		return err
	}

	h.PresetHeaders = append(h.PresetHeaders, sf2.PresetHeader{Name: sf2.EndOfPresets, BagIndex: pbags})
	h.PresetBags = append(h.PresetBags, sf2.Bag{GenIndex: pgens, ModIndex: pmods})
	h.PresetMods = append(h.PresetMods, sf2.Modulator{})
	h.PresetGens = append(h.PresetGens, sf2.TerminalGenerator())

	h.Instruments = append(h.Instruments, sf2.Instrument{Name: sf2.EndOfInstruments, BagIndex: ibags})
	h.InstrumentBags = append(h.InstrumentBags, sf2.Bag{GenIndex: igens, ModIndex: imods})
	h.InstrumentMods = append(h.InstrumentMods, sf2.Modulator{})
	h.InstrumentGens = append(h.InstrumentGens, sf2.TerminalGenerator())
	return nil
}

// relocate lays the pending samples out back to back, each followed by
// SamplePadding zero points, and shifts every header by the offset of its
// block. The EOS record is appended last.
func (a *Assembler) relocate() ([]int16, error) {
	h := &a.hydra

	total := 0
	for _, p := range a.pending {
		total += len(p.data) + sf2.SamplePadding
	}
	if uint64(total) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d sample points", ErrIndexOverflow, total)
	}

	samples := make([]int16, 0, total)
	padding := make([]int16, sf2.SamplePadding)

	for _, p := range a.pending {
		base := uint32(len(samples))

		hdr := p.header
		hdr.Start += base
		hdr.End += base
		hdr.StartLoop += base
		hdr.EndLoop += base

		samples = append(samples, p.data...)
		samples = append(samples, padding...)

		if err := hdr.Validate(); err != nil {
			if a.opts.Validation == config.ValidationStrict {
				return nil, fmt.Errorf("sample %q: %w", hdr.Name, err)
			}
			a.log.Warn().
				Err(err).
				Str("sample", hdr.Name).
				Int("points", len(p.data)).
				Msg("Sample header failed validation")
		}

		h.SampleHeaders = append(h.SampleHeaders, hdr)
	}

	h.SampleHeaders = append(h.SampleHeaders, sf2.TerminalSampleHeader())
	return samples, nil
}
