package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"

	"github.com/hiway/sfc/pkg/sf2"
)

// Project directory layout, relative to the manifest.
const (
	PresetDir     = "presets"
	InstrumentDir = "instruments"
	SampleDir     = "samples"
)

// Errors.
var (
	ErrManifest          = errors.New("can't access project manifest")
	ErrMissingDescriptor = errors.New("missing descriptor")
	ErrInvalidDescriptor = errors.New("invalid descriptor")
)

// Project is the root of the descriptor tree, read from the project
// manifest. Presets are resolved and linked after load.
type Project struct {
	Dir           string    `toml:"-"`
	Name          string    `toml:"name"`
	SoundEngine   string    `toml:"sound_engine"`
	Authors       string    `toml:"authors"`
	TargetProduct string    `toml:"target_product"`
	Copyright     string    `toml:"copyright"`
	Comments      string    `toml:"comments"`
	CreationDate  string    `toml:"creation_date"`
	ROMName       string    `toml:"rom_name"`
	ROMVersion    string    `toml:"rom_version"` // "major.minor"
	PresetFiles   []string  `toml:"presets"`
	Presets       []*Preset `toml:"-"` // Linked after load, in PresetFiles order
}

// Preset is a preset descriptor.
type Preset struct {
	File       string        `toml:"-"`
	Name       string        `toml:"name"`
	MIDIPreset int           `toml:"midi_preset"`
	MIDIBank   int           `toml:"midi_bank"`
	Zones      []*PresetZone `toml:"-"` // Declaration order
}

// PresetZone binds a preset to one instrument.
type PresetZone struct {
	Name           string      `toml:"-"` // Name is derived from the table key
	InstrumentFile string      `toml:"instrument"`
	Instrument     *Instrument `toml:"-"` // Linked after load
}

// Instrument is an instrument descriptor.
type Instrument struct {
	File  string
	Name  string
	Zones []*InstrumentZone // Declaration order
}

// InstrumentZone binds an instrument to one sample.
type InstrumentZone struct {
	Name            string
	Sample          string // file under samples/, also the sample header name
	OriginalPitch   uint8
	PitchCorrection int8
	Overrides       []Override // Declaration order
}

// Override is a per-zone generator override. Overrides are parsed and
// checked but not emitted into the bank.
type Override struct {
	Field  string
	Amount sf2.Amount
}

// Info returns the INFO list for the project. software fills ISFT.
func (p *Project) Info(software string) (sf2.Info, error) {
	info := sf2.NewInfo(p.Name)
	if p.SoundEngine != "" {
		info.SoundEngine = p.SoundEngine
	}
	info.ROMName = p.ROMName
	info.CreationDate = p.CreationDate
	info.Engineers = p.Authors
	info.Product = p.TargetProduct
	info.Copyright = p.Copyright
	info.Comments = p.Comments
	info.Software = software

	if p.ROMVersion != "" {
		v, err := parseVersion(p.ROMVersion)
		if err != nil {
			return info, fmt.Errorf("rom_version: %w", err)
		}
		info.ROMVersion = &v
	}

	if err := info.Validate(); err != nil {
		return info, fmt.Errorf("%w: project %q: %w", ErrInvalidDescriptor, p.Name, err)
	}
	return info, nil
}

func parseVersion(s string) (sf2.VersionTag, error) {
	major, minor, ok := strings.Cut(s, ".")
	if !ok {
		return sf2.VersionTag{}, fmt.Errorf("%w: version %q is not major.minor", ErrInvalidDescriptor, s)
	}
	ma, err := strconv.ParseUint(major, 10, 16)
	if err != nil {
		return sf2.VersionTag{}, fmt.Errorf("%w: version %q: %w", ErrInvalidDescriptor, s, err)
	}
	mi, err := strconv.ParseUint(minor, 10, 16)
	if err != nil {
		return sf2.VersionTag{}, fmt.Errorf("%w: version %q: %w", ErrInvalidDescriptor, s, err)
	}
	return sf2.VersionTag{Major: uint16(ma), Minor: uint16(mi)}, nil
}

// Validate checks the preset's own fields.
func (p *Preset) Validate() error {
	if err := sf2.ValidateName(p.Name); err != nil {
		return fmt.Errorf("name %q: %w", p.Name, err)
	}
	if p.MIDIPreset < 0 || p.MIDIPreset > sf2.MaxPreset {
		return fmt.Errorf("midi_preset must be between 0 and %d, got %d", sf2.MaxPreset, p.MIDIPreset)
	}
	if p.MIDIBank < 0 || p.MIDIBank > sf2.MaxBank {
		return fmt.Errorf("midi_bank must be between 0 and %d, got %d", sf2.MaxBank, p.MIDIBank)
	}
	for _, z := range p.Zones {
		if z.InstrumentFile == "" {
			return fmt.Errorf("zone %q: instrument cannot be empty", z.Name)
		}
	}
	return nil
}

// Validate checks the instrument's own fields.
func (i *Instrument) Validate() error {
	if err := sf2.ValidateName(i.Name); err != nil {
		return fmt.Errorf("name %q: %w", i.Name, err)
	}
	for _, z := range i.Zones {
		if z.Sample == "" {
			return fmt.Errorf("zone %q: sample cannot be empty", z.Name)
		}
		if err := sf2.ValidateName(z.Sample); err != nil {
			return fmt.Errorf("zone %q: sample name %q: %w", z.Name, z.Sample, err)
		}
	}
	return nil
}

// loader resolves descriptor files below one project directory. Parsed
// instruments are cached by file name; the assembler still expands every
// reference separately.
type loader struct {
	dir         string
	log         zerolog.Logger
	instruments map[string]*Instrument
}

// LoadProject reads the manifest at path and every preset, instrument and
// sample it references. The returned tree has no dangling references.
func LoadProject(path string, log zerolog.Logger) (*Project, error) {
	log = log.With().Str("component", "config").Logger()
	log.Debug().Str("path", path).Msg("Loading project manifest")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrManifest, err)
	}

	var p Project
	md, err := toml.Decode(string(data), &p)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse TOML: %w", ErrManifest, err)
	}
	warnUndecoded(log, path, md)

	p.Dir = filepath.Dir(path)
	if p.Name == "" {
		return nil, fmt.Errorf("%w: project name cannot be empty", ErrInvalidDescriptor)
	}
	if _, err := p.Info(""); err != nil {
		return nil, err
	}

	l := &loader{
		dir:         p.Dir,
		log:         log,
		instruments: make(map[string]*Instrument),
	}

	type bankKey struct{ preset, bank int }
	seen := make(map[bankKey]string)

	for _, file := range p.PresetFiles {
		preset, err := l.loadPreset(file)
		if err != nil {
			return nil, err
		}

		key := bankKey{preset.MIDIPreset, preset.MIDIBank}
		if other, ok := seen[key]; ok {
			log.Warn().
				Str("preset", preset.Name).
				Str("other", other).
				Int("midi_preset", preset.MIDIPreset).
				Int("midi_bank", preset.MIDIBank).
				Msg("Duplicate preset/bank pair")
		}
		seen[key] = preset.Name

		p.Presets = append(p.Presets, preset)
	}

	log.Debug().
		Str("project", p.Name).
		Int("presets", len(p.Presets)).
		Int("instruments", len(l.instruments)).
		Msg("Project loaded and linked")
	return &p, nil
}

func (l *loader) loadPreset(file string) (*Preset, error) {
	path := filepath.Join(l.dir, PresetDir, file)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: preset %q: %w", ErrMissingDescriptor, file, err)
	}

	var raw struct {
		Preset
		Zones map[string]*PresetZone `toml:"zones"`
	}
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, fmt.Errorf("%w: preset %q: %w", ErrInvalidDescriptor, file, err)
	}
	warnUndecoded(l.log, path, md)

	preset := raw.Preset
	preset.File = file
	for _, name := range zoneOrder(md) {
		zone := raw.Zones[name]
		if zone == nil {
			continue
		}
		zone.Name = name
		preset.Zones = append(preset.Zones, zone)
	}

	if err := preset.Validate(); err != nil {
		return nil, fmt.Errorf("%w: preset %q: %w", ErrInvalidDescriptor, file, err)
	}

	for _, zone := range preset.Zones {
		inst, err := l.loadInstrument(zone.InstrumentFile)
		if err != nil {
			return nil, fmt.Errorf("preset %q zone %q: %w", preset.Name, zone.Name, err)
		}
		zone.Instrument = inst
	}

	l.log.Debug().
		Str("preset", preset.Name).
		Int("zones", len(preset.Zones)).
		Msg("Validated and linked preset")
	return &preset, nil
}

func (l *loader) loadInstrument(file string) (*Instrument, error) {
	if inst, ok := l.instruments[file]; ok {
		return inst, nil
	}

	path := filepath.Join(l.dir, InstrumentDir, file)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: instrument %q: %w", ErrMissingDescriptor, file, err)
	}

	var raw struct {
		Name  string                    `toml:"name"`
		Zones map[string]map[string]any `toml:"zones"`
	}
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, fmt.Errorf("%w: instrument %q: %w", ErrInvalidDescriptor, file, err)
	}
	warnUndecoded(l.log, path, md)

	inst := &Instrument{File: file, Name: raw.Name}
	for _, name := range zoneOrder(md) {
		fields, ok := raw.Zones[name]
		if !ok {
			continue
		}
		zone, err := l.parseInstrumentZone(name, fields, fieldOrder(md, name))
		if err != nil {
			return nil, fmt.Errorf("%w: instrument %q zone %q: %w", ErrInvalidDescriptor, file, name, err)
		}
		inst.Zones = append(inst.Zones, zone)
	}

	if err := inst.Validate(); err != nil {
		return nil, fmt.Errorf("%w: instrument %q: %w", ErrInvalidDescriptor, file, err)
	}

	for _, zone := range inst.Zones {
		samplePath := filepath.Join(l.dir, SampleDir, zone.Sample)
		if _, err := os.Stat(samplePath); err != nil {
			return nil, fmt.Errorf("%w: instrument %q zone %q sample %q: %w", ErrMissingDescriptor, inst.Name, zone.Name, zone.Sample, err)
		}
	}

	l.instruments[file] = inst
	l.log.Debug().
		Str("instrument", inst.Name).
		Int("zones", len(inst.Zones)).
		Msg("Validated instrument")
	return inst, nil
}

func (l *loader) parseInstrumentZone(name string, fields map[string]any, order []string) (*InstrumentZone, error) {
	zone := &InstrumentZone{Name: name}

	for _, key := range order {
		value := fields[key]
		switch key {
		case "sample":
			s, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("sample must be a string, got %T", value)
			}
			zone.Sample = s
		case "original_pitch":
			n, err := intField(key, value, 0, sf2.MaxKey)
			if err != nil {
				return nil, err
			}
			zone.OriginalPitch = uint8(n)
		case "pitch_correction":
			n, err := intField(key, value, -sf2.MaxPitchCorrection, sf2.MaxPitchCorrection)
			if err != nil {
				return nil, err
			}
			zone.PitchCorrection = int8(n)
		default:
			entry, ok := sf2.Overrides[key]
			if !ok {
				l.log.Warn().Str("zone", name).Str("key", key).Msg("Ignoring unknown zone field")
				continue
			}
			amount, err := overrideAmount(key, entry.Kind, value)
			if err != nil {
				return nil, err
			}
			zone.Overrides = append(zone.Overrides, Override{Field: key, Amount: amount})
		}
	}

	if _, ok := fields["original_pitch"]; !ok {
		return nil, errors.New("original_pitch is required")
	}
	return zone, nil
}

func intField(key string, value any, lo, hi int64) (int64, error) {
	n, ok := value.(int64)
	if !ok {
		return 0, fmt.Errorf("%s must be an integer, got %T", key, value)
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("%s must be between %d and %d, got %d", key, lo, hi, n)
	}
	return n, nil
}

func overrideAmount(key string, kind sf2.AmountKind, value any) (sf2.Amount, error) {
	switch kind {
	case sf2.AmountRange:
		pair, ok := value.([]any)
		if !ok || len(pair) != 2 {
			return sf2.Amount{}, fmt.Errorf("%s must be a [lo, hi] pair", key)
		}
		lo, err := intField(key, pair[0], 0, sf2.MaxKey)
		if err != nil {
			return sf2.Amount{}, err
		}
		hi, err := intField(key, pair[1], lo, sf2.MaxKey)
		if err != nil {
			return sf2.Amount{}, err
		}
		return sf2.Range(uint8(lo), uint8(hi)), nil
	case sf2.AmountUnsigned:
		n, err := intField(key, value, 0, 65535)
		if err != nil {
			return sf2.Amount{}, err
		}
		return sf2.Unsigned(uint16(n)), nil
	default:
		n, err := intField(key, value, -32768, 32767)
		if err != nil {
			return sf2.Amount{}, err
		}
		return sf2.Signed(int16(n)), nil
	}
}

// zoneOrder returns the zone table names in the order they appear in the
// document. Go maps lose that order, and bag numbering depends on it.
func zoneOrder(md toml.MetaData) []string {
	var names []string
	seen := make(map[string]bool)
	for _, key := range md.Keys() {
		if len(key) < 2 || key[0] != "zones" || seen[key[1]] {
			continue
		}
		seen[key[1]] = true
		names = append(names, key[1])
	}
	return names
}

// fieldOrder returns the keys of one zone table in document order.
func fieldOrder(md toml.MetaData, zone string) []string {
	var fields []string
	for _, key := range md.Keys() {
		if len(key) == 3 && key[0] == "zones" && key[1] == zone {
			fields = append(fields, key[2])
		}
	}
	return fields
}

func warnUndecoded(log zerolog.Logger, path string, md toml.MetaData) {
	for _, key := range md.Undecoded() {
		log.Warn().Str("path", path).Str("key", key.String()).Msg("Ignoring unknown key")
	}
}
