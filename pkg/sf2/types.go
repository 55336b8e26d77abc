// Package sf2 models the SoundFont 2 record tables (the "hydra"), validates
// their contents and encodes them into the binary layout of an .sf2 file.
//
// All multi-byte fields are little-endian. Record names are ASCII, null-padded
// to NameSize bytes.
package sf2

import (
	"errors"
	"fmt"
)

// Record widths in bytes.
const (
	NameSize         = 20
	PresetHeaderSize = 38 // name(20) + preset(2) + bank(2) + bag(2) + library(4) + genre(4) + morphology(4)
	BagSize          = 4  // generator index(2) + modulator index(2)
	ModulatorSize    = 4
	GeneratorSize    = 4 // operator(2) + amount(2)
	InstrumentSize   = 22
	SampleHeaderSize = 46
)

// Terminal record names.
const (
	EndOfPresets     = "EOP"
	EndOfInstruments = "EOI"
	EndOfSamples     = "EOS"
)

// SamplePadding is the number of zero points written after every sample in
// the smpl chunk.
const SamplePadding = 46

// Sample types (SFSampleLink).
const (
	SampleTypeMono   uint16 = 1
	SampleTypeRight  uint16 = 2
	SampleTypeLeft   uint16 = 4
	SampleTypeLinked uint16 = 8
)

// Limits on descriptor values.
const (
	MaxPreset          = 127
	MaxBank            = 16383
	MaxKey             = 127
	MaxPitchCorrection = 99
)

// String limits for INFO sub-chunks.
const (
	InfoStringLimit  = 256
	InfoCommentLimit = 65536
)

// Errors.
var (
	ErrStringNonASCII          = errors.New("sf2: non-ascii string")
	ErrStringLimit             = errors.New("sf2: string too long")
	ErrSampleTooShort          = errors.New("sf2: sample data must be at least 48 data points long")
	ErrSampleLoopTooShort      = errors.New("sf2: the loop must be at least 32 data points long")
	ErrSampleLoopNotEnoughLead = errors.New("sf2: there must be at least 8 data points before startloop")
	ErrSampleLoopNotEnoughTail = errors.New("sf2: there must be at least 8 data points after endloop")
	ErrSampleTerminalNotNull   = errors.New("sf2: terminal sample must be null")
)

// StringLimitError reports a string that does not fit into its byte limit.
type StringLimitError struct {
	Limit int
	Len   int
}

func (e *StringLimitError) Error() string {
	return fmt.Sprintf("sf2: string must fit into %d bytes, but was %d bytes long", e.Limit, e.Len)
}

// Is makes StringLimitError match ErrStringLimit.
func (e *StringLimitError) Is(target error) bool {
	return target == ErrStringLimit
}

// PresetHeader is one phdr record.
type PresetHeader struct {
	Name       string
	Preset     uint16 // MIDI preset number
	Bank       uint16 // MIDI bank number
	BagIndex   uint16 // first zone in the preset bag list
	Library    uint32 // unused
	Genre      uint32 // unused
	Morphology uint32 // unused
}

// Bag is one pbag or ibag record. It opens a zone by pointing at the first
// generator and modulator that belong to it.
type Bag struct {
	GenIndex uint16
	ModIndex uint16
}

// Modulator is a pmod or imod record. No real modulators are produced, only
// list terminals.
type Modulator struct{}

// Instrument is one inst record.
type Instrument struct {
	Name     string
	BagIndex uint16
}

// SampleHeader is one shdr record. Offsets are sample points into the smpl
// chunk.
type SampleHeader struct {
	Name            string
	Start           uint32
	End             uint32
	StartLoop       uint32
	EndLoop         uint32
	SampleRate      uint32
	OriginalPitch   uint8
	PitchCorrection int8
	SampleLink      uint16
	SampleType      uint16
}

// TerminalSampleHeader returns the EOS record closing the sample list.
func TerminalSampleHeader() SampleHeader {
	return SampleHeader{Name: EndOfSamples}
}

// IsTerminal reports whether h is the EOS record.
func (h SampleHeader) IsTerminal() bool {
	return h.Name == EndOfSamples
}

// Len returns the number of sample points covered by h.
func (h SampleHeader) Len() int {
	return int(int64(h.End) - int64(h.Start))
}

// Hydra holds the nine pdta lists. Every list is expected to end with its
// terminal record once assembly is complete.
type Hydra struct {
	PresetHeaders  []PresetHeader
	PresetBags     []Bag
	PresetMods     []Modulator
	PresetGens     []Generator
	Instruments    []Instrument
	InstrumentBags []Bag
	InstrumentMods []Modulator
	InstrumentGens []Generator
	SampleHeaders  []SampleHeader
}
