package sf2

import (
	"encoding/binary"
	"fmt"
)

// putName writes name into the first NameSize bytes of a zeroed buffer.
// Names are checked when descriptors are loaded, so an oversized name here is
// a bug.
func putName(buf []byte, name string) {
	if len(name) > NameSize {
		panic(fmt.Sprintf("sf2: name %q exceeds %d bytes", name, NameSize))
	}
	copy(buf[:NameSize], name)
}

// Encode returns the 38-byte phdr record.
func (h PresetHeader) Encode() []byte {
	buf := make([]byte, PresetHeaderSize)
	offset := 0

	putName(buf, h.Name)
	offset += NameSize
	binary.LittleEndian.PutUint16(buf[offset:], h.Preset)
	offset += 2
	binary.LittleEndian.PutUint16(buf[offset:], h.Bank)
	offset += 2
	binary.LittleEndian.PutUint16(buf[offset:], h.BagIndex)
	offset += 2
	binary.LittleEndian.PutUint32(buf[offset:], h.Library)
	offset += 4
	binary.LittleEndian.PutUint32(buf[offset:], h.Genre)
	offset += 4
	binary.LittleEndian.PutUint32(buf[offset:], h.Morphology)

	return buf
}

// Encode returns the 4-byte pbag/ibag record.
func (b Bag) Encode() []byte {
	buf := make([]byte, BagSize)
	binary.LittleEndian.PutUint16(buf[0:], b.GenIndex)
	binary.LittleEndian.PutUint16(buf[2:], b.ModIndex)
	return buf
}

// Encode returns the modulator terminal record.
func (Modulator) Encode() []byte {
	return make([]byte, ModulatorSize)
}

// Encode returns the 4-byte pgen/igen record.
func (g Generator) Encode() []byte {
	buf := make([]byte, GeneratorSize)
	binary.LittleEndian.PutUint16(buf[0:], uint16(g.Operator))
	binary.LittleEndian.PutUint16(buf[2:], g.Amount.Raw)
	return buf
}

// Encode returns the 22-byte inst record.
func (i Instrument) Encode() []byte {
	buf := make([]byte, InstrumentSize)
	putName(buf, i.Name)
	binary.LittleEndian.PutUint16(buf[NameSize:], i.BagIndex)
	return buf
}

// Encode returns the 46-byte shdr record.
func (h SampleHeader) Encode() []byte {
	buf := make([]byte, SampleHeaderSize)
	offset := 0

	putName(buf, h.Name)
	offset += NameSize
	binary.LittleEndian.PutUint32(buf[offset:], h.Start)
	offset += 4
	binary.LittleEndian.PutUint32(buf[offset:], h.End)
	offset += 4
	binary.LittleEndian.PutUint32(buf[offset:], h.StartLoop)
	offset += 4
	binary.LittleEndian.PutUint32(buf[offset:], h.EndLoop)
	offset += 4
	binary.LittleEndian.PutUint32(buf[offset:], h.SampleRate)
	offset += 4
	buf[offset] = h.OriginalPitch
	offset++
	buf[offset] = byte(h.PitchCorrection)
	offset++
	binary.LittleEndian.PutUint16(buf[offset:], h.SampleLink)
	offset += 2
	binary.LittleEndian.PutUint16(buf[offset:], h.SampleType)

	return buf
}

type encoder interface {
	Encode() []byte
}

// encodeList concatenates the records of one pdta list. An empty result or
// one that is not a multiple of width means the assembler produced a broken
// list, so it panics.
func encodeList[T encoder](id string, records []T, width int) []byte {
	buf := make([]byte, 0, len(records)*width)
	for _, r := range records {
		buf = append(buf, r.Encode()...)
	}
	if len(buf) == 0 || len(buf)%width != 0 {
		panic(fmt.Sprintf("sf2: %s list is %d bytes, want a positive multiple of %d", id, len(buf), width))
	}
	return buf
}

// EncodePresetHeaders encodes a phdr list.
func EncodePresetHeaders(headers []PresetHeader) []byte {
	return encodeList("phdr", headers, PresetHeaderSize)
}

// EncodeBags encodes a pbag or ibag list.
func EncodeBags(id string, bags []Bag) []byte {
	return encodeList(id, bags, BagSize)
}

// EncodeModulators encodes a pmod or imod list.
func EncodeModulators(id string, mods []Modulator) []byte {
	return encodeList(id, mods, ModulatorSize)
}

// EncodeGenerators encodes a pgen or igen list.
func EncodeGenerators(id string, gens []Generator) []byte {
	return encodeList(id, gens, GeneratorSize)
}

// EncodeInstruments encodes an inst list.
func EncodeInstruments(insts []Instrument) []byte {
	return encodeList("inst", insts, InstrumentSize)
}

// EncodeSampleHeaders encodes an shdr list.
func EncodeSampleHeaders(headers []SampleHeader) []byte {
	return encodeList("shdr", headers, SampleHeaderSize)
}

// EncodeSamples converts 16-bit PCM points to little-endian bytes.
func EncodeSamples(points []int16) []byte {
	buf := make([]byte, len(points)*2)
	for i, p := range points {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(p))
	}
	return buf
}
