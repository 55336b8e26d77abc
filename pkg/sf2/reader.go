package sf2

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Reader errors.
var (
	ErrNotSoundFont  = errors.New("sf2: not a RIFF sfbk file")
	ErrInvalidChunk  = errors.New("sf2: invalid chunk")
	ErrCorruptedData = errors.New("sf2: corrupted data")
	ErrMissingChunk  = errors.New("sf2: missing required chunk")
)

// pdtaOrder is the required order of the hydra sub-chunks.
var pdtaOrder = []struct {
	id    string
	width int
}{
	{"phdr", PresetHeaderSize},
	{"pbag", BagSize},
	{"pmod", ModulatorSize},
	{"pgen", GeneratorSize},
	{"inst", InstrumentSize},
	{"ibag", BagSize},
	{"imod", ModulatorSize},
	{"igen", GeneratorSize},
	{"shdr", SampleHeaderSize},
}

// KindOf returns the amount interpretation used by op.
func KindOf(op GenOperator) AmountKind {
	switch op {
	case OpInstrument, OpSampleID:
		return AmountUnsigned
	}
	for _, entry := range Overrides {
		if entry.Operator == op {
			return entry.Kind
		}
	}
	return AmountSigned
}

type rawChunk struct {
	id   string
	data []byte
}

// splitChunks walks the sibling chunks of a group body.
func splitChunks(body []byte) ([]rawChunk, error) {
	var chunks []rawChunk
	for len(body) > 0 {
		if len(body) < 8 {
			return nil, fmt.Errorf("%w: truncated chunk header", ErrCorruptedData)
		}
		id := string(body[0:4])
		claimed := binary.LittleEndian.Uint32(body[4:8])
		body = body[8:]
		if uint64(claimed) > uint64(len(body)) {
			return nil, fmt.Errorf("%w: chunk %s claims %d bytes, %d left", ErrCorruptedData, id, claimed, len(body))
		}
		size := int(claimed)
		chunks = append(chunks, rawChunk{id: id, data: body[:size]})
		body = body[size:]
		if size%2 != 0 && len(body) > 0 {
			body = body[1:]
		}
	}
	return chunks, nil
}

// listBody checks that c is a LIST of the given form and returns its children.
func listBody(c rawChunk, form string) ([]rawChunk, error) {
	if c.id != "LIST" || len(c.data) < 4 || string(c.data[0:4]) != form {
		return nil, fmt.Errorf("%w: expected LIST %s, got %q", ErrInvalidChunk, form, c.id)
	}
	return splitChunks(c.data[4:])
}

// Read parses an .sf2 file. It is strict about the hydra layout: every pdta
// sub-chunk must be present, in order, non-empty and a multiple of its
// record width, and each list must end with its terminal record.
func Read(r io.Reader) (*Font, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptedData, err)
	}
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "sfbk" {
		return nil, ErrNotSoundFont
	}
	size := int(binary.LittleEndian.Uint32(data[4:8]))
	if size+8 > len(data) || size < 4 {
		return nil, fmt.Errorf("%w: RIFF size %d exceeds file", ErrCorruptedData, size)
	}

	top, err := splitChunks(data[12 : 8+size])
	if err != nil {
		return nil, err
	}
	if len(top) != 3 {
		return nil, fmt.Errorf("%w: sfbk has %d lists, want 3", ErrInvalidChunk, len(top))
	}

	font := &Font{}

	info, err := listBody(top[0], "INFO")
	if err != nil {
		return nil, err
	}
	if err := readInfo(&font.Info, info); err != nil {
		return nil, err
	}

	sdta, err := listBody(top[1], "sdta")
	if err != nil {
		return nil, err
	}
	if err := readSdta(font, sdta); err != nil {
		return nil, err
	}

	pdta, err := listBody(top[2], "pdta")
	if err != nil {
		return nil, err
	}
	if err := readPdta(&font.Hydra, pdta); err != nil {
		return nil, err
	}

	return font, nil
}

func readInfo(info *Info, chunks []rawChunk) error {
	for _, c := range chunks {
		switch c.id {
		case "ifil", "iver":
			if len(c.data) != 4 {
				return fmt.Errorf("%w: %s is %d bytes", ErrInvalidChunk, c.id, len(c.data))
			}
			v := VersionTag{
				Major: binary.LittleEndian.Uint16(c.data[0:2]),
				Minor: binary.LittleEndian.Uint16(c.data[2:4]),
			}
			if c.id == "ifil" {
				info.Version = v
			} else {
				info.ROMVersion = &v
			}
		case "isng":
			info.SoundEngine = decodeString(c.data)
		case "INAM":
			info.Name = decodeString(c.data)
		case "irom":
			info.ROMName = decodeString(c.data)
		case "ICRD":
			info.CreationDate = decodeString(c.data)
		case "IENG":
			info.Engineers = decodeString(c.data)
		case "IPRD":
			info.Product = decodeString(c.data)
		case "ICOP":
			info.Copyright = decodeString(c.data)
		case "ICMT":
			info.Comments = decodeString(c.data)
		case "ISFT":
			info.Software = decodeString(c.data)
		}
	}
	return nil
}

func readSdta(font *Font, chunks []rawChunk) error {
	found := false
	for _, c := range chunks {
		switch c.id {
		case "smpl":
			if len(c.data)%2 != 0 {
				return fmt.Errorf("%w: smpl has odd length %d", ErrInvalidChunk, len(c.data))
			}
			font.Samples = make([]int16, len(c.data)/2)
			for i := range font.Samples {
				font.Samples[i] = int16(binary.LittleEndian.Uint16(c.data[i*2:]))
			}
			found = true
		case "sm24":
			font.Samples24 = append([]byte(nil), c.data...)
		}
	}
	if !found {
		return fmt.Errorf("%w: smpl", ErrMissingChunk)
	}
	return nil
}

func readPdta(h *Hydra, chunks []rawChunk) error {
	if len(chunks) != len(pdtaOrder) {
		return fmt.Errorf("%w: pdta has %d sub-chunks, want %d", ErrInvalidChunk, len(chunks), len(pdtaOrder))
	}
	for i, want := range pdtaOrder {
		c := chunks[i]
		if c.id != want.id {
			return fmt.Errorf("%w: pdta sub-chunk %d is %q, want %q", ErrInvalidChunk, i, c.id, want.id)
		}
		if len(c.data) == 0 || len(c.data)%want.width != 0 {
			return fmt.Errorf("%w: %s is %d bytes, want a positive multiple of %d", ErrInvalidChunk, c.id, len(c.data), want.width)
		}
	}

	h.PresetHeaders = decodeRecords(chunks[0].data, PresetHeaderSize, decodePresetHeader)
	h.PresetBags = decodeRecords(chunks[1].data, BagSize, decodeBag)
	h.PresetMods = make([]Modulator, len(chunks[2].data)/ModulatorSize)
	h.PresetGens = decodeRecords(chunks[3].data, GeneratorSize, decodeGenerator)
	h.Instruments = decodeRecords(chunks[4].data, InstrumentSize, decodeInstrument)
	h.InstrumentBags = decodeRecords(chunks[5].data, BagSize, decodeBag)
	h.InstrumentMods = make([]Modulator, len(chunks[6].data)/ModulatorSize)
	h.InstrumentGens = decodeRecords(chunks[7].data, GeneratorSize, decodeGenerator)
	h.SampleHeaders = decodeRecords(chunks[8].data, SampleHeaderSize, decodeSampleHeader)

	return h.Check()
}

// Check verifies the cross-references of a finished hydra: terminal records
// are last, bag indices are non-decreasing and end at the length of the list
// they point into.
func (h *Hydra) Check() error {
	if len(h.PresetHeaders) == 0 || h.PresetHeaders[len(h.PresetHeaders)-1].Name != EndOfPresets {
		return fmt.Errorf("%w: phdr does not end with %s", ErrInvalidChunk, EndOfPresets)
	}
	if len(h.Instruments) == 0 || h.Instruments[len(h.Instruments)-1].Name != EndOfInstruments {
		return fmt.Errorf("%w: inst does not end with %s", ErrInvalidChunk, EndOfInstruments)
	}
	if len(h.SampleHeaders) == 0 || !h.SampleHeaders[len(h.SampleHeaders)-1].IsTerminal() {
		return fmt.Errorf("%w: shdr does not end with %s", ErrInvalidChunk, EndOfSamples)
	}

	presetBags := make([]uint16, len(h.PresetHeaders))
	for i, p := range h.PresetHeaders {
		presetBags[i] = p.BagIndex
	}
	if err := checkIndices("phdr", presetBags, len(h.PresetBags)-1); err != nil {
		return err
	}

	instBags := make([]uint16, len(h.Instruments))
	for i, inst := range h.Instruments {
		instBags[i] = inst.BagIndex
	}
	if err := checkIndices("inst", instBags, len(h.InstrumentBags)-1); err != nil {
		return err
	}

	if err := checkBags("pbag", h.PresetBags, len(h.PresetGens)-1, len(h.PresetMods)-1); err != nil {
		return err
	}
	return checkBags("ibag", h.InstrumentBags, len(h.InstrumentGens)-1, len(h.InstrumentMods)-1)
}

func checkIndices(id string, indices []uint16, final int) error {
	for i := 1; i < len(indices); i++ {
		if indices[i] < indices[i-1] {
			return fmt.Errorf("%w: %s record %d bag index decreases", ErrInvalidChunk, id, i)
		}
	}
	if last := int(indices[len(indices)-1]); last != final {
		return fmt.Errorf("%w: %s terminal bag index is %d, want %d", ErrInvalidChunk, id, last, final)
	}
	return nil
}

func checkBags(id string, bags []Bag, gens, mods int) error {
	gen := make([]uint16, len(bags))
	for i, b := range bags {
		gen[i] = b.GenIndex
		if int(b.ModIndex) > mods {
			return fmt.Errorf("%w: %s record %d modulator index %d out of range", ErrInvalidChunk, id, i, b.ModIndex)
		}
	}
	return checkIndices(id, gen, gens)
}

func decodeRecords[T any](data []byte, width int, decode func([]byte) T) []T {
	out := make([]T, 0, len(data)/width)
	for off := 0; off+width <= len(data); off += width {
		out = append(out, decode(data[off:off+width]))
	}
	return out
}

func decodeName(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

func decodeString(b []byte) string {
	return decodeName(b)
}

func decodePresetHeader(b []byte) PresetHeader {
	return PresetHeader{
		Name:       decodeName(b[0:NameSize]),
		Preset:     binary.LittleEndian.Uint16(b[20:22]),
		Bank:       binary.LittleEndian.Uint16(b[22:24]),
		BagIndex:   binary.LittleEndian.Uint16(b[24:26]),
		Library:    binary.LittleEndian.Uint32(b[26:30]),
		Genre:      binary.LittleEndian.Uint32(b[30:34]),
		Morphology: binary.LittleEndian.Uint32(b[34:38]),
	}
}

func decodeBag(b []byte) Bag {
	return Bag{
		GenIndex: binary.LittleEndian.Uint16(b[0:2]),
		ModIndex: binary.LittleEndian.Uint16(b[2:4]),
	}
}

func decodeGenerator(b []byte) Generator {
	op := GenOperator(binary.LittleEndian.Uint16(b[0:2]))
	return Generator{
		Operator: op,
		Amount:   Amount{Kind: KindOf(op), Raw: binary.LittleEndian.Uint16(b[2:4])},
	}
}

func decodeInstrument(b []byte) Instrument {
	return Instrument{
		Name:     decodeName(b[0:NameSize]),
		BagIndex: binary.LittleEndian.Uint16(b[20:22]),
	}
}

func decodeSampleHeader(b []byte) SampleHeader {
	return SampleHeader{
		Name:            decodeName(b[0:NameSize]),
		Start:           binary.LittleEndian.Uint32(b[20:24]),
		End:             binary.LittleEndian.Uint32(b[24:28]),
		StartLoop:       binary.LittleEndian.Uint32(b[28:32]),
		EndLoop:         binary.LittleEndian.Uint32(b[32:36]),
		SampleRate:      binary.LittleEndian.Uint32(b[36:40]),
		OriginalPitch:   b[40],
		PitchCorrection: int8(b[41]),
		SampleLink:      binary.LittleEndian.Uint16(b[42:44]),
		SampleType:      binary.LittleEndian.Uint16(b[44:46]),
	}
}
