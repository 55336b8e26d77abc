package sf2

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"
)

func TestPresetHeaderEncode(t *testing.T) {
	buf := PresetHeader{Name: "Lead", Preset: 5, Bank: 1, BagIndex: 3}.Encode()

	if len(buf) != PresetHeaderSize {
		t.Fatalf("got %d bytes, want %d", len(buf), PresetHeaderSize)
	}
	if !bytes.Equal(buf[0:4], []byte("Lead")) {
		t.Errorf("name = %q", buf[0:4])
	}
	for i := 4; i < NameSize; i++ {
		if buf[i] != 0 {
			t.Fatalf("name byte %d = %d, want null padding", i, buf[i])
		}
	}
	if got := binary.LittleEndian.Uint16(buf[20:]); got != 5 {
		t.Errorf("preset = %d, want 5", got)
	}
	if got := binary.LittleEndian.Uint16(buf[22:]); got != 1 {
		t.Errorf("bank = %d, want 1", got)
	}
	if got := binary.LittleEndian.Uint16(buf[24:]); got != 3 {
		t.Errorf("bag index = %d, want 3", got)
	}
	if !bytes.Equal(buf[26:], make([]byte, 12)) {
		t.Errorf("library/genre/morphology should be zero, got %v", buf[26:])
	}
}

func TestFullLengthNameHasNoTerminator(t *testing.T) {
	name := strings.Repeat("n", NameSize)
	buf := Instrument{Name: name, BagIndex: 0x0102}.Encode()

	if len(buf) != InstrumentSize {
		t.Fatalf("got %d bytes, want %d", len(buf), InstrumentSize)
	}
	if string(buf[:NameSize]) != name {
		t.Errorf("name = %q", buf[:NameSize])
	}
	if buf[20] != 0x02 || buf[21] != 0x01 {
		t.Errorf("bag index bytes = %x %x, want 02 01", buf[20], buf[21])
	}
}

func TestOversizedNamePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for a 21-byte name")
		}
	}()
	Instrument{Name: strings.Repeat("n", NameSize+1)}.Encode()
}

func TestBagAndGeneratorEncode(t *testing.T) {
	if got := (Bag{GenIndex: 0x0304, ModIndex: 0}).Encode(); !bytes.Equal(got, []byte{0x04, 0x03, 0, 0}) {
		t.Errorf("bag = %v", got)
	}
	if got := InstrumentGenerator(7).Encode(); !bytes.Equal(got, []byte{41, 0, 7, 0}) {
		t.Errorf("instrument generator = %v", got)
	}
	if got := SampleGenerator(0x0100).Encode(); !bytes.Equal(got, []byte{53, 0, 0, 1}) {
		t.Errorf("sample generator = %v", got)
	}
	if got := TerminalGenerator().Encode(); !bytes.Equal(got, []byte{0, 0, 0, 0}) {
		t.Errorf("terminal generator = %v", got)
	}
	if got := (Modulator{}).Encode(); !bytes.Equal(got, make([]byte, ModulatorSize)) {
		t.Errorf("modulator = %v", got)
	}
}

func TestSampleHeaderEncode(t *testing.T) {
	h := SampleHeader{
		Name:            "piano.wav",
		Start:           46,
		End:             146,
		StartLoop:       54,
		EndLoop:         138,
		SampleRate:      44100,
		OriginalPitch:   60,
		PitchCorrection: -5,
		SampleType:      SampleTypeMono,
	}
	buf := h.Encode()

	if len(buf) != SampleHeaderSize {
		t.Fatalf("got %d bytes, want %d", len(buf), SampleHeaderSize)
	}
	fields := []struct {
		name string
		off  int
		want uint32
	}{
		{"start", 20, 46},
		{"end", 24, 146},
		{"startloop", 28, 54},
		{"endloop", 32, 138},
		{"sample rate", 36, 44100},
	}
	for _, f := range fields {
		if got := binary.LittleEndian.Uint32(buf[f.off:]); got != f.want {
			t.Errorf("%s = %d, want %d", f.name, got, f.want)
		}
	}
	if buf[40] != 60 {
		t.Errorf("original pitch = %d", buf[40])
	}
	if int8(buf[41]) != -5 {
		t.Errorf("pitch correction = %d", int8(buf[41]))
	}
	if got := binary.LittleEndian.Uint16(buf[42:]); got != 0 {
		t.Errorf("sample link = %d", got)
	}
	if got := binary.LittleEndian.Uint16(buf[44:]); got != SampleTypeMono {
		t.Errorf("sample type = %d", got)
	}
}

func TestEncodeListConcatenates(t *testing.T) {
	bags := []Bag{{GenIndex: 0}, {GenIndex: 1}, {GenIndex: 2}}
	buf := EncodeBags("pbag", bags)
	if len(buf) != 3*BagSize {
		t.Fatalf("got %d bytes, want %d", len(buf), 3*BagSize)
	}
	for i := range bags {
		if got := binary.LittleEndian.Uint16(buf[i*BagSize:]); got != uint16(i) {
			t.Errorf("bag %d gen index = %d", i, got)
		}
	}
}

func TestEncodeEmptyListPanics(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic for an empty list")
		}
		if msg, ok := r.(string); !ok || !strings.Contains(msg, "phdr") {
			t.Errorf("panic %v should name the list", r)
		}
	}()
	EncodePresetHeaders(nil)
}

func TestEncodeSamples(t *testing.T) {
	got := EncodeSamples([]int16{1, -1, 0x1234})
	want := []byte{0x01, 0x00, 0xFF, 0xFF, 0x34, 0x12}
	if !bytes.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestOverrideGenerator(t *testing.T) {
	g, err := OverrideGenerator("key_range", Range(36, 72))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Operator != OpKeyRange || g.Amount.Lo() != 36 || g.Amount.Hi() != 72 {
		t.Errorf("got %+v", g)
	}

	if _, err := OverrideGenerator("key_range", Signed(3)); err == nil {
		t.Error("expected kind mismatch error")
	}
	if _, err := OverrideGenerator("no_such_field", Signed(3)); err == nil {
		t.Error("expected unknown override error")
	}
}
