package player

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"

	"github.com/hiway/sfc/pkg/sample"
)

func TestEncode(t *testing.T) {
	got := Encode([]int16{0x0102, -2})
	want := []byte{0x02, 0x01, 0xFE, 0xFF}
	if !bytes.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestResample(t *testing.T) {
	in := []int16{0, 100, 200, 300}

	if got := Resample(in, 44100, 44100); len(got) != 4 || got[3] != 300 {
		t.Errorf("same rate changed data: %v", got)
	}

	up := Resample(in, 22050, 44100)
	if len(up) != 8 {
		t.Fatalf("upsampled to %d points, want 8", len(up))
	}
	if up[0] != 0 || up[1] != 50 || up[2] != 100 || up[7] != 300 {
		t.Errorf("upsampled = %v", up)
	}

	down := Resample(in, 44100, 22050)
	if len(down) != 2 || down[0] != 0 || down[1] != 200 {
		t.Errorf("downsampled = %v", down)
	}

	if got := Resample(nil, 22050, 44100); got != nil {
		t.Errorf("empty input gave %v", got)
	}
}

func TestStubPlayerRecordsOrder(t *testing.T) {
	p := NewStubPlayer(zerolog.Nop())
	for _, name := range []string{"a", "b"} {
		if err := p.Play(&sample.Sample{Name: name}); err != nil {
			t.Fatal(err)
		}
	}
	if got := p.Played(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("played %v", got)
	}
	if err := p.Close(); err != nil {
		t.Error(err)
	}
}
