package sf2

import (
	"io"

	"github.com/hiway/sfc/pkg/riff"
)

// Font is a complete SoundFont: metadata, sample data and the hydra.
type Font struct {
	Info      Info
	Samples   []int16 // smpl, 16-bit points
	Samples24 []byte  // sm24, optional low bytes for 24-bit samples
	Hydra     Hydra
}

// Chunk builds the RIFF sfbk tree. It panics if a hydra list is empty or
// malformed; see encodeList.
func (f *Font) Chunk() *riff.Chunk {
	sdta := []*riff.Chunk{riff.Data("smpl", EncodeSamples(f.Samples))}
	if f.Samples24 != nil {
		sdta = append(sdta, riff.Data("sm24", f.Samples24))
	}

	h := &f.Hydra
	pdta := riff.List("pdta",
		riff.Data("phdr", EncodePresetHeaders(h.PresetHeaders)),
		riff.Data("pbag", EncodeBags("pbag", h.PresetBags)),
		riff.Data("pmod", EncodeModulators("pmod", h.PresetMods)),
		riff.Data("pgen", EncodeGenerators("pgen", h.PresetGens)),
		riff.Data("inst", EncodeInstruments(h.Instruments)),
		riff.Data("ibag", EncodeBags("ibag", h.InstrumentBags)),
		riff.Data("imod", EncodeModulators("imod", h.InstrumentMods)),
		riff.Data("igen", EncodeGenerators("igen", h.InstrumentGens)),
		riff.Data("shdr", EncodeSampleHeaders(h.SampleHeaders)),
	)

	return riff.Root("sfbk",
		f.Info.Chunk(),
		riff.List("sdta", sdta...),
		pdta,
	)
}

// WriteTo encodes the font as an .sf2 file.
func (f *Font) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	err := riff.Write(cw, f.Chunk())
	return cw.n, err
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
