package sf2

import (
	"encoding/binary"
	"fmt"

	"github.com/hiway/sfc/pkg/riff"
)

// DefaultSoundEngine is the isng value used when none is configured.
const DefaultSoundEngine = "EMU8000"

// VersionTag is an ifil or iver version.
type VersionTag struct {
	Major uint16
	Minor uint16
}

// FileVersion is the ifil version written by this package.
var FileVersion = VersionTag{Major: 2, Minor: 4}

// Encode returns the 4-byte sfVersionTag.
func (v VersionTag) Encode() []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint16(buf[0:], v.Major)
	binary.LittleEndian.PutUint16(buf[2:], v.Minor)
	return buf
}

func (v VersionTag) String() string {
	return fmt.Sprintf("%d.%02d", v.Major, v.Minor)
}

// Info holds the INFO list metadata. Empty optional strings are omitted.
type Info struct {
	Version      VersionTag  // ifil
	SoundEngine  string      // isng
	Name         string      // INAM
	ROMName      string      // irom
	ROMVersion   *VersionTag // iver
	CreationDate string      // ICRD
	Engineers    string      // IENG
	Product      string      // IPRD
	Copyright    string      // ICOP
	Comments     string      // ICMT
	Software     string      // ISFT
}

// NewInfo returns an Info with the default version and sound engine.
func NewInfo(name string) Info {
	return Info{
		Version:     FileVersion,
		SoundEngine: DefaultSoundEngine,
		Name:        name,
	}
}

type infoString struct {
	id    string
	value string
	limit int
}

func (i *Info) strings() []infoString {
	return []infoString{
		{"isng", i.SoundEngine, InfoStringLimit},
		{"INAM", i.Name, InfoStringLimit},
		{"irom", i.ROMName, InfoStringLimit},
		{"ICRD", i.CreationDate, InfoStringLimit},
		{"IENG", i.Engineers, InfoStringLimit},
		{"IPRD", i.Product, InfoStringLimit},
		{"ICOP", i.Copyright, InfoStringLimit},
		{"ICMT", i.Comments, InfoCommentLimit},
		{"ISFT", i.Software, InfoStringLimit},
	}
}

// Validate checks every string against its limit.
func (i *Info) Validate() error {
	for _, s := range i.strings() {
		if err := ValidateString(s.value, s.limit); err != nil {
			return fmt.Errorf("%s: %w", s.id, err)
		}
	}
	return nil
}

// Chunk builds the LIST INFO chunk. ifil, isng and INAM are always present;
// the other sub-chunks follow in their canonical order when set.
func (i *Info) Chunk() *riff.Chunk {
	children := []*riff.Chunk{
		riff.Data("ifil", i.Version.Encode()),
		riff.Data("isng", encodeString(i.SoundEngine)),
		riff.Data("INAM", encodeString(i.Name)),
	}
	optional := func(id, value string) {
		if value != "" {
			children = append(children, riff.Data(id, encodeString(value)))
		}
	}

	optional("irom", i.ROMName)
	if i.ROMVersion != nil {
		children = append(children, riff.Data("iver", i.ROMVersion.Encode()))
	}
	optional("ICRD", i.CreationDate)
	optional("IENG", i.Engineers)
	optional("IPRD", i.Product)
	optional("ICOP", i.Copyright)
	optional("ICMT", i.Comments)
	optional("ISFT", i.Software)

	return riff.List("INFO", children...)
}

// encodeString returns the ASCII bytes of s padded with one zero byte when
// the length is odd.
func encodeString(s string) []byte {
	buf := []byte(s)
	if len(buf)%2 != 0 {
		buf = append(buf, 0)
	}
	return buf
}
