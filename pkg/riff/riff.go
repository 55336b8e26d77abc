// Package riff writes RIFF chunk trees.
//
// A chunk is either a data chunk (4-byte id, 4-byte little-endian size, body)
// or a group chunk ("RIFF" or "LIST") whose body starts with a 4-byte form
// type followed by its children. Bodies of odd length are followed by one
// zero pad byte that is not counted in the size field.
package riff

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// Group chunk identifiers.
const (
	RIFFID = "RIFF"
	ListID = "LIST"
)

// HeaderSize is the size of a chunk header: id(4) + size(4).
const HeaderSize = 8

// Errors.
var (
	ErrInvalidID    = errors.New("riff: chunk id must be 4 bytes")
	ErrChunkTooLong = errors.New("riff: chunk exceeds 4 GiB")
)

// Chunk is a node of a RIFF tree.
type Chunk struct {
	ID       string
	Form     string // form type, group chunks only
	Data     []byte
	Children []*Chunk
}

// Data returns a data chunk.
func Data(id string, data []byte) *Chunk {
	return &Chunk{ID: id, Data: data}
}

// List returns a LIST group chunk.
func List(form string, children ...*Chunk) *Chunk {
	return &Chunk{ID: ListID, Form: form, Children: children}
}

// Root returns the top-level RIFF group chunk.
func Root(form string, children ...*Chunk) *Chunk {
	return &Chunk{ID: RIFFID, Form: form, Children: children}
}

// IsGroup reports whether c holds children rather than data.
func (c *Chunk) IsGroup() bool {
	return c.ID == RIFFID || c.ID == ListID
}

// BodySize returns the value of the chunk's size field.
func (c *Chunk) BodySize() int64 {
	if !c.IsGroup() {
		return int64(len(c.Data))
	}
	size := int64(4)
	for _, child := range c.Children {
		size += child.TotalSize()
	}
	return size
}

// TotalSize returns the number of bytes the chunk occupies in the file,
// header and pad byte included.
func (c *Chunk) TotalSize() int64 {
	body := c.BodySize()
	return HeaderSize + body + body%2
}

// Write encodes the tree rooted at c to w.
func Write(w io.Writer, c *Chunk) error {
	if len(c.ID) != 4 {
		return fmt.Errorf("%w: %q", ErrInvalidID, c.ID)
	}

	body := c.BodySize()
	if body > math.MaxUint32 {
		return fmt.Errorf("%w: %s is %d bytes", ErrChunkTooLong, c.ID, body)
	}

	var header [HeaderSize]byte
	copy(header[0:4], c.ID)
	binary.LittleEndian.PutUint32(header[4:8], uint32(body))

	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("failed to write %s chunk header: %w", c.ID, err)
	}

	if c.IsGroup() {
		if len(c.Form) != 4 {
			return fmt.Errorf("%w: form %q", ErrInvalidID, c.Form)
		}
		if _, err := io.WriteString(w, c.Form); err != nil {
			return fmt.Errorf("failed to write %s form type: %w", c.Form, err)
		}
		for _, child := range c.Children {
			if err := Write(w, child); err != nil {
				return err
			}
		}
		return nil
	}

	if _, err := w.Write(c.Data); err != nil {
		return fmt.Errorf("failed to write %s chunk data: %w", c.ID, err)
	}
	if body%2 != 0 {
		if _, err := w.Write([]byte{0}); err != nil {
			return fmt.Errorf("failed to write %s pad byte: %w", c.ID, err)
		}
	}
	return nil
}
