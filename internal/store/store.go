// Package store keeps the signal-parameters record in non-volatile memory.
//
// Layout (little endian, RecordSize bytes at the configured offset):
//
//	0  magic   uint16 0xD5D5
//	2  version uint8
//	3  freq    uint32
//	7  amp     uint8
//	8  wave    uint8
//	9  crc32   uint32 (IEEE, over bytes 0..8)
package store

import (
	"encoding/binary"
	"hash/crc32"
	"io"

	"f4disco/errcode"
	"f4disco/internal/dds"
)

const (
	Magic      = 0xD5D5
	Version    = 1
	RecordSize = 13
)

// Backend is byte-addressable non-volatile memory.
type Backend interface {
	io.ReaderAt
	io.WriterAt
}

// Eraser is implemented by backends that must be erased before a rewrite.
type Eraser interface {
	Erase(off, n int64) error
}

type Store struct {
	b     Backend
	off   int64
	last  dds.Params
	valid bool
	buf   [RecordSize]byte
}

func New(b Backend, off int64) *Store {
	return &Store{b: b, off: off}
}

// Encode writes p into a record.
func Encode(dst *[RecordSize]byte, p dds.Params) {
	binary.LittleEndian.PutUint16(dst[0:2], Magic)
	dst[2] = Version
	binary.LittleEndian.PutUint32(dst[3:7], p.Frequency)
	dst[7] = p.Amplitude
	dst[8] = byte(p.Waveform)
	binary.LittleEndian.PutUint32(dst[9:13], crc32.ChecksumIEEE(dst[:9]))
}

// Decode validates a record. Blank or foreign memory reports NotFound; a
// damaged record reports Corrupt.
func Decode(src *[RecordSize]byte) (dds.Params, error) {
	if binary.LittleEndian.Uint16(src[0:2]) != Magic {
		return dds.Params{}, errcode.NotFound
	}
	if crc32.ChecksumIEEE(src[:9]) != binary.LittleEndian.Uint32(src[9:13]) {
		return dds.Params{}, errcode.Corrupt
	}
	if src[2] != Version {
		return dds.Params{}, errcode.Unsupported
	}
	p := dds.Params{
		Frequency: binary.LittleEndian.Uint32(src[3:7]),
		Amplitude: src[7],
		Waveform:  dds.Waveform(src[8]),
	}
	if !p.Valid() {
		return dds.Params{}, errcode.Corrupt
	}
	return p, nil
}

// Load reads the stored record.
func (s *Store) Load() (dds.Params, error) {
	if _, err := s.b.ReadAt(s.buf[:], s.off); err != nil {
		return dds.Params{}, errcode.Wrap(errcode.Of(err), "store.load", err)
	}
	p, err := Decode(&s.buf)
	if err != nil {
		return p, err
	}
	s.last, s.valid = p, true
	return p, nil
}

// Save writes p unless it matches what is already stored, then reads it
// back.
func (s *Store) Save(p dds.Params) error {
	if s.valid && s.last == p {
		return nil
	}
	if e, ok := s.b.(Eraser); ok {
		if err := e.Erase(s.off, RecordSize); err != nil {
			return errcode.Wrap(errcode.Of(err), "store.erase", err)
		}
	}
	Encode(&s.buf, p)
	if _, err := s.b.WriteAt(s.buf[:], s.off); err != nil {
		s.valid = false
		return errcode.Wrap(errcode.Of(err), "store.save", err)
	}
	var check [RecordSize]byte
	if _, err := s.b.ReadAt(check[:], s.off); err != nil {
		s.valid = false
		return errcode.Wrap(errcode.Of(err), "store.verify", err)
	}
	if check != s.buf {
		s.valid = false
		return errcode.VerifyFailed
	}
	s.last, s.valid = p, true
	return nil
}

// LoadOr returns the stored record, or def when none is usable.
func (s *Store) LoadOr(def dds.Params) (dds.Params, error) {
	p, err := s.Load()
	if err != nil {
		return def, err
	}
	return p, nil
}
