package config

import (
	"errors"
	"fmt"

	"quill/hal"
)

// Store keeps small settings records in raw flash. The format is append-only:
// a fixed header, then [key, len, sum, value] records written into erased
// (0xFF) space. The newest record for a key wins; running out of room
// triggers a compaction that rewrites only the live records.
//
// Store is not safe for concurrent use; the app calls it from one context.

// Record keys.
const (
	KeyKeymap    uint8 = 0x01
	KeyTransport uint8 = 0x02
	KeyTheme     uint8 = 0x03
)

const (
	storeHeaderLen = 8
	recHeaderLen   = 4
	keyFree        = 0xFF
	maxValueLen    = 4096
)

var storeMagic = [4]byte{'Q', 'C', 'F', '1'}

var (
	ErrStoreFull   = errors.New("config: store full")
	ErrValueTooBig = errors.New("config: value too large")
)

type Store struct {
	flash  hal.Flash
	logger hal.Logger
	end    uint32
	loaded bool
}

func NewStore(flash hal.Flash, logger hal.Logger) *Store {
	return &Store{flash: flash, logger: logger}
}

// Load scans the flash region and finds the append point. A missing or
// corrupt header formats the region.
func (s *Store) Load() error {
	var hdr [storeHeaderLen]byte
	if _, err := s.flash.ReadAt(hdr[:], 0); err != nil {
		return fmt.Errorf("config: read header: %w", err)
	}
	if [4]byte(hdr[:4]) != storeMagic {
		s.logLine("config: formatting settings store")
		if err := s.format(); err != nil {
			return err
		}
		s.loaded = true
		return nil
	}

	off := uint32(storeHeaderLen)
	for {
		_, n, ok := s.readRecord(off, nil)
		if !ok {
			break
		}
		off += recHeaderLen + n
	}
	s.end = off
	s.loaded = true
	return nil
}

// Get copies the newest value for key into dst and returns it. ok is false
// when the key has never been written.
func (s *Store) Get(key uint8, dst []byte) ([]byte, bool) {
	if !s.loaded {
		return nil, false
	}
	var found []byte
	off := uint32(storeHeaderLen)
	for off < s.end {
		k, n, ok := s.readRecord(off, nil)
		if !ok {
			break
		}
		if k == key {
			if int(n) > cap(dst) {
				dst = make([]byte, n)
			}
			dst = dst[:n]
			if _, _, ok := s.readRecord(off, dst); !ok {
				break
			}
			found = dst
		}
		off += recHeaderLen + n
	}
	if found == nil {
		return nil, false
	}
	return found, true
}

// Put appends a new record for key, compacting first when the region is out
// of room.
func (s *Store) Put(key uint8, value []byte) error {
	if !s.loaded {
		return errors.New("config: store not loaded")
	}
	if key == keyFree {
		return errors.New("config: reserved key")
	}
	if len(value) > maxValueLen {
		return ErrValueTooBig
	}

	need := uint32(recHeaderLen + len(value))
	if s.end+need > s.flash.SizeBytes() {
		if err := s.compact(key); err != nil {
			return err
		}
		if s.end+need > s.flash.SizeBytes() {
			return ErrStoreFull
		}
	}
	if err := s.writeRecord(s.end, key, value); err != nil {
		return err
	}
	s.end += need
	return nil
}

func (s *Store) format() error {
	if err := s.flash.Erase(0, s.flash.SizeBytes()); err != nil {
		return fmt.Errorf("config: erase: %w", err)
	}
	var hdr [storeHeaderLen]byte
	copy(hdr[:], storeMagic[:])
	hdr[4] = 1 // format version
	if _, err := s.flash.WriteAt(hdr[:], 0); err != nil {
		return fmt.Errorf("config: write header: %w", err)
	}
	s.end = storeHeaderLen
	return nil
}

// compact rewrites the region keeping the newest value per key, dropping
// records for skip (the caller is about to overwrite it anyway).
func (s *Store) compact(skip uint8) error {
	s.logLine("config: compacting settings store")

	live := make(map[uint8][]byte)
	off := uint32(storeHeaderLen)
	for off < s.end {
		k, n, ok := s.readRecord(off, nil)
		if !ok {
			break
		}
		if k != skip {
			v := make([]byte, n)
			if _, _, ok := s.readRecord(off, v); ok {
				live[k] = v
			}
		}
		off += recHeaderLen + n
	}

	if err := s.format(); err != nil {
		return err
	}
	for k, v := range live {
		if err := s.writeRecord(s.end, k, v); err != nil {
			return err
		}
		s.end += uint32(recHeaderLen + len(v))
	}
	return nil
}

// readRecord validates the record at off. With dst == nil only the header is
// checked; otherwise the value is read into dst (which must be exactly the
// value length).
func (s *Store) readRecord(off uint32, dst []byte) (key uint8, n uint32, ok bool) {
	var hdr [recHeaderLen]byte
	if off+recHeaderLen > s.flash.SizeBytes() {
		return 0, 0, false
	}
	if _, err := s.flash.ReadAt(hdr[:], off); err != nil {
		return 0, 0, false
	}
	key = hdr[0]
	if key == keyFree {
		return 0, 0, false
	}
	n = uint32(hdr[1]) | uint32(hdr[2])<<8
	if n > maxValueLen || off+recHeaderLen+n > s.flash.SizeBytes() {
		return 0, 0, false
	}
	if dst == nil {
		return key, n, true
	}
	if _, err := s.flash.ReadAt(dst, off+recHeaderLen); err != nil {
		return 0, 0, false
	}
	if recSum(key, dst) != hdr[3] {
		return 0, 0, false
	}
	return key, n, true
}

func (s *Store) writeRecord(off uint32, key uint8, value []byte) error {
	hdr := [recHeaderLen]byte{key, uint8(len(value)), uint8(len(value) >> 8), recSum(key, value)}
	if _, err := s.flash.WriteAt(hdr[:], off); err != nil {
		return fmt.Errorf("config: write record: %w", err)
	}
	if len(value) > 0 {
		if _, err := s.flash.WriteAt(value, off+recHeaderLen); err != nil {
			return fmt.Errorf("config: write record: %w", err)
		}
	}
	return nil
}

func recSum(key uint8, value []byte) uint8 {
	sum := key ^ uint8(len(value)) ^ uint8(len(value)>>8)
	for _, b := range value {
		sum ^= b
	}
	return sum
}

func (s *Store) logLine(line string) {
	if s.logger != nil {
		s.logger.WriteLineString(line)
	}
}
