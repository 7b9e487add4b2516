// Package mem defines the backing store and the access contract between
// devices that move data and the memory system that serves them.
package mem

import (
	"sync"

	"github.com/pkg/errors"
)

// Capacity units.
const (
	KB uint64 = 1 << 10
	MB uint64 = 1 << 20
	GB uint64 = 1 << 30
)

// ErrOutOfRange is returned when an access touches bytes beyond the capacity
// of a storage.
var ErrOutOfRange = errors.New("accessing address beyond the storage capacity")

// A Storage keeps the data of the simulated system.
//
// The storage manages the data in units, similar to pages. Units that are
// never touched are never allocated, so a storage can cover the full physical
// address space of the platform cheaply.
type Storage struct {
	sync.Mutex

	unitSize uint64
	capacity uint64
	data     map[uint64][]byte
}

// NewStorage creates a storage object with the specified capacity
func NewStorage(capacity uint64) *Storage {
	return NewStorageWithUnitSize(capacity, 4*KB)
}

// NewStorageWithUnitSize creates a storage that allocates its data in units of
// the given size.
func NewStorageWithUnitSize(capacity, unitSize uint64) *Storage {
	if unitSize == 0 {
		panic("storage unit size must not be 0")
	}

	return &Storage{
		unitSize: unitSize,
		capacity: capacity,
		data:     make(map[uint64][]byte),
	}
}

// Capacity returns the number of bytes the storage can hold.
func (s *Storage) Capacity() uint64 {
	return s.capacity
}

func (s *Storage) rangeMustFit(address, size uint64) error {
	if address+size < address || address+size > s.capacity {
		return errors.Wrapf(ErrOutOfRange,
			"access [0x%x, 0x%x) with capacity 0x%x",
			address, address+size, s.capacity)
	}

	return nil
}

func (s *Storage) unit(address uint64) []byte {
	baseAddr, _ := s.parseAddress(address)

	unit, ok := s.data[baseAddr]
	if !ok {
		unit = make([]byte, s.unitSize)
		s.data[baseAddr] = unit
	}

	return unit
}

func (s *Storage) parseAddress(addr uint64) (baseAddr, inUnitAddr uint64) {
	inUnitAddr = addr % s.unitSize
	baseAddr = addr - inUnitAddr

	return baseAddr, inUnitAddr
}

// Read returns a copy of size bytes starting at address.
func (s *Storage) Read(address, size uint64) ([]byte, error) {
	res := make([]byte, size)

	if err := s.ReadInto(address, res); err != nil {
		return nil, err
	}

	return res, nil
}

// ReadInto fills buf with the bytes starting at address.
func (s *Storage) ReadInto(address uint64, buf []byte) error {
	s.Lock()
	defer s.Unlock()

	size := uint64(len(buf))
	if err := s.rangeMustFit(address, size); err != nil {
		return err
	}

	offset := uint64(0)
	for offset < size {
		currAddr := address + offset
		unit := s.unit(currAddr)
		_, inUnitAddr := s.parseAddress(currAddr)

		n := min(size-offset, s.unitSize-inUnitAddr)
		copy(buf[offset:offset+n], unit[inUnitAddr:inUnitAddr+n])
		offset += n
	}

	return nil
}

// Write stores data starting at address.
func (s *Storage) Write(address uint64, data []byte) error {
	s.Lock()
	defer s.Unlock()

	size := uint64(len(data))
	if err := s.rangeMustFit(address, size); err != nil {
		return err
	}

	offset := uint64(0)
	for offset < size {
		currAddr := address + offset
		unit := s.unit(currAddr)
		_, inUnitAddr := s.parseAddress(currAddr)

		n := min(size-offset, s.unitSize-inUnitAddr)
		copy(unit[inUnitAddr:inUnitAddr+n], data[offset:offset+n])
		offset += n
	}

	return nil
}
