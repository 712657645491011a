package engine

import (
	"fmt"
	"math/bits"
	"strconv"
)

// MaxHooks is the hard limit on hook slots per component. Dependency
// tracking uses a fixed-width uint64 bitmask, one bit per hook index;
// components needing more slots must be split.
const MaxHooks = 64

// Mask is a set of hook indices, one bit per index.
type Mask uint64

// Bit returns a mask with only index i set. Panics when i is outside
// [0, MaxHooks).
func Bit(i int) Mask {
	if i < 0 || i >= MaxHooks {
		panic(fmt.Errorf("%w: index %d", ErrTooManyHooks, i))
	}
	return Mask(1) << uint(i)
}

// Bits returns a mask with every given index set.
func Bits(idxs ...int) Mask {
	var m Mask
	for _, i := range idxs {
		m |= Bit(i)
	}
	return m
}

// Has reports whether index i is set.
func (m Mask) Has(i int) bool {
	return m&Bit(i) != 0
}

// Set returns m with index i set.
func (m Mask) Set(i int) Mask {
	return m | Bit(i)
}

// Clear returns m with index i cleared.
func (m Mask) Clear(i int) Mask {
	return m &^ Bit(i)
}

// Any reports whether any bit is set.
func (m Mask) Any() bool {
	return m != 0
}

// Lowest returns the lowest set index, or MaxHooks when empty.
func (m Mask) Lowest() int {
	return bits.TrailingZeros64(uint64(m))
}

// Count returns the number of set bits.
func (m Mask) Count() int {
	return bits.OnesCount64(uint64(m))
}

// String returns the mask as a binary literal for diagnostics.
func (m Mask) String() string {
	return "0b" + strconv.FormatUint(uint64(m), 2)
}
