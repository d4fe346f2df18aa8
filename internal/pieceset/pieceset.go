// Package pieceset implements fixed-width bitsets over catalog indices.
//
// A Set is a plain word slice so that many sets can share one backing arena:
// the solver slices one Set per cell out of a single []uint64. Iteration always
// runs in ascending index order.
package pieceset

import (
	"math/bits"
	"strconv"
	"strings"
)

// Set is a bitset; bit n is set when catalog index n is a member.
type Set []uint64

// Words returns the number of 64-bit words needed to hold n indices.
func Words(n int) int {
	if n <= 0 {
		return 0
	}
	return (n + 63) / 64
}

// New allocates an empty set able to hold indices [0, n).
func New(n int) Set {
	return make(Set, Words(n))
}

// Full returns a set containing every index in [0, n).
func Full(n int) Set {
	s := New(n)
	s.Fill(n)
	return s
}

// Of builds a set of capacity n holding the listed indices.
func Of(n int, members ...int) Set {
	s := New(n)
	for _, m := range members {
		s.Add(m)
	}
	return s
}

func (s Set) Has(n int) bool {
	w := n >> 6
	if n < 0 || w >= len(s) {
		return false
	}
	return s[w]&(1<<(uint(n)&63)) != 0
}

func (s Set) Add(n int) {
	s[n>>6] |= 1 << (uint(n) & 63)
}

func (s Set) Remove(n int) {
	s[n>>6] &^= 1 << (uint(n) & 63)
}

// Fill sets every index in [0, n) and clears the rest.
func (s Set) Fill(n int) {
	for i := range s {
		switch {
		case n >= (i+1)*64:
			s[i] = ^uint64(0)
		case n > i*64:
			s[i] = (1 << uint(n-i*64)) - 1
		default:
			s[i] = 0
		}
	}
}

func (s Set) Clear() {
	for i := range s {
		s[i] = 0
	}
}

// Only clears the set down to the single member n.
func (s Set) Only(n int) {
	s.Clear()
	s.Add(n)
}

func (s Set) Len() int {
	total := 0
	for _, w := range s {
		total += bits.OnesCount64(w)
	}
	return total
}

func (s Set) Empty() bool {
	for _, w := range s {
		if w != 0 {
			return false
		}
	}
	return true
}

// First returns the lowest member, or -1 for an empty set.
func (s Set) First() int {
	for i, w := range s {
		if w != 0 {
			return i*64 + bits.TrailingZeros64(w)
		}
	}
	return -1
}

// Each calls fn for every member in ascending order until fn returns false.
func (s Set) Each(fn func(n int) bool) {
	for i, w := range s {
		for w != 0 {
			tz := bits.TrailingZeros64(w)
			if !fn(i*64 + tz) {
				return
			}
			w &= w - 1
		}
	}
}

// Members returns the indices in ascending order.
func (s Set) Members() []int {
	out := make([]int, 0, s.Len())
	s.Each(func(n int) bool {
		out = append(out, n)
		return true
	})
	return out
}

// Union adds every member of other to s.
func (s Set) Union(other Set) {
	for i := range s {
		if i < len(other) {
			s[i] |= other[i]
		}
	}
}

// Intersect keeps only members also present in other and reports whether s
// lost any member.
func (s Set) Intersect(other Set) bool {
	changed := false
	for i := range s {
		var mask uint64
		if i < len(other) {
			mask = other[i]
		}
		next := s[i] & mask
		if next != s[i] {
			changed = true
			s[i] = next
		}
	}
	return changed
}

// CopyFrom overwrites s with the contents of other.
func (s Set) CopyFrom(other Set) {
	copy(s, other)
	for i := len(other); i < len(s); i++ {
		s[i] = 0
	}
}

func (s Set) Clone() Set {
	out := make(Set, len(s))
	copy(out, s)
	return out
}

func (s Set) Equal(other Set) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

func (s Set) String() string {
	var b strings.Builder
	b.WriteByte('{')
	first := true
	s.Each(func(n int) bool {
		if !first {
			b.WriteByte(',')
		}
		first = false
		b.WriteString(strconv.Itoa(n))
		return true
	})
	b.WriteByte('}')
	return b.String()
}
