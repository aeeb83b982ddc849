package bloom

import (
	"hash"
	"math"

	"github.com/spaolacci/murmur3"
)

// Filter is a fixed-size bloom filter over string keys.
type Filter struct {
	bits    []uint64
	m       uint32
	hashFns []hash.Hash32
}

// New sizes a filter for n keys at false-positive rate p. It returns nil
// when the parameters cannot produce a usable filter.
func New(n int, p float64) *Filter {
	if n <= 0 || p <= 0 || p >= 1 {
		return nil
	}

	m := int(math.Ceil(-float64(n) * math.Log(p) / math.Pow(math.Log(2), 2)))
	k := int(math.Round((float64(m) / float64(n)) * math.Log(2)))

	if m == 0 || k == 0 || uint64(m) > math.MaxUint32 {
		return nil
	}

	hashFns := make([]hash.Hash32, k)
	for i := 0; i < k; i++ {
		hashFns[i] = murmur3.New32WithSeed(uint32(i))
	}

	return &Filter{
		bits:    make([]uint64, (m+63)/64),
		m:       uint32(m),
		hashFns: hashFns,
	}
}

func (f *Filter) index(fn hash.Hash32, key string) uint32 {
	fn.Reset()
	_, _ = fn.Write([]byte(key))
	return fn.Sum32() % f.m
}

// Add adds a key to the filter.
func (f *Filter) Add(key string) {
	for _, fn := range f.hashFns {
		i := f.index(fn, key)
		f.bits[i/64] |= 1 << (i % 64)
	}
}

// Contains reports whether key may have been added. False positives are
// possible; false negatives are not.
func (f *Filter) Contains(key string) bool {
	for _, fn := range f.hashFns {
		i := f.index(fn, key)
		if f.bits[i/64]&(1<<(i%64)) == 0 {
			return false
		}
	}
	return true
}

// TestAndAdd adds key and reports whether it was (probably) present before.
func (f *Filter) TestAndAdd(key string) bool {
	present := true
	for _, fn := range f.hashFns {
		i := f.index(fn, key)
		word, bit := i/64, uint64(1)<<(i%64)
		if f.bits[word]&bit == 0 {
			present = false
			f.bits[word] |= bit
		}
	}
	return present
}

// Hashes is the number of hash functions in use.
func (f *Filter) Hashes() int { return len(f.hashFns) }

// Bits is the size of the bitset.
func (f *Filter) Bits() int { return int(f.m) }
