package peaklist

import (
	"encoding/binary"
	"math"
	"sort"
)

// Spectrum is one fully decoded spectrum. Peaks are kept as parallel MZ and
// Intensity slices sorted ascending by m/z.
type Spectrum struct {
	ID                 string
	PrecursorMZ        float64
	PrecursorCharge    *int
	PrecursorIntensity *float64
	RetentionTime      *float64

	MZ        []float64
	Intensity []float64
}

// sortPeaks restores the ascending m/z order. Readers call it once per
// spectrum after decoding, so Spectrum values handed out always hold.
func (s *Spectrum) sortPeaks() {
	if sort.Float64sAreSorted(s.MZ) {
		return
	}
	type peak struct {
		mz, intens float64
	}
	peaks := make([]peak, len(s.MZ))
	for i := range s.MZ {
		peaks[i] = peak{s.MZ[i], s.Intensity[i]}
	}
	sort.Slice(peaks, func(i, j int) bool { return peaks[i].mz < peaks[j].mz })
	for i, p := range peaks {
		s.MZ[i] = p.mz
		s.Intensity[i] = p.intens
	}
}

// EncodeFloats packs a float64 slice little-endian for storage in a binary
// database column.
func EncodeFloats(v []float64) []byte {
	buf := make([]byte, 8*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(f))
	}
	return buf
}

// DecodeFloats is the inverse of EncodeFloats.
func DecodeFloats(buf []byte) []float64 {
	v := make([]float64, len(buf)/8)
	for i := range v {
		v[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return v
}
