package sqlite

import (
	"encoding/binary"
	"math"
)

// vectorToBlob encodes a float32 vector as a little-endian byte blob.
func vectorToBlob(vec []float32) []byte {
	blob := make([]byte, 4*len(vec))
	for i, f := range vec {
		binary.LittleEndian.PutUint32(blob[4*i:], math.Float32bits(f))
	}

	return blob
}

// vectorFromBlob decodes a little-endian float32 blob. Trailing bytes that
// do not form a full float32 are ignored.
func vectorFromBlob(blob []byte) []float32 {
	n := len(blob) / 4

	vec := make([]float32, n)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[4*i:]))
	}

	return vec
}
