// SPDX-License-Identifier: EPL-2.0

package utils

import (
	"encoding/binary"
	"math"
)

// Float64ToInt16 clamps x to [-1, 1] and scales it to the int16 sample
// range.
func Float64ToInt16(x float64) int16 {
	if x > 1 {
		x = 1
	} else if x < -1 {
		x = -1
	}

	// Use 32767 for positive max to avoid overflow
	return int16(x * 32767.0)
}

// Float64ToFloat32LE encodes samples as little-endian 32-bit floats into
// dst, the layout hardware mixers consume. dst must hold 4 bytes per
// sample; the number of bytes written is returned.
func Float64ToFloat32LE(dst []byte, samples []float64) int {
	n := 0
	for _, s := range samples {
		binary.LittleEndian.PutUint32(dst[n:], math.Float32bits(float32(s)))
		n += 4
	}
	return n
}

// Int16ToFloat64 maps an int16 sample onto [-1, 1]. Negative values
// divide by 32768 and positive by 32767 so both endpoints land exactly
// on the unit bounds.
func Int16ToFloat64(v int16) float64 {
	if v < 0 {
		return float64(v) / 32768.0
	}
	return float64(v) / 32767.0
}
