package internal

import "math/bits"

// golayB holds the rows of the 12x12 matrix used to extend the (23,12)
// perfect Golay code to the self-dual (24,12,8) extended binary Golay code.
// Each row is a 12-bit mask; taking bit j of row i as S[i][j], the stored
// matrix S is not symmetric but satisfies S*S^T = I (mod 2), which is what
// makes the decoding algorithm below correct. Since mulVecMat(v, golayB)
// is v*S^T, the generator matrix is G = [I12 | S^T] and the parity-check
// matrix is H = [S | I12].
var golayB = [12]uint16{
	0b110111000101,
	0b101110001011,
	0b011100010111,
	0b111000101101,
	0b110001011011,
	0b100010110111,
	0b000101101111,
	0b001011011101,
	0b010110111001,
	0b101101110001,
	0b011011100011,
	0b111111111110,
}

// mulVecMat computes v*R^T for a 12-bit row vector v, where R is the
// matrix with the given rows: bit j of the result is the parity of
// v AND rows[j].
func mulVecMat(v uint16, rows [12]uint16) uint16 {
	var r uint16
	for j := 0; j < 12; j++ {
		if bits.OnesCount16(v&rows[j])%2 == 1 {
			r |= 1 << uint(j)
		}
	}
	return r
}

// GolayEncode encodes a 12-bit message into a 24-bit codeword. Only the low
// 12 bits of m are used. The codeword packs the message in its low 12 bits
// and the parity in its high 12 bits.
func GolayEncode(m uint16) uint32 {
	m &= 0x0FFF
	p := mulVecMat(m, golayB)
	return uint32(m) | uint32(p)<<12
}

// GolayDecode recovers the 12-bit message from a possibly-corrupted 24-bit
// codeword, correcting up to 3 bit errors. ok is false when the received
// word has more errors than the code can correct; in that case the
// returned message is still the algorithm's best guess (a caller checking
// an outer integrity code, as this receiver does with CRC-24, treats an
// uncorrected block the same as any other CRC failure).
func GolayDecode(r uint32) (message uint16, ok bool) {
	r1 := uint16(r & 0x0FFF)
	r2 := uint16((r >> 12) & 0x0FFF)
	s := mulVecMat(r1, golayB) ^ r2

	// bt holds the rows of S^T.
	var bt [12]uint16
	for i := range bt {
		bt[i] = mulVecMat(1<<uint(i), golayB)
	}

	var e1, e2 uint16
	found := false

	if bits.OnesCount16(s) <= 3 {
		e1, e2 = 0, s
		found = true
	}
	if !found {
		for i := 0; i < 12 && !found; i++ {
			if cand := s ^ bt[i]; bits.OnesCount16(cand) <= 2 {
				e1, e2 = 1<<uint(i), cand
				found = true
			}
		}
	}

	sb := mulVecMat(s, bt)
	if !found {
		if bits.OnesCount16(sb) <= 3 {
			e1, e2 = sb, 0
			found = true
		}
	}
	if !found {
		for i := 0; i < 12 && !found; i++ {
			if cand := sb ^ golayB[i]; bits.OnesCount16(cand) <= 2 {
				e1, e2 = cand, 1<<uint(i)
				found = true
			}
		}
	}

	corrected1 := r1 ^ e1
	corrected2 := r2 ^ e2
	_ = corrected2
	return corrected1, found
}
