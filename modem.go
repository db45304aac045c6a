package framesync

import (
	"math"

	"github.com/jpeeler/liquid-dsp/internal"
)

// golayBlocks is how many 12-bit Golay(24,12) blocks the 75-byte
// (72-byte packet + 3-byte CRC-24) message splits into: 75*8/12 = 50.
// 50 blocks * 24 coded bits = 1200 bits = DataLen*ModBits QPSK symbols,
// which is exactly why the wire format's numbers (72-byte packet, 24-bit CRC,
// Golay(24,12), 600 data symbols at 2 bits/symbol) all line up.
const golayBlocks = 50

const messageBytes = PacketLen + 3 // packet + CRC-24

var qpskConstellation = [4]complex64{
	complex(1/float32(math.Sqrt2), 1/float32(math.Sqrt2)),   // 00
	complex(1/float32(math.Sqrt2), -1/float32(math.Sqrt2)),  // 01
	complex(-1/float32(math.Sqrt2), -1/float32(math.Sqrt2)), // 11
	complex(-1/float32(math.Sqrt2), 1/float32(math.Sqrt2)),  // 10
}

func qpskMap(msb, lsb byte) complex64 {
	idx := (msb << 1) | lsb
	// Gray-coded index order matches the constellation table above:
	// 00 -> 0, 01 -> 1, 11 -> 2, 10 -> 3.
	switch idx {
	case 0b00:
		return qpskConstellation[0]
	case 0b01:
		return qpskConstellation[1]
	case 0b11:
		return qpskConstellation[2]
	default: // 0b10
		return qpskConstellation[3]
	}
}

func qpskDemap(s complex64) (msb, lsb byte) {
	if real(s) < 0 {
		msb = 1
	}
	if imag(s) < 0 {
		lsb = 1
	}
	return msb, lsb
}

// Modem maps a 72-byte packet to and from the 600 data-bearing QPSK
// symbols, applying CRC-24 and the Golay(24,12) inner code. This is the
// concrete stand-in for the packet modem this receiver needs.
type Modem struct{}

// NewModem returns a Modem configured for the fixed wire format: 72-byte packets,
// CRC-24, no outer FEC, Golay(24,12) inner FEC, QPSK.
func NewModem() *Modem {
	return &Modem{}
}

// FrameLen is the number of QPSK data symbols a configured Modem consumes
// or produces per packet: always DataLen (600).
func (m *Modem) FrameLen() int {
	return DataLen
}

// Modulate encodes a header+payload packet into DataLen QPSK symbols:
// append a CRC-24, Golay(24,12)-encode the result 12 bits at a time, and
// Gray-map pairs of coded bits to QPSK symbols.
func (m *Modem) Modulate(header [HeaderLen]byte, payload [PayloadByteLen]byte) [DataLen]complex64 {
	var packet [PacketLen]byte
	copy(packet[:HeaderLen], header[:])
	copy(packet[HeaderLen:], payload[:])

	crc := internal.CRC24(packet[:])

	var message [messageBytes]byte
	copy(message[:PacketLen], packet[:])
	message[PacketLen] = byte(crc >> 16)
	message[PacketLen+1] = byte(crc >> 8)
	message[PacketLen+2] = byte(crc)

	bw := newBitWriter(golayBlocks * 24)
	for i := 0; i < golayBlocks; i++ {
		block := readBits12(message[:], i*12)
		coded := internal.GolayEncode(block)
		bw.writeBits(coded, 24)
	}
	codedBits := bw.bits

	var out [DataLen]complex64
	for i := 0; i < DataLen; i++ {
		msb := codedBits[2*i]
		lsb := codedBits[2*i+1]
		out[i] = qpskMap(msb, lsb)
	}
	return out
}

// Decode recovers the 72-byte packet and its validity from DataLen QPSK
// symbols: Gray-demap, Golay(24,12)-decode 24 bits at a time (correcting
// up to 3 bit errors per block), then check CRC-24 over the recovered
// 72 bytes. A Golay block the decoder cannot correct is not treated
// specially: its best-effort output flows into the CRC check like any
// other bit error: an uncorrectable FEC block is simply subsumed into
// CRC failure.
func (m *Modem) Decode(symbols [DataLen]complex64) (packet [PacketLen]byte, valid bool) {
	codedBits := make([]byte, 2*DataLen)
	for i, s := range symbols {
		msb, lsb := qpskDemap(s)
		codedBits[2*i] = msb
		codedBits[2*i+1] = lsb
	}

	var message [messageBytes]byte
	mw := newBitWriter(golayBlocks * 12)
	for i := 0; i < golayBlocks; i++ {
		var word uint32
		for b := 0; b < 24; b++ {
			word = (word << 1) | uint32(codedBits[i*24+b])
		}
		decoded, _ := internal.GolayDecode(word)
		mw.writeBits(uint32(decoded), 12)
	}
	packBits(mw.bits, message[:])

	copy(packet[:], message[:PacketLen])
	gotCRC := uint32(message[PacketLen])<<16 | uint32(message[PacketLen+1])<<8 | uint32(message[PacketLen+2])
	wantCRC := internal.CRC24(packet[:])
	return packet, gotCRC == wantCRC
}

// --- bit-level packing helpers ---

type bitWriter struct {
	bits []byte
	pos  int
}

func newBitWriter(capacity int) *bitWriter {
	return &bitWriter{bits: make([]byte, 0, capacity)}
}

func (w *bitWriter) writeBits(v uint32, n int) {
	for i := n - 1; i >= 0; i-- {
		w.bits = append(w.bits, byte((v>>uint(i))&1))
	}
}

// readBits12 reads a 12-bit big-endian value starting at bit offset
// bitOffset of a byte slice.
func readBits12(data []byte, bitOffset int) uint16 {
	var v uint16
	for i := 0; i < 12; i++ {
		byteIdx := (bitOffset + i) / 8
		bitIdx := 7 - (bitOffset+i)%8
		bit := (data[byteIdx] >> uint(bitIdx)) & 1
		v = (v << 1) | uint16(bit)
	}
	return v
}

// packBits packs a slice of 0/1 bytes, MSB first, into dst.
func packBits(bits []byte, dst []byte) {
	for i, b := range bits {
		if b == 0 {
			continue
		}
		byteIdx := i / 8
		bitIdx := 7 - i%8
		dst[byteIdx] |= 1 << uint(bitIdx)
	}
}
