package framesync

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

type capturedFrame struct {
	header       [HeaderLen]byte
	headerValid  bool
	payload      [PayloadByteLen]byte
	payloadValid bool
	stats        FrameStats
}

func recordingCallback(frames *[]capturedFrame) Callback {
	return func(header [HeaderLen]byte, headerValid bool, payload [PayloadByteLen]byte, payloadValid bool, stats FrameStats, _ any) {
		*frames = append(*frames, capturedFrame{header, headerValid, payload, payloadValid, stats})
	}
}

func testPacket() ([HeaderLen]byte, [PayloadByteLen]byte) {
	var header [HeaderLen]byte
	var payload [PayloadByteLen]byte
	for i := range header {
		header[i] = byte(0x10 + i)
	}
	for i := range payload {
		payload[i] = byte(i * 3)
	}
	return header, payload
}

func TestReceiverNoiselessLoopback(t *testing.T) {
	header, payload := testPacket()
	tx := NewTransmitter()
	baseband := tx.Baseband(header, payload)

	var frames []capturedFrame
	rx := NewReceiver(recordingCallback(&frames), nil)
	rx.Execute(baseband)

	require.Len(t, frames, 1)
	f := frames[0]
	assert.True(t, f.headerValid)
	assert.True(t, f.payloadValid)
	assert.Equal(t, header, f.header)
	assert.Equal(t, payload, f.payload)
}

func TestReceiverCarrierOffsetRobustness(t *testing.T) {
	header, payload := testPacket()
	for _, omega := range []float64{-0.05, -0.01, 0.01, 0.05} {
		tx := NewTransmitter()
		baseband := ApplyChannel(tx.Baseband(header, payload), 1.0, omega, 0)

		var frames []capturedFrame
		rx := NewReceiver(recordingCallback(&frames), nil)
		rx.Execute(baseband)

		require.Len(t, frames, 1, "omega=%v", omega)
		assert.True(t, frames[0].payloadValid, "omega=%v", omega)
		assert.Equal(t, payload, frames[0].payload, "omega=%v", omega)
	}
}

func TestReceiverTimingOffsetRobustness(t *testing.T) {
	header, payload := testPacket()
	for _, tau := range []float64{-0.4, 0, 0.4} {
		tx := NewTransmitter()
		baseband := ApplyFractionalDelay(tx.Baseband(header, payload), tau)

		var frames []capturedFrame
		rx := NewReceiver(recordingCallback(&frames), nil)
		rx.Execute(baseband)

		require.Len(t, frames, 1, "tau=%v", tau)
		assert.True(t, frames[0].payloadValid, "tau=%v", tau)
		assert.Equal(t, payload, frames[0].payload, "tau=%v", tau)
	}
}

func TestReceiverAmplitudeInvariance(t *testing.T) {
	header, payload := testPacket()
	for _, gamma := range []float64{0.1, 1.0, 10.0} {
		tx := NewTransmitter()
		baseband := ApplyChannel(tx.Baseband(header, payload), gamma, 0, 0)

		var frames []capturedFrame
		rx := NewReceiver(recordingCallback(&frames), nil)
		rx.Execute(baseband)

		require.Len(t, frames, 1, "gamma=%v", gamma)
		assert.True(t, frames[0].payloadValid, "gamma=%v", gamma)
		assert.Equal(t, payload, frames[0].payload, "gamma=%v", gamma)

		want := 20 * math.Log10(gamma)
		assert.InDelta(t, want, frames[0].stats.RSSI, 0.5, "gamma=%v", gamma)
	}
}

func TestReceiverNoiseOnlyInputProducesNoCallback(t *testing.T) {
	var frames []capturedFrame
	rx := NewReceiver(recordingCallback(&frames), nil)

	noise := make([]complex64, 20000)
	for i := range noise {
		v := float32(((i*2654435761)%2001)-1000) / 4000
		noise[i] = complex(v, -v)
	}
	rx.Execute(noise)

	assert.Empty(t, frames)
	_, isDetect := rx.st.(detectState)
	assert.True(t, isDetect)
}

func TestReceiverTwoBackToBackFrames(t *testing.T) {
	header, payload := testPacket()
	tx := NewTransmitter()
	one := tx.Baseband(header, payload)

	header2 := header
	header2[0] ^= 0xFF
	two := tx.Baseband(header2, payload)

	stream := append(append([]complex64{}, one...), two...)

	var frames []capturedFrame
	rx := NewReceiver(recordingCallback(&frames), nil)
	rx.Execute(stream)

	require.Len(t, frames, 2)
	assert.True(t, frames[0].payloadValid)
	assert.True(t, frames[1].payloadValid)
	assert.Equal(t, header, frames[0].header)
	assert.Equal(t, header2, frames[1].header)
}

func TestReceiverFrameSplitAcrossExecuteCalls(t *testing.T) {
	header, payload := testPacket()
	tx := NewTransmitter()
	baseband := tx.Baseband(header, payload)

	rapid.Check(t, func(t *rapid.T) {
		split := rapid.IntRange(1, len(baseband)-1).Draw(t, "split")

		var frames []capturedFrame
		rx := NewReceiver(recordingCallback(&frames), nil)
		rx.Execute(baseband[:split])
		rx.Execute(baseband[split:])

		require.Len(t, frames, 1)
		assert.True(t, frames[0].payloadValid)
		assert.Equal(t, payload, frames[0].payload)
	})
}

func TestReceiverGarbledPayloadStillCallsBackInvalid(t *testing.T) {
	header, payload := testPacket()
	tx := NewTransmitter()
	baseband := tx.Baseband(header, payload)

	// Flip the sign of ~30% of the payload region's samples (after the
	// preamble) to force CRC failure without preventing detection.
	preambleSamples := PreambleLen * SamplesPerSymbol
	for i := preambleSamples; i < len(baseband); i++ {
		if i%10 < 3 {
			baseband[i] = -baseband[i]
		}
	}

	var frames []capturedFrame
	rx := NewReceiver(recordingCallback(&frames), nil)
	rx.Execute(baseband)

	require.Len(t, frames, 1)
	assert.False(t, frames[0].payloadValid)
}

func TestReceiverResetDuringPayloadAccumulation(t *testing.T) {
	header, payload := testPacket()
	tx := NewTransmitter()
	baseband := tx.Baseband(header, payload)

	var frames []capturedFrame
	rx := NewReceiver(recordingCallback(&frames), nil)

	// Feed everything up through most of the preamble+payload, then reset
	// before the frame would complete.
	cut := len(baseband) - 20
	rx.Execute(baseband[:cut])
	rx.Reset()
	assert.Empty(t, frames)
	_, isDetect := rx.st.(detectState)
	assert.True(t, isDetect)

	// A subsequent, complete frame still decodes correctly.
	rx.Execute(tx.Baseband(header, payload))
	require.Len(t, frames, 1)
	assert.True(t, frames[0].payloadValid)
	assert.Equal(t, payload, frames[0].payload)
}

func TestReceiverStateInvariantsHoldThroughoutLoopback(t *testing.T) {
	header, payload := testPacket()
	tx := NewTransmitter()
	baseband := tx.Baseband(header, payload)

	var frames []capturedFrame
	rx := NewReceiver(recordingCallback(&frames), nil)

	for _, x := range baseband {
		rx.Execute([]complex64{x})
		switch st := rx.st.(type) {
		case detectState:
		case *preambleState:
			assert.LessOrEqual(t, st.counter, PreambleLen+2*FilterDelay)
		case *payloadState:
			assert.LessOrEqual(t, st.counter, PayloadLen)
		}
	}

	require.Len(t, frames, 1)
	_, isDetect := rx.st.(detectState)
	assert.True(t, isDetect, "receiver must return to DETECT after callback")
	assert.Zero(t, rx.mfCounter%SamplesPerSymbol)
}

func TestNewReceiverFromConfigAppliesThreshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DetectionThreshold = 0.95
	rx := NewReceiverFromConfig(cfg, nil, nil)
	assert.Equal(t, 0.95, rx.detector.threshold)
}

func TestNewReceiverFromConfigNilUsesDefaults(t *testing.T) {
	rx := NewReceiverFromConfig(nil, nil, nil)
	assert.Equal(t, DefaultDetectionThreshold, rx.detector.threshold)
}

func TestReceiverNilCallbackDoesNotPanic(t *testing.T) {
	header, payload := testPacket()
	tx := NewTransmitter()
	baseband := tx.Baseband(header, payload)

	rx := NewReceiver(nil, nil)
	assert.NotPanics(t, func() {
		rx.Execute(baseband)
	})
	_, isDetect := rx.st.(detectState)
	assert.True(t, isDetect)
}
