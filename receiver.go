package framesync

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/charmbracelet/log"
)

// state is a tagged-variant sum type: each pipeline stage carries only
// the data that stage needs, so a counter simply cannot exist while the
// Receiver is in the wrong state.
type state interface {
	isState()
}

type detectState struct{}

type preambleState struct {
	counter int
}

type payloadState struct {
	counter int
	buf     [PayloadLen]complex64
}

func (detectState) isState()    {}
func (*preambleState) isState() {}
func (*payloadState) isState()  {}

// Receiver is the streaming frame receiver state machine: DETECT ->
// RX_PREAMBLE -> RX_PAYLOAD -> callback -> DETECT. It owns every
// sub-object and buffer it needs and is reused, via Reset, across frames;
// it is not safe for concurrent use by multiple goroutines.
type Receiver struct {
	cb          Callback
	userContext any

	detector *Detector
	mf       *MatchedFilter
	nco      *NCO
	modem    *Modem
	pilot    *PilotSync
	debug    *DebugTrace
	logger   *log.Logger

	st        state
	coarse    CoarseEstimate
	mfCounter int

	preambleBuf        [PreambleLen]complex64
	mostRecentPreamble []complex64
	mostRecentPayload  []complex64
}

// NewReceiver builds a Receiver ready to run, in state DETECT. callback
// may be nil, in which case decoded frames are silently discarded (the
// Receiver still resets after each one) -- a null callback is a valid
// configuration.
func NewReceiver(callback Callback, userContext any) *Receiver {
	r := &Receiver{
		cb:          callback,
		userContext: userContext,
		detector:    NewDetector(),
		mf:          NewMatchedFilter(),
		nco:         NewNCO(),
		modem:       NewModem(),
		pilot:       NewPilotSync(),
		debug:       NewDebugTrace(),
		logger:      log.New(io.Discard),
	}
	r.st = detectState{}
	return r
}

// NewReceiverFromConfig builds a Receiver the way NewReceiver does, but
// with the matched filter's rolloff, the detector's threshold, the debug
// trace, and the logger's level all taken from cfg. A nil cfg is
// equivalent to NewReceiver with DefaultConfig().
func NewReceiverFromConfig(cfg *Config, callback Callback, userContext any) *Receiver {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	r := &Receiver{
		cb:          callback,
		userContext: userContext,
		detector:    NewDetectorWithRolloff(cfg.Rolloff),
		mf:          NewMatchedFilterWithRolloff(cfg.Rolloff),
		nco:         NewNCO(),
		modem:       NewModem(),
		pilot:       NewPilotSync(),
		debug:       NewDebugTrace(),
		logger:      log.New(io.Discard),
	}
	r.detector.SetThreshold(cfg.DetectionThreshold)
	r.st = detectState{}

	lvl, err := log.ParseLevel(cfg.LogLevel)
	if err == nil {
		l := log.New(os.Stderr)
		l.SetLevel(lvl)
		r.logger = l
	}

	if cfg.DebugTrace {
		r.EnableDebug()
	}

	return r
}

// SetLogger replaces the Receiver's logger. A nil logger restores the
// default discard logger.
func (r *Receiver) SetLogger(l *log.Logger) {
	if l == nil {
		l = log.New(io.Discard)
	}
	r.logger = l
}

// EnableDebug turns on raw-sample capture for WriteDebugScript.
func (r *Receiver) EnableDebug() {
	r.debug.Enable()
}

// DisableDebug turns off raw-sample capture without clearing the buffer.
func (r *Receiver) DisableDebug() {
	r.debug.Disable()
}

// WriteDebugScript writes the debug trace. It is a no-op if debug
// capture was never enabled.
func (r *Receiver) WriteDebugScript(w io.Writer) error {
	return r.debug.WriteScript(w, r.mostRecentPreamble, r.mostRecentPayload)
}

// Execute consumes samples in order, dispatching each to the handler for
// the Receiver's current state. It may invoke the callback zero or more
// times before returning, and never blocks on I/O.
func (r *Receiver) Execute(samples []complex64) {
	for _, x := range samples {
		r.debug.Push(x)
		switch st := r.st.(type) {
		case detectState:
			r.handleDetect(x)
		case *preambleState:
			r.handlePreamble(st, x)
		case *payloadState:
			r.handlePayload(st, x)
		default:
			panic(fmt.Sprintf("framesync: receiver dispatched in unknown state %T", r.st))
		}
	}
}

// Reset clears all counters and sub-object state and returns the Receiver
// to DETECT, without reallocating any buffer. preambleBuf is left alone:
// it is read by WriteDebugScript by way of mostRecentPreamble, which is
// saved off by finishFrame before Reset runs, and it is fully overwritten
// by the next frame's RX_PREAMBLE before it is read again.
func (r *Receiver) Reset() {
	r.st = detectState{}
	r.detector.Reset()
	r.mf.Reset()
	r.nco.Reset()
	r.mfCounter = 0
	r.coarse = CoarseEstimate{}
}

// step performs the per-symbol pipeline shared by RX_PREAMBLE and
// RX_PAYLOAD: mix down by the NCO's current phase, advance the NCO, push
// into the matched filter, and report whether a symbol became available
// on this sample.
func (r *Receiver) step(x complex64) (symbol complex64, available bool) {
	v := r.nco.MixDown(x)
	r.nco.Step()

	r.mf.Push(v)
	vp := r.mf.Execute(0) // polyphase branch always 0; no refinement for negative tau

	r.mfCounter++
	available = r.mfCounter == 1
	r.mfCounter %= SamplesPerSymbol

	if available {
		return vp, true
	}
	return 0, false
}

// handleDetect implements the DETECT handler.
func (r *Receiver) handleDetect(x complex64) {
	est, buffered, detected := r.detector.Execute(x)
	if !detected {
		return
	}

	r.coarse = est
	r.mf.SetScale(0.5 / est.Gamma)
	r.nco.SetFrequency(est.DPhi)
	r.nco.SetPhase(est.Phi)
	r.st = &preambleState{}
	r.logger.Info("frame detected", "estimate", est.String())

	if len(buffered) > 0 {
		r.Execute(buffered)
	}
}

// handlePreamble implements the RX_PREAMBLE handler.
func (r *Receiver) handlePreamble(ps *preambleState, x complex64) {
	v, ok := r.step(x)
	if !ok {
		return
	}

	const settle = 2 * FilterDelay
	if ps.counter >= settle {
		r.preambleBuf[ps.counter-settle] = v
	}
	ps.counter++

	if ps.counter == PreambleLen+settle {
		r.logger.Debug("preamble complete, entering RX_PAYLOAD")
		r.st = &payloadState{}
	}
}

// handlePayload implements the RX_PAYLOAD handler.
func (r *Receiver) handlePayload(ps *payloadState, x complex64) {
	v, ok := r.step(x)
	if !ok {
		return
	}

	ps.buf[ps.counter] = v
	ps.counter++

	if ps.counter == PayloadLen {
		r.finishFrame(ps.buf)
	}
}

// finishFrame runs the pilot synchronizer and packet demodulator,
// populates frame statistics, dispatches the callback, and resets --
// in that order, so the callback sees the full frame before it is torn
// down.
func (r *Receiver) finishFrame(buf [PayloadLen]complex64) {
	data := r.pilot.Execute(buf)
	packet, valid := r.modem.Decode(data)

	var header [HeaderLen]byte
	var payload [PayloadByteLen]byte
	copy(header[:], packet[:HeaderLen])
	copy(payload[:], packet[HeaderLen:])

	stats := FrameStats{
		EVM:       0,
		RSSI:      20 * math.Log10(r.coarse.Gamma),
		CFO:       r.nco.Frequency(),
		FrameSyms: data,
		ModScheme: QPSK,
		ModBits:   ModBits,
		Check:     CRC24,
		FEC0:      FECNone,
		FEC1:      FECGolay2412,
	}

	r.mostRecentPreamble = append(r.mostRecentPreamble[:0], r.preambleBuf[:]...)
	r.mostRecentPayload = data[:]

	if valid {
		r.logger.Info("frame decoded", "valid", valid, "rssi", stats.RSSI)
	} else {
		r.logger.Warn("frame decoded", "valid", valid, "rssi", stats.RSSI)
	}

	if r.cb != nil {
		r.cb(header, valid, payload, valid, stats, r.userContext)
	}

	r.Reset()
}
