// Command framesync-demo builds a synthetic packet, transmits it through a
// simulated channel, and feeds the result to a Receiver, reporting whether
// the frame round-tripped. It exists to exercise the package end to end
// without needing a real radio front end.
package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	framesync "github.com/jpeeler/liquid-dsp"
)

func main() {
	var (
		configPath = pflag.StringP("config", "c", "", "path to a YAML config file")
		payloadHex = pflag.String("payload", "", "hex-encoded 64-byte payload (bytes 0..63 if empty)")
		offset     = pflag.Float64("offset", 0, "carrier frequency offset, radians/sample")
		gain       = pflag.Float64("gain", 1.0, "channel gain")
		tau        = pflag.Float64("tau", 0, "fractional timing offset, samples")
		debugPath  = pflag.String("debug-out", "", "write a debug trace script to this path")
	)
	pflag.Parse()

	logger := log.New(os.Stderr)

	var cfg *framesync.Config
	if *configPath != "" {
		loaded, err := framesync.LoadConfig(*configPath)
		if err != nil {
			logger.Fatal("loading config", "err", err)
		}
		cfg = loaded
	} else {
		cfg = framesync.DefaultConfig()
	}
	logger.Info("channel configured", "symbol_rate", cfg.SymbolRate)

	var header [framesync.HeaderLen]byte
	header[0] = 0xAB

	var payload [framesync.PayloadByteLen]byte
	if *payloadHex != "" {
		raw, err := hex.DecodeString(*payloadHex)
		if err != nil || len(raw) != framesync.PayloadByteLen {
			logger.Fatal("parsing --payload", "err", err, "want_bytes", framesync.PayloadByteLen)
		}
		copy(payload[:], raw)
	} else {
		for i := range payload {
			payload[i] = byte(i)
		}
	}

	tx := framesync.NewTransmitter()
	baseband := tx.Baseband(header, payload)
	baseband = framesync.ApplyFractionalDelay(baseband, *tau)
	baseband = framesync.ApplyChannel(baseband, *gain, *offset, 0)

	var decoded bool
	cb := func(hdr [framesync.HeaderLen]byte, hdrValid bool, pay [framesync.PayloadByteLen]byte, payValid bool, stats framesync.FrameStats, _ any) {
		decoded = true
		logger.Info("frame received",
			"valid", hdrValid && payValid,
			"rssi", stats.RSSI,
			"cfo", stats.CFO,
			"header", fmt.Sprintf("%x", hdr),
		)
	}

	rx := framesync.NewReceiverFromConfig(cfg, cb, nil)
	if *debugPath != "" {
		rx.EnableDebug()
	}

	rx.Execute(baseband)

	if *debugPath != "" {
		f, err := os.Create(*debugPath)
		if err != nil {
			logger.Fatal("creating debug output", "err", err)
		}
		defer f.Close()
		if err := rx.WriteDebugScript(io.Writer(f)); err != nil {
			logger.Fatal("writing debug trace", "err", err)
		}
	}

	if !decoded {
		logger.Warn("no frame detected")
		os.Exit(1)
	}
}
