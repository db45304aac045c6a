package framesync

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebugTraceNoOpWhenNeverEnabled(t *testing.T) {
	d := NewDebugTrace()
	var buf bytes.Buffer
	err := d.WriteScript(&buf, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, buf.String())
}

func TestDebugTraceWritesAfterEnable(t *testing.T) {
	d := NewDebugTrace()
	d.Enable()
	d.Push(complex(1, 2))
	d.Push(complex(3, 4))

	var buf bytes.Buffer
	require.NoError(t, d.WriteScript(&buf, []complex64{1}, []complex64{2}))
	out := buf.String()
	assert.Contains(t, out, "raw_samples")
	assert.Contains(t, out, "pn_reference")
	assert.Contains(t, out, "rx_preamble")
	assert.Contains(t, out, "rx_payload")
	assert.Contains(t, out, "raw_psd")
}

func TestDebugTraceStillWritesAfterDisable(t *testing.T) {
	d := NewDebugTrace()
	d.Enable()
	d.Push(1)
	d.Disable()

	var buf bytes.Buffer
	require.NoError(t, d.WriteScript(&buf, nil, nil))
	assert.NotEmpty(t, buf.String())
}

func TestDebugTraceRingWraps(t *testing.T) {
	d := NewDebugTrace()
	d.Enable()
	for i := 0; i < DebugRingLen+10; i++ {
		d.Push(complex(float32(i), 0))
	}
	ordered := d.ordered()
	require.Len(t, ordered, DebugRingLen)
	assert.Equal(t, complex64(complex(float32(10), 0)), ordered[0])
}

func TestDebugTracePushIgnoredWhenDisabled(t *testing.T) {
	d := NewDebugTrace()
	d.Push(1)
	assert.Equal(t, complex64(0), d.ring[0])
}

func TestDebugTraceWriteFile(t *testing.T) {
	d := NewDebugTrace()
	d.Enable()
	d.Push(1)

	path := t.TempDir() + "/trace.m"
	require.NoError(t, d.WriteFile(path, nil, nil))

	f, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(f), "raw_samples"))
}
