package ipc

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)

	want := []Event{
		{Kind: KindLiveness, Device: "/dev/sdb1", Pid: 123},
		{Kind: KindTest, Device: "/dev/sdb1", Pid: 123, Latency: 0.05},
		{Kind: KindExitRequest, Device: "/dev/sdb1", Pid: 123, Detail: "EXIT from node-b"},
	}
	for _, ev := range want {
		assert.NoError(t, enc.Encode(ev))
	}

	dec := NewDecoder(&buf)
	for i, w := range want {
		got, err := dec.Next()
		assert.NoError(t, err, "event %d", i)
		assert.Equal(t, w.Kind, got.Kind)
		assert.Equal(t, w.Device, got.Device)
		assert.Equal(t, w.Pid, got.Pid)
	}

	_, err := dec.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestDecoderSurvivesMultipleEventsPerFlush(t *testing.T) {
	// Two liveness events in a row must both be observed — this is the
	// exact coalescing failure mode the JSON-lines framing exists to
	// avoid (see package doc).
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	assert.NoError(t, enc.Encode(Event{Kind: KindLiveness, Device: "/dev/sdb1", Pid: 1}))
	assert.NoError(t, enc.Encode(Event{Kind: KindLiveness, Device: "/dev/sdb1", Pid: 1}))

	dec := NewDecoder(&buf)
	first, err := dec.Next()
	assert.NoError(t, err)
	second, err := dec.Next()
	assert.NoError(t, err)
	assert.Equal(t, KindLiveness, first.Kind)
	assert.Equal(t, KindLiveness, second.Kind)
}
