package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPartialTranscriptSetAndClear(t *testing.T) {
	p := NewPartialTranscript()
	assert.Empty(t, p.Text())

	p.Set("bir cola istiyorum")
	assert.Equal(t, "bir cola istiyorum", p.Text())
	assert.False(t, p.UpdatedAt().IsZero())

	p.Clear()
	assert.Empty(t, p.Text())
	assert.True(t, p.UpdatedAt().IsZero())
}

func TestSequencerAdmitsInOrder(t *testing.T) {
	s := newSequencer()
	a := s.Begin()
	b := s.Begin()

	assert.True(t, s.Admit(a))
	assert.True(t, s.Admit(b))
}

func TestSequencerDropsStaleResult(t *testing.T) {
	s := newSequencer()
	a := s.Begin()
	b := s.Begin()

	assert.True(t, s.Admit(b))
	assert.False(t, s.Admit(a), "a stale result issued before b must be rejected once b has landed")
}

func TestSequencerAdmitSameSeqTwiceIsAccepted(t *testing.T) {
	s := newSequencer()
	a := s.Begin()

	assert.True(t, s.Admit(a))
	// admitting the watermark's own value again is not < latestSeq, so it
	// is accepted; the scheduler never calls Admit twice for one seq in
	// practice, but the sequencer itself does not need to guard against it.
	assert.True(t, s.Admit(a))
}
