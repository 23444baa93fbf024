package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord() *Record {
	return &Record{
		ID:    7,
		Flags: FlagCommitted,
		Ops: []Op{
			{Offset: 0, Payload: []byte("ABCDE"), PreImage: []byte("xy")},
			{Offset: 100, Payload: []byte("hello world"), PreImage: nil},
		},
	}
}

func TestRoundTrip(t *testing.T) {
	r := sampleRecord()
	enc := Encode(r)
	require.True(t, Verify(enc))

	dec, err := Decode(enc)
	require.NoError(t, err)
	assert.Equal(t, r.ID, dec.ID)
	assert.Equal(t, r.Flags, dec.Flags)
	require.Len(t, dec.Ops, len(r.Ops))
	for i := range r.Ops {
		assert.Equal(t, r.Ops[i].Offset, dec.Ops[i].Offset)
		assert.Equal(t, r.Ops[i].Payload, dec.Ops[i].Payload)
		assert.Equal(t, r.Ops[i].PreImage, dec.Ops[i].PreImage)
	}
}

func TestEncodedLenMatchesActualLength(t *testing.T) {
	r := sampleRecord()
	assert.EqualValues(t, EncodedLen(r), len(Encode(r)))
}

func TestDecodeRejectsShortHeader(t *testing.T) {
	_, err := Decode(make([]byte, HeaderSize-1))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDecodeRejectsTruncatedOpHeader(t *testing.T) {
	r := sampleRecord()
	enc := Encode(r)
	truncated := enc[:HeaderSize+OpHeaderSize-1]
	_, err := Decode(truncated)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDecodeRejectsPayloadPastEnd(t *testing.T) {
	r := &Record{ID: 1, Ops: []Op{{Offset: 0, Payload: []byte("ABCDE")}}}
	enc := Encode(r)
	// Truncate mid-payload.
	truncated := enc[:HeaderSize+OpHeaderSize+2]
	_, err := Decode(truncated)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestVerifyDetectsCorruption(t *testing.T) {
	r := sampleRecord()
	enc := Encode(r)
	enc[0] ^= 0xFF // flip a bit in the ID field, before the checksum
	assert.False(t, Verify(enc))
}

func TestZeroOpRecordEncodesToHeaderPlusTrailer(t *testing.T) {
	r := &Record{ID: 1}
	enc := Encode(r)
	assert.Len(t, enc, HeaderSize+TrailerSize)
	dec, err := Decode(enc)
	require.NoError(t, err)
	assert.Empty(t, dec.Ops)
}

func TestChecksumAgreesOnEquivalentBuffers(t *testing.T) {
	a := []byte{1, 2, 3, 4, 5}
	b := append([]byte{}, a...)
	assert.Equal(t, Checksum(a), Checksum(b))
}
