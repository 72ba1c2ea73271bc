package checkpoint

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/sha256"
	"testing"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/forestrie/go-peakmerkle/digest"
	"github.com/forestrie/go-peakmerkle/mmr"
	"github.com/forestrie/go-peakmerkle/mmrtesting"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veraison/go-cose"
)

const (
	testIssuer = "synsation.org"
	testKeyID  = "log attestation key 1"
)

type testSignerContext struct {
	mmrtesting.TestContext
	key      *ecdsa.PrivateKey
	signer   cose.Signer
	verifier cose.Verifier
	codec    Codec
}

func newTestSignerContext(t *testing.T) testSignerContext {
	tc := mmrtesting.NewTestContext(t, mmrtesting.TestConfig{
		StartTimeMS:     1698342521000,
		TestLabelPrefix: "TestCheckpoint",
	})
	c := testSignerContext{TestContext: tc}
	c.key = tc.GenerateECKey(elliptic.P256())

	var err error
	c.signer, err = cose.NewSigner(cose.AlgorithmES256, c.key)
	require.NoError(t, err)
	c.verifier, err = cose.NewVerifier(cose.AlgorithmES256, &c.key.PublicKey)
	require.NoError(t, err)
	c.codec, err = NewCodec()
	require.NoError(t, err)
	return c
}

func (c testSignerContext) newRange(b, p uint64, n int) (*mmr.Range, [][]byte) {
	r, err := mmr.New(mmr.Config{BranchFactor: b, PeakCount: p}, c.Log)
	require.NoError(c.T, err)
	inputs := c.Inputs(n)
	for _, input := range inputs {
		require.NoError(c.T, r.TryAppend(input))
	}
	return r, inputs
}

func TestSigner_Sign1(t *testing.T) {
	c := newTestSignerContext(t)
	defer logger.OnExit()

	tests := []struct {
		name     string
		b, p     uint64
		n        int
		external []byte
	}{
		{"binary", 2, 5, 7, nil},
		{"quaternary", 4, 3, 21, nil},
		{"external data", 2, 4, 3, []byte("aad")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logID := uuid.New()
			r, _ := c.newRange(tt.b, tt.p, tt.n)
			s := NewSigner(c.Log, testIssuer, c.codec)

			state := StateFromRange(r, logID)
			data, err := s.Sign1(c.signer, testKeyID, Subject(logID), state, tt.external)
			require.NoError(t, err)

			signed, unverified, err := DecodeSignedState(c.codec, data)
			require.NoError(t, err)
			assert.Nil(t, unverified.Root)
			assert.Equal(t, uint64(tt.n), unverified.LeafCount)
			assert.Equal(t, r.PeakLens(), unverified.PeakLens)
			got, err := unverified.LogUUID()
			require.NoError(t, err)
			assert.Equal(t, logID, got)

			// verification is impossible without the root
			err = VerifySignedState(c.codec, c.verifier, signed, unverified, tt.external)
			assert.ErrorIs(t, err, ErrStateRootMissing)

			// a wrong root does not verify
			unverified.Root = make([]byte, 32)
			err = VerifySignedState(c.codec, c.verifier, signed, unverified, tt.external)
			assert.Error(t, err)

			root := r.Root()
			unverified.Root = root[:]
			err = VerifySignedState(c.codec, c.verifier, signed, unverified, tt.external)
			assert.NoError(t, err)

			claims, ok := signed.Headers.Protected[HeaderLabelCWTClaims]
			require.True(t, ok)
			assert.NotNil(t, claims)
		})
	}
}

func TestSigner_Sign1RequiresRoot(t *testing.T) {
	c := newTestSignerContext(t)
	defer logger.OnExit()

	s := NewSigner(c.Log, testIssuer, c.codec)
	_, err := s.Sign1(c.signer, testKeyID, "subject", RangeState{LeafCount: 1}, nil)
	assert.ErrorIs(t, err, ErrStateRootMissing)
}

func TestVerifyAgainstRange(t *testing.T) {
	c := newTestSignerContext(t)
	defer logger.OnExit()

	logID := uuid.New()
	r, _ := c.newRange(2, 5, 6)
	s := NewSigner(c.Log, testIssuer, c.codec)
	data, err := s.Sign1(c.signer, testKeyID, Subject(logID), StateFromRange(r, logID), nil)
	require.NoError(t, err)

	signed, unverified, err := DecodeSignedState(c.codec, data)
	require.NoError(t, err)
	require.NoError(t, VerifyAgainstRange(c.codec, c.verifier, signed, unverified, r))

	// the range has moved on, the checkpoint no longer describes it
	require.NoError(t, r.TryAppend([]byte("later")))
	err = VerifyAgainstRange(c.codec, c.verifier, signed, unverified, r)
	assert.ErrorIs(t, err, ErrStateMismatch)

	// same shape and length, different leaves
	mutated, err := mmr.New(mmr.Config{BranchFactor: 2, PeakCount: 5}, c.Log)
	require.NoError(t, err)
	for _, input := range c.RandomInputs(6, 8) {
		require.NoError(t, mutated.TryAppend(input))
	}
	require.NoError(t, unverified.Describes(mutated))
	err = VerifyAgainstRange(c.codec, c.verifier, signed, unverified, mutated)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrStateMismatch)

	wide, _ := c.newRange(4, 5, 6)
	assert.ErrorIs(t, unverified.Describes(wide), ErrStateMismatch)
}

func TestCodecProofRoundTrip(t *testing.T) {
	c := newTestSignerContext(t)
	defer logger.OnExit()

	r, inputs := c.newRange(4, 3, 11)
	proof, err := r.GenerateProof(9)
	require.NoError(t, err)

	data, err := c.codec.EncodeProof(proof)
	require.NoError(t, err)
	decoded, err := c.codec.DecodeProof(data)
	require.NoError(t, err)

	assert.Equal(t, proof, decoded)
	assert.True(t, decoded.Validate(sha256.New(), inputs[9]))

	again, err := c.codec.EncodeProof(decoded)
	require.NoError(t, err)
	assert.Equal(t, data, again)

	_, err = c.codec.DecodeProof([]byte{0xff})
	assert.Error(t, err)
}

// wireProof mirrors merkle.Proof with unsized byte strings, so malformed
// digests can be put on the wire.
type wireProof struct {
	Items []wireProofItem `cbor:"1,keyasint"`
	Root  []byte          `cbor:"2,keyasint"`
}

type wireProofItem struct {
	Offset   uint64   `cbor:"1,keyasint"`
	Siblings [][]byte `cbor:"2,keyasint"`
	Prefix   []byte   `cbor:"3,keyasint"`
}

func TestCodecDecodeProofRejectsBadDigests(t *testing.T) {
	c := newTestSignerContext(t)
	defer logger.OnExit()

	good := make([]byte, digest.HashBytes)
	item := func(siblings ...[]byte) wireProofItem {
		return wireProofItem{Offset: 1, Siblings: siblings, Prefix: good}
	}

	tests := []struct {
		name  string
		proof wireProof
	}{
		{"short root", wireProof{Items: []wireProofItem{item(good)}, Root: []byte{0x01}}},
		{"empty root", wireProof{Items: []wireProofItem{item(good)}, Root: []byte{}}},
		{"long sibling", wireProof{Items: []wireProofItem{item(good, make([]byte, 40))}, Root: good}},
		{"short prefix", wireProof{
			Items: []wireProofItem{{Offset: 0, Siblings: [][]byte{good}, Prefix: good[:16]}}, Root: good}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := c.codec.MarshalCBOR(tt.proof)
			require.NoError(t, err)
			_, err = c.codec.DecodeProof(data)
			assert.ErrorIs(t, err, digest.ErrBadHashSize)
		})
	}

	data, err := c.codec.MarshalCBOR(wireProof{Items: []wireProofItem{item(good)}, Root: good})
	require.NoError(t, err)
	_, err = c.codec.DecodeProof(data)
	assert.NoError(t, err)
}

func TestCodecDecodeProofRejectsDuplicateKeys(t *testing.T) {
	c := newTestSignerContext(t)
	defer logger.OnExit()

	root := make([]byte, digest.HashBytes)
	rootBytes, err := c.codec.MarshalCBOR(root)
	require.NoError(t, err)

	// {2: root, 2: root}
	data := append([]byte{0xa2, 0x02}, rootBytes...)
	data = append(data, 0x02)
	data = append(data, rootBytes...)
	_, err = c.codec.DecodeProof(data)
	assert.Error(t, err)
}
