package checkpoint

import (
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

func TestBuildReceipt(t *testing.T) {
	c := newTestSignerContext(t)
	defer logger.OnExit()

	subject := Subject(uuid.New())
	rb := NewReceiptBuilder(c.Log, NewSigner(c.Log, testIssuer, c.codec))

	tests := []struct {
		name string
		b, p uint64
		n    int
	}{
		{"seven leaves", 2, 5, len(mmrtesting.Words)},
		{"quaternary", 4, 3, 30},
		{"single peak", 8, 1, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, inputs := c.newRange(tt.b, tt.p, tt.n)
			for k, input := range inputs {
				data, err := rb.BuildReceipt(c.signer, testKeyID, subject, r, uint64(k))
				require.NoError(t, err)

				root, err := VerifyReceipt(c.verifier, sha256.New, data, input)
				require.NoError(t, err, "leaf %d", k)
				assert.Equal(t, r.Root(), root)

				_, err = VerifyReceipt(c.verifier, sha256.New, data, []byte("not the leaf"))
				assert.ErrorIs(t, err, ErrReceiptVerifyFailed)
			}
		})
	}
}

func TestBuildReceiptMultipleProofs(t *testing.T) {
	c := newTestSignerContext(t)
	defer logger.OnExit()

	rb := NewReceiptBuilder(c.Log, NewSigner(c.Log, testIssuer, c.codec))
	r, inputs := c.newRange(2, 5, 13)
	s := mmr.NewSyncRange(r)

	data, err := rb.BuildReceipt(c.signer, testKeyID, "subject", s, 0, 5, 12)
	require.NoError(t, err)

	_, proofs, err := DecodeReceipt(data)
	require.NoError(t, err)
	require.Len(t, proofs.InclusionProofs, 3)
	assert.Equal(t, uint64(5), proofs.InclusionProofs[1].Index)

	root, err := VerifyReceipt(c.verifier, sha256.New, data, inputs[0], inputs[5], inputs[12])
	require.NoError(t, err)
	assert.Equal(t, s.Root(), root)

	// fewer candidates than proofs is permitted
	_, err = VerifyReceipt(c.verifier, sha256.New, data, inputs[0])
	assert.NoError(t, err)

	// candidates must line up with the proofs
	_, err = VerifyReceipt(c.verifier, sha256.New, data, inputs[0], inputs[12], inputs[5])
	assert.ErrorIs(t, err, ErrReceiptVerifyFailed)

	_, err = VerifyReceipt(c.verifier, sha256.New, data, inputs[0], inputs[5], inputs[12], inputs[1])
	assert.ErrorIs(t, err, ErrTooManyCandidates)

	_, err = VerifyReceipt(c.verifier, sha256.New, data)
	assert.ErrorIs(t, err, ErrNoCandidates)
}

func TestBuildReceiptErrors(t *testing.T) {
	c := newTestSignerContext(t)
	defer logger.OnExit()

	rb := NewReceiptBuilder(c.Log, NewSigner(c.Log, testIssuer, c.codec))
	r, _ := c.newRange(2, 3, 3)

	_, err := rb.BuildReceipt(c.signer, testKeyID, "subject", r)
	assert.ErrorIs(t, err, ErrReceiptMalformed)

	_, err = rb.BuildReceipt(c.signer, testKeyID, "subject", r, 3)
	assert.ErrorIs(t, err, mmr.ErrIndexOutOfRange)
}

func TestVerifyReceiptWrongKey(t *testing.T) {
	c := newTestSignerContext(t)
	defer logger.OnExit()

	rb := NewReceiptBuilder(c.Log, NewSigner(c.Log, testIssuer, c.codec))
	r, inputs := c.newRange(2, 3, 5)
	data, err := rb.BuildReceipt(c.signer, testKeyID, "subject", r, 2)
	require.NoError(t, err)

	other := c.GenerateECKey(elliptic.P256())
	verifier, err := cose.NewVerifier(cose.AlgorithmES256, &other.PublicKey)
	require.NoError(t, err)

	_, err = VerifyReceipt(verifier, sha256.New, data, inputs[2])
	assert.ErrorIs(t, err, ErrReceiptVerifyFailed)

	keccak, err := digest.Lookup(digest.Keccak256)
	require.NoError(t, err)
	_, err = VerifyReceipt(c.verifier, keccak, data, inputs[2])
	assert.ErrorIs(t, err, ErrReceiptVerifyFailed)
}

func TestDecodeReceiptMalformed(t *testing.T) {
	c := newTestSignerContext(t)
	defer logger.OnExit()

	// a signed checkpoint is a COSE_Sign1 without receipt proofs
	logID := uuid.New()
	r, _ := c.newRange(2, 3, 2)
	data, err := NewSigner(c.Log, testIssuer, c.codec).Sign1(
		c.signer, testKeyID, Subject(logID), StateFromRange(r, logID), nil)
	require.NoError(t, err)

	_, _, err = DecodeReceipt(data)
	assert.ErrorIs(t, err, ErrReceiptMalformed)

	_, _, err = DecodeReceipt([]byte("not cbor"))
	assert.Error(t, err)
}
