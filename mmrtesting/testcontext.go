package mmrtesting

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"fmt"
	mathrand "math/rand"
	"testing"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/stretchr/testify/require"
)

type TestContext struct {
	Log  logger.Logger
	T    *testing.T
	Rand *mathrand.Rand
}

type TestConfig struct {
	// We seed the RNG of the provided StartTimeMS. It is normal to force it to
	// some fixed value so that the generated data is the same from run to run.
	StartTimeMS     int64
	TestLabelPrefix string
	// LogLevel defaults to NOOP, tests that want the range logging set INFO or DEBUG
	LogLevel string
}

// Words are the inputs of the worked example in the mmr package docs.
var Words = []string{"apple", "banana", "cherry", "kiwi", "lemon", "lime", "mango"}

func NewTestContext(t *testing.T, cfg TestConfig) TestContext {
	c := TestContext{
		T:    t,
		Rand: mathrand.New(mathrand.NewSource(cfg.StartTimeMS)),
	}
	level := cfg.LogLevel
	if level == "" {
		level = "NOOP"
	}
	logger.New(level)
	c.Log = logger.Sugar.WithServiceName(cfg.TestLabelPrefix)
	return c
}

func (c *TestContext) GetLog() logger.Logger { return c.Log }

// WordInputs returns Words as byte slices.
func (c *TestContext) WordInputs() [][]byte {
	inputs := make([][]byte, len(Words))
	for i, w := range Words {
		inputs[i] = []byte(w)
	}
	return inputs
}

// Inputs returns n distinct labelled inputs.
func (c *TestContext) Inputs(n int) [][]byte {
	inputs := make([][]byte, n)
	for i := range inputs {
		inputs[i] = []byte(fmt.Sprintf("input-%d", i))
	}
	return inputs
}

// RandomInputs returns n inputs of random bytes from the seeded generator.
func (c *TestContext) RandomInputs(n, size int) [][]byte {
	inputs := make([][]byte, n)
	for i := range inputs {
		inputs[i] = make([]byte, size)
		_, err := c.Rand.Read(inputs[i])
		require.NoError(c.T, err)
	}
	return inputs
}

func (c *TestContext) GenerateECKey(curve elliptic.Curve) *ecdsa.PrivateKey {
	key, err := ecdsa.GenerateKey(curve, rand.Reader)
	require.NoError(c.T, err)
	return key
}
