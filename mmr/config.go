package mmr

import (
	"github.com/forestrie/go-peakmerkle/digest"
	"github.com/forestrie/go-peakmerkle/peaks"
)

const (
	DefaultBranchFactor = 2
	DefaultPeakCount    = 16
)

type Config struct {
	BranchFactor uint64
	PeakCount    uint64
	// DigestName selects a registered digest provider. Empty means
	// digest.DefaultName.
	DigestName string
}

func DefaultConfig() Config {
	return Config{
		BranchFactor: DefaultBranchFactor,
		PeakCount:    DefaultPeakCount,
		DigestName:   digest.DefaultName,
	}
}

func (c Config) Peaks() peaks.Config {
	return peaks.Config{BranchFactor: c.BranchFactor, PeakCount: c.PeakCount}
}

// Validate checks the shape parameters and that the digest name resolves.
func (c Config) Validate() error {
	if err := c.Peaks().Validate(); err != nil {
		return err
	}
	_, err := c.Factory()
	return err
}

// Factory resolves DigestName to a digest provider.
func (c Config) Factory() (digest.Factory, error) {
	name := c.DigestName
	if name == "" {
		name = digest.DefaultName
	}
	return digest.Lookup(name)
}
