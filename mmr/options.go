package mmr

import "github.com/forestrie/go-peakmerkle/digest"

type RangeOptions struct {
	// NewHasher, when set, takes precedence over Config.DigestName
	NewHasher digest.Factory
}

// Option is a generic option type. Implementations type assert to their
// options target record and ignore options that do not apply to them.
type Option func(any)

func WithHasherFactory(newHasher digest.Factory) Option {
	return func(opts any) {
		if o, ok := opts.(*RangeOptions); ok {
			o.NewHasher = newHasher
		}
	}
}
