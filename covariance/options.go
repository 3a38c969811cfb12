package covariance

import "log/slog"

type options struct {
	logger *slog.Logger
}

// Option configures Build and Invert.
type Option func(*options)

// WithLogger sets the logger used for warnings about dropped tags and
// ill-conditioned multipoles.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger: slog.New(slog.DiscardHandler),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
