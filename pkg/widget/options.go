package widget

import (
	"time"

	"go.uber.org/zap"
)

const defaultTimeout = 15 * time.Second

// Option customises a Widget.
type Option func(*Widget)

// WithLogger attaches a zap logger. Widgets log transitions at debug level
// and network failures at info.
func WithLogger(logger *zap.Logger) Option {
	return func(w *Widget) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithObserver registers the callback that receives every transition.
func WithObserver(observer Observer) Option {
	return func(w *Widget) {
		w.observer = observer
	}
}

// WithRequestTimeout bounds each network operation. Zero keeps the default.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(w *Widget) {
		if timeout > 0 {
			w.timeout = timeout
		}
	}
}
