package tui

import "go.uber.org/zap"

// Theme captures optional prefixes the host applies when printing
// messages. Keep minimal to avoid coupling host logic to ANSI specifics.
type Theme struct {
	PromptPrefix string
	InfoPrefix   string
	ErrorPrefix  string
}

// DefaultTheme is used when no theme is configured.
var DefaultTheme = Theme{InfoPrefix: "", ErrorPrefix: "! "}

const defaultMaxAttempts = 3

// Option configures the terminal host.
type Option func(*Host)

// WithPromptDriver overrides the prompt driver used by the host.
func WithPromptDriver(driver PromptDriver) Option {
	return func(h *Host) {
		if driver != nil {
			h.driver = driver
		}
	}
}

// WithTheme applies optional message prefixes.
func WithTheme(theme Theme) Option {
	return func(h *Host) {
		h.theme = theme
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(h *Host) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithMaxAttempts bounds how many times a failed submission is offered
// again before Fill gives up.
func WithMaxAttempts(n int) Option {
	return func(h *Host) {
		if n > 0 {
			h.maxAttempts = n
		}
	}
}
