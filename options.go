package ragops

// Options contains configuration for a single provider request.
type Options struct {
	Model       string
	Tools       []ToolSpec
	Temperature *float64
	TopP        *float64
	MaxTokens   int
}

// Option is a functional option for configuring provider requests.
type Option func(*Options)

// WithModel sets the model to use for the request.
func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// WithTools declares the tools the model may call during the request.
func WithTools(tools []ToolSpec) Option {
	return func(o *Options) {
		o.Tools = tools
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(o *Options) {
		o.Temperature = &t
	}
}

// WithTopP sets the nucleus sampling parameter.
func WithTopP(p float64) Option {
	return func(o *Options) {
		o.TopP = &p
	}
}

// WithMaxTokens sets the maximum number of tokens to generate.
func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

// ApplyOptions applies functional options to a fresh Options struct.
func ApplyOptions(opts ...Option) *Options {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
