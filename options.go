package vfskit

// Option configures a single backend operation.
type Option func(*Options)

// Options holds the resolved flags for a backend operation. All flags
// default to false.
type Options struct {
	// Create allows WriteFile to bring a new entry into existence.
	Create bool

	// Overwrite allows WriteFile and Rename to replace an existing entry.
	Overwrite bool

	// Recursive allows Delete to remove a directory together with its
	// contents.
	Recursive bool
}

// WithCreate sets whether a write may create a missing entry.
func WithCreate(create bool) Option {
	return func(o *Options) {
		o.Create = create
	}
}

// WithOverwrite sets whether an existing entry may be replaced.
func WithOverwrite(overwrite bool) Option {
	return func(o *Options) {
		o.Overwrite = overwrite
	}
}

// WithRecursive sets whether a delete descends into directories.
func WithRecursive(recursive bool) Option {
	return func(o *Options) {
		o.Recursive = recursive
	}
}

// ApplyOptions resolves a list of options into an Options struct.
// Drivers call this at the top of each operation.
func ApplyOptions(options ...Option) *Options {
	opts := &Options{}
	for _, option := range options {
		option(opts)
	}
	return opts
}
