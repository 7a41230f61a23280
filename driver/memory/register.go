package memory

import "github.com/gobeaver/vfskit"

func init() {
	vfskit.RegisterDriver("memory", func(cfg *vfskit.Config) (vfskit.Backend, error) {
		return New(Config{
			MaxSize:        cfg.MemoryMaxSize,
			DebounceWindow: cfg.DebounceWindow(),
		}), nil
	})
}
