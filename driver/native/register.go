package native

import "github.com/gobeaver/vfskit"

func init() {
	vfskit.RegisterDriver("native", func(cfg *vfskit.Config) (vfskit.Backend, error) {
		registry, err := vfskit.OpenRootRegistry(cfg.RegistryPath)
		if err != nil {
			return nil, err
		}
		var prompter Prompter = DenyAll{}
		if cfg.NativeAutoGrant {
			prompter = AutoGrant{}
		}
		return New(Config{
			Registry:       registry,
			Prompter:       prompter,
			DebounceWindow: cfg.DebounceWindow(),
			Watch:          true,
		})
	})
}
