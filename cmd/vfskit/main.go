// Command vfskit mounts the in-memory and native backends behind a
// dispatcher, attaches configured roots, and runs filename or content
// searches over them. It is a thin caller over the library; all semantics
// live in the packages it wires together.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/gobeaver/vfskit"
	"github.com/gobeaver/vfskit/driver/memory"
	"github.com/gobeaver/vfskit/driver/native"
	"github.com/gobeaver/vfskit/search"
)

// rootsFile is the optional YAML file listing native directories to attach
// at startup.
type rootsFile struct {
	Roots []string `yaml:"roots"`
}

func main() {
	var (
		rootsPath   string
		filePattern string
		textPattern string
		isRegex     bool
		caseMatch   bool
		wordMatch   bool
		watch       bool
	)
	flag.StringVar(&rootsPath, "roots", "", "YAML file listing native directories to attach")
	flag.StringVar(&filePattern, "files", "", "fuzzy filename pattern to search for")
	flag.StringVar(&textPattern, "text", "", "content pattern to search for")
	flag.BoolVar(&isRegex, "regex", false, "treat -text as a regular expression")
	flag.BoolVar(&caseMatch, "case", false, "match -text case-sensitively")
	flag.BoolVar(&wordMatch, "word", false, "match -text on word boundaries")
	flag.BoolVar(&watch, "watch", false, "stay running and print batched change events")
	flag.Parse()

	cfg, err := vfskit.GetConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	vfskit.SetupLogging(cfg.LogLevel)

	registry, err := vfskit.OpenRootRegistry(cfg.RegistryPath)
	if err != nil {
		log.Fatal().Err(err).Msg("open root registry")
	}
	defer registry.Close()

	nativeDriver, err := native.New(native.Config{
		Registry:       registry,
		Prompter:       native.AutoGrant{},
		DebounceWindow: cfg.DebounceWindow(),
		Watch:          watch,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("create native driver")
	}
	defer nativeDriver.Close()

	if rootsPath != "" {
		attachRoots(nativeDriver, rootsPath)
	}

	d := vfskit.NewDispatcher(vfskit.WithDebounceWindow(cfg.DebounceWindow()))
	defer d.Close()
	if err := d.Register("memory", memory.New(memory.Config{MaxSize: cfg.MemoryMaxSize})); err != nil {
		log.Fatal().Err(err).Msg("register memory backend")
	}
	if err := d.Register("native", nativeDriver); err != nil {
		log.Fatal().Err(err).Msg("register native backend")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := search.NewEngine(d, search.WithConcurrency(cfg.SearchConcurrency))

	if filePattern != "" {
		for _, root := range nativeRoots(registry) {
			results, err := engine.FileSearch(ctx, search.FileQuery{Pattern: filePattern}, root)
			if err != nil {
				log.Error().Err(err).Str("root", root).Msg("file search failed")
				continue
			}
			for _, path := range results {
				fmt.Println(path)
			}
		}
	}

	if textPattern != "" {
		q := search.TextQuery{
			Pattern:         textPattern,
			IsRegex:         isRegex,
			IsCaseSensitive: caseMatch,
			IsWordMatch:     wordMatch,
		}
		for _, root := range nativeRoots(registry) {
			err := engine.TextSearch(ctx, q, root, func(m search.Match) {
				fmt.Printf("%s:%d:%d: %s\n", m.Path, m.Line, m.Column[0], m.Preview)
			})
			if err != nil {
				log.Error().Err(err).Str("root", root).Msg("text search failed")
			}
		}
	}

	if watch {
		unsubscribe := d.SubscribeChanges(func(batch []vfskit.ChangeEvent) {
			for _, ev := range batch {
				fmt.Printf("%s %s\n", ev.Kind, ev.Path)
			}
		})
		defer unsubscribe()
		<-ctx.Done()
	}
}

// attachRoots attaches every directory listed in the YAML roots file.
func attachRoots(d *native.Driver, path string) {
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("read roots file")
	}
	var rf rootsFile
	if err := yaml.Unmarshal(raw, &rf); err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("parse roots file")
	}
	for _, dir := range rf.Roots {
		rootPath, err := d.Attach(dir)
		if err != nil {
			log.Error().Err(err).Str("dir", dir).Msg("attach root")
			continue
		}
		log.Info().Str("dir", dir).Str("root", rootPath).Msg("attached root")
	}
}

// nativeRoots returns the scheme-tagged search roots for every attached
// native root.
func nativeRoots(registry *vfskit.RootRegistry) []string {
	var roots []string
	for _, rootPath := range registry.ListRoots() {
		roots = append(roots, vfskit.URI{Scheme: "native", Path: rootPath}.String())
	}
	return roots
}
