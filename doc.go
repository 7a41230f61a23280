// Package vfskit provides a virtual filesystem facade over heterogeneous
// storage backends, with a persistent root registry, debounced change
// notification, and an embedded recursive search engine.
//
// A [Dispatcher] routes scheme-tagged paths ("memory:///notes/a.txt",
// "native:///<rootId>/<name>/src/main.go") to the [Backend] registered for
// the scheme, normalizes every backend failure into the shared error
// taxonomy, and forwards all mutation events into a debounced [Batcher].
//
// # Backends
//
// Two backends ship with the module:
//
//   - In-memory (github.com/gobeaver/vfskit/driver/memory): self-contained,
//     byte-exact storage useful for scratch space and tests.
//   - Native (github.com/gobeaver/vfskit/driver/native): permission-gated,
//     handle-based access to host directories attached through the
//     [RootRegistry], durable across restarts.
//
// Any other storage engine can plug in by implementing [Backend]; the
// dispatcher, notification batching, and the search engine work purely
// through that contract.
//
// # Basic Usage
//
//	d := vfskit.NewDispatcher()
//	d.Register("memory", memory.New())
//
//	ctx := context.Background()
//
//	err := d.CreateDirectory(ctx, "memory:///notes")
//	err = d.WriteFile(ctx, "memory:///notes/a.txt", []byte("hello"),
//		vfskit.WithCreate(true), vfskit.WithOverwrite(true))
//	data, err := d.ReadFile(ctx, "memory:///notes/a.txt")
//
//	unsubscribe := d.SubscribeChanges(func(batch []vfskit.ChangeEvent) {
//		for _, ev := range batch {
//			fmt.Println(ev.Kind, ev.Path)
//		}
//	})
//	defer unsubscribe()
//
// # Searching
//
// The search engine in github.com/gobeaver/vfskit/search walks any source
// implementing its three-method read contract — *Dispatcher satisfies it —
// and offers fuzzy filename search plus streamed regex content search with
// binary detection and cooperative cancellation.
//
// # Consistency
//
// Multi-step operations are best-effort sequences of primitives, not
// transactions. Rename in particular is a copy followed by a delete; a
// failure in between leaves both paths populated. Callers needing stronger
// guarantees must build them on top.
package vfskit
