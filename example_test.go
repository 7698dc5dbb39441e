package segstore_test

import (
	"context"
	"fmt"
	"log"

	segstore "github.com/Spiritus2424/segstore"
	"github.com/Spiritus2424/segstore/segment"
)

func Example() {
	ctx := context.Background()

	store, err := segstore.Tree[string]().Build()
	if err != nil {
		log.Fatal(err)
	}
	defer store.Dispose()

	_ = store.Add(ctx, segstore.MustSegment(1, 5, "syscall"))
	_ = store.Add(ctx, segstore.MustSegment(10, 12, "irq"))
	_ = store.Add(ctx, segstore.MustSegment(4, 4, "marker"))
	_ = store.Add(ctx, segstore.MustSegment(0, 20, "span"))

	if err := store.Finalize(ctx); err != nil {
		log.Fatal(err)
	}

	view, err := store.SortedIntersecting(ctx, 4, segment.ByStart[string]())
	if err != nil {
		log.Fatal(err)
	}
	for seg := range view.Iter() {
		fmt.Printf("[%d, %d] %s\n", seg.Start, seg.End, seg.Payload)
	}
	// Output:
	// [0, 20] span
	// [1, 5] syscall
	// [4, 4] marker
}

func ExampleOpen() {
	ctx := context.Background()
	path := "/tmp/segstore-example/trace.seg"

	store, err := segstore.Sorted[string]().Snapshot(path).Build()
	if err != nil {
		log.Fatal(err)
	}
	_ = store.Add(ctx, segstore.MustSegment(3, 9, "write"))
	if err := store.Close(ctx, true); err != nil {
		log.Fatal(err)
	}

	reopened, err := segstore.Open[string](ctx, path)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = reopened.Close(ctx, false) }()

	fmt.Println(reopened.Len())
	// Output:
	// 1
}
