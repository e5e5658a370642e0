package render

import (
	"sync"
	"testing"
)

func TestCacheKey(t *testing.T) {
	base := DefaultOptions()

	variants := map[string]Options{
		"width":       base.WithWidth(100),
		"style":       base.WithStyle(ThemeLight),
		"emoji":       base.WithEmoji(false),
		"newlines":    base.WithPreserveNewLines(false),
		"table wrap":  base.WithTableWrap(false),
		"table links": base.WithInlineTableLinks(true),
	}
	for name, opts := range variants {
		if cacheKey(opts) == cacheKey(base) {
			t.Errorf("%s: different options should produce different keys", name)
		}
	}

	if cacheKey(base) != cacheKey(DefaultOptions()) {
		t.Error("Same options should produce same key")
	}
	if cacheKey(base) != cacheKey(base.WithRaw(true)) {
		t.Error("Raw never reaches glamour and should not split the pool")
	}
}

func TestPoolReusesRenderersPerOptions(t *testing.T) {
	ClearCache()
	defer ClearCache()

	narrow := DefaultOptions().WithWidth(60)
	wide := DefaultOptions().WithWidth(120)

	first, err := globalPool.get(narrow)
	if err != nil || first == nil {
		t.Fatalf("get(narrow) = %v, %v", first, err)
	}
	globalPool.put(narrow, first)

	again, err := globalPool.get(narrow)
	if err != nil || again == nil {
		t.Fatalf("second get(narrow) = %v, %v", again, err)
	}
	if CacheSize() != 1 {
		t.Errorf("expected pool count 1, got %d", CacheSize())
	}

	other, err := globalPool.get(wide)
	if err != nil || other == nil {
		t.Fatalf("get(wide) = %v, %v", other, err)
	}
	if CacheSize() != 2 {
		t.Errorf("expected pool count 2, got %d", CacheSize())
	}

	globalPool.put(narrow, again)
	globalPool.put(wide, other)
}

func TestPoolConcurrentReplies(t *testing.T) {
	ClearCache()
	defer ClearCache()

	opts := DefaultOptions()
	var wg sync.WaitGroup
	errs := make(chan error, 64)

	// Replies render on bubbletea command goroutines.
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := Markdown("Exposure is **stable**.", opts); err != nil {
				errs <- err
			}
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent render error: %v", err)
	}
	if CacheSize() != 1 {
		t.Errorf("expected pool count 1 after concurrent access, got %d", CacheSize())
	}
}

func TestRawSkipsPool(t *testing.T) {
	ClearCache()
	defer ClearCache()

	if _, err := Markdown("plain", DefaultOptions().WithRaw(true)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if CacheSize() != 0 {
		t.Errorf("raw output should not create a renderer, pool count %d", CacheSize())
	}
}

func TestClearCache(t *testing.T) {
	ClearCache()

	if _, err := Markdown("# Risk", DefaultOptions()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if CacheSize() != 1 {
		t.Errorf("expected pool count 1, got %d", CacheSize())
	}

	ClearCache()
	if CacheSize() != 0 {
		t.Errorf("expected pool count 0 after clear, got %d", CacheSize())
	}
}

func TestCreateRendererStyles(t *testing.T) {
	for _, style := range []string{ThemeDark, ThemeNoTTY, "invalid_style_path", "missing.json", ""} {
		renderer, err := createRenderer(DefaultOptions().WithStyle(style))
		if err != nil {
			t.Fatalf("style %q: unexpected error: %v", style, err)
		}
		out, err := renderer.Render("# Risk report")
		if err != nil {
			t.Errorf("style %q: render error: %v", style, err)
		}
		if out == "" {
			t.Errorf("style %q: expected non-empty output", style)
		}
	}
}
