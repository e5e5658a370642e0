package render

import (
	"sync"

	"github.com/charmbracelet/glamour"
)

// rendererKey identifies the glamour settings a renderer was built with.
// Raw is left out: raw prose never reaches glamour.
type rendererKey struct {
	style            string
	width            int
	emoji            bool
	preserveNewLines bool
	tableWrap        bool
	inlineTableLinks bool
}

func cacheKey(opts Options) rendererKey {
	return rendererKey{
		style:            opts.Style,
		width:            opts.Width,
		emoji:            opts.EnableEmoji,
		preserveNewLines: opts.PreserveNewLines,
		tableWrap:        opts.TableWrap,
		inlineTableLinks: opts.InlineTableLinks,
	}
}

// rendererPool lends out glamour renderers per key. A TermRenderer must not
// render from two goroutines at once, so callers borrow one and return it.
type rendererPool struct {
	mu    sync.Mutex
	pools map[rendererKey]*sync.Pool
}

var globalPool = newRendererPool()

func newRendererPool() *rendererPool {
	return &rendererPool{pools: make(map[rendererKey]*sync.Pool)}
}

func (p *rendererPool) poolFor(opts Options) *sync.Pool {
	key := cacheKey(opts)

	p.mu.Lock()
	defer p.mu.Unlock()
	pool, ok := p.pools[key]
	if !ok {
		pool = &sync.Pool{}
		p.pools[key] = pool
	}
	return pool
}

// get borrows a renderer for opts, building one when none is idle
func (p *rendererPool) get(opts Options) (*glamour.TermRenderer, error) {
	if r, ok := p.poolFor(opts).Get().(*glamour.TermRenderer); ok {
		return r, nil
	}
	return createRenderer(opts)
}

func (p *rendererPool) put(opts Options, r *glamour.TermRenderer) {
	if r != nil {
		p.poolFor(opts).Put(r)
	}
}

func (p *rendererPool) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pools = make(map[rendererKey]*sync.Pool)
}

func (p *rendererPool) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pools)
}

// createRenderer builds a TermRenderer for assistant prose
func createRenderer(opts Options) (*glamour.TermRenderer, error) {
	glamourOpts := []glamour.TermRendererOption{
		styleOption(opts.Style),
		glamour.WithWordWrap(opts.Width),
		glamour.WithTableWrap(opts.TableWrap),
		glamour.WithInlineTableLinks(opts.InlineTableLinks),
	}
	if opts.EnableEmoji {
		glamourOpts = append(glamourOpts, glamour.WithEmoji())
	}
	if opts.PreserveNewLines {
		glamourOpts = append(glamourOpts, glamour.WithPreservedNewLines())
	}
	return glamour.NewTermRenderer(glamourOpts...)
}

// ClearCache drops every pooled renderer
func ClearCache() {
	globalPool.reset()
}

// CacheSize returns the number of distinct renderer configurations in use
func CacheSize() int {
	return globalPool.size()
}
