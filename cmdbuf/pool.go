package cmdbuf

import "sync"

// Pool recycles buffers between frames.
type Pool struct {
	pool sync.Pool
}

// NewPool returns a pool whose new buffers are built with opts.
func NewPool(opts ...Option) *Pool {
	p := &Pool{}
	p.pool.New = func() any { return New(opts...) }
	return p
}

// Get returns an empty, unsealed buffer.
func (p *Pool) Get() *Buffer {
	b := p.pool.Get().(*Buffer)
	if b.Len() > 0 || b.sealed {
		b.Reset()
	}
	return b
}

// Put resets b and returns it to the pool. b must not be used afterwards.
func (p *Pool) Put(b *Buffer) {
	if b == nil {
		return
	}
	b.Reset()
	p.pool.Put(b)
}
