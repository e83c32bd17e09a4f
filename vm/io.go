// This file is part of diatom - https://github.com/db47h/diatom
//
// Copyright 2016 Denis Bernard <db047h@gmail.com>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package vm

import (
	"context"
	"sync"
)

// ByteSource is the interface the KEY instruction reads from. NextByte must
// block until a byte is available, the source is exhausted or ctx is done.
type ByteSource interface {
	NextByte(ctx context.Context) (byte, error)
}

// InputPort is an externally fed byte queue. It is the default ByteSource of
// an Instance.
//
// Feed and Close may be called from any goroutine, while at most one goroutine
// may be blocked in NextByte at any time.
type InputPort struct {
	mu     sync.Mutex
	buf    []byte
	cursor int
	wait   chan byte // parked reader, if any
	closed bool
}

// NewInputPort returns a new, empty InputPort.
func NewInputPort() *InputPort {
	return new(InputPort)
}

// Feed appends p to the input buffer. Bytes already buffered but not yet read
// are preserved. If a reader is parked in NextByte, it receives the first
// available byte immediately.
func (p *InputPort) Feed(b []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPortClosed
	}
	// drop consumed bytes before growing the buffer
	if p.cursor > 0 {
		n := copy(p.buf, p.buf[p.cursor:])
		p.buf = p.buf[:n]
		p.cursor = 0
	}
	p.buf = append(p.buf, b...)
	if p.wait != nil && p.cursor < len(p.buf) {
		p.wait <- p.buf[p.cursor]
		p.cursor++
		p.wait = nil
	}
	return nil
}

// NextByte returns the next input byte. If none is buffered, it blocks until a
// call to Feed delivers one, the port is closed or ctx is done.
//
// Bytes fed before Close are still returned; once they are exhausted NextByte
// fails with ErrPortClosed.
func (p *InputPort) NextByte(ctx context.Context) (byte, error) {
	p.mu.Lock()
	if p.cursor < len(p.buf) {
		c := p.buf[p.cursor]
		p.cursor++
		p.mu.Unlock()
		return c, nil
	}
	if p.closed {
		p.mu.Unlock()
		return 0, ErrPortClosed
	}
	if p.wait != nil {
		p.mu.Unlock()
		return 0, ErrConcurrentRead
	}
	w := make(chan byte, 1)
	p.wait = w
	p.mu.Unlock()

	select {
	case c, ok := <-w:
		if !ok {
			return 0, ErrPortClosed
		}
		return c, nil
	case <-ctx.Done():
		p.mu.Lock()
		if p.wait == w {
			p.wait = nil
			p.mu.Unlock()
			return 0, ctx.Err()
		}
		p.mu.Unlock()
		// Feed or Close got there first; w is ready.
		if c, ok := <-w; ok {
			return c, nil
		}
		return 0, ErrPortClosed
	}
}

// Buffered returns the number of bytes that can be read without blocking.
func (p *InputPort) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.buf) - p.cursor
}

// Waiting returns true if a reader is parked in NextByte.
func (p *InputPort) Waiting() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.wait != nil
}

// Close closes the port. A parked reader fails with ErrPortClosed. Subsequent
// calls to Feed fail. Closing an already closed port is a no-op.
func (p *InputPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	if p.wait != nil {
		close(p.wait)
		p.wait = nil
	}
	return nil
}
