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
	"io"

	"github.com/pkg/errors"
)

type flusher interface {
	Flush() error
}

type byteWriterWrapper struct {
	io.Writer
}

func (w *byteWriterWrapper) WriteByte(c byte) error {
	_, err := w.Writer.Write([]byte{c})
	return err
}

func (w *byteWriterWrapper) Flush() error {
	if f, ok := w.Writer.(flusher); ok {
		return f.Flush()
	}
	return nil
}

type discard struct{}

func (discard) WriteByte(byte) error { return nil }

// newWriter returns either w if it implements io.ByteWriter or wraps it up
// into a byteWriterWrapper.
func newWriter(w io.Writer) io.ByteWriter {
	switch ww := w.(type) {
	case nil:
		return discard{}
	case io.ByteWriter:
		return ww
	default:
		return &byteWriterWrapper{w}
	}
}

// FeedFrom copies r into the input port p, one Feed per successful read,
// until r reaches EOF, the port is closed or ctx is done. Reaching EOF is not
// an error and does not close the port.
//
// Cancellation is only checked between reads: a read blocked on r is not
// interrupted.
func FeedFrom(ctx context.Context, p *InputPort, r io.Reader) error {
	var buf [512]byte
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := r.Read(buf[:])
		if n > 0 {
			if ferr := p.Feed(buf[:n]); ferr != nil {
				return ferr
			}
		}
		switch err {
		case nil:
		case io.EOF:
			return nil
		default:
			return errors.Wrap(err, "FeedFrom")
		}
	}
}
