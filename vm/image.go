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
	"bufio"
	"bytes"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// ReadImage reads a program image from r. Zstandard compressed images are
// decompressed on the fly. At most maxSize bytes are accepted; larger images
// fail with ErrProgramTooLarge. A maxSize <= 0 disables the check.
func ReadImage(r io.Reader, maxSize int) ([]byte, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(len(zstdMagic))
	if err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "ReadImage")
	}
	var src io.Reader = br
	if bytes.Equal(magic, zstdMagic) {
		d, err := zstd.NewReader(br)
		if err != nil {
			return nil, errors.Wrap(err, "ReadImage: zstd")
		}
		defer d.Close()
		src = d
	}
	if maxSize > 0 {
		src = io.LimitReader(src, int64(maxSize)+1)
	}
	img, err := io.ReadAll(src)
	if err != nil {
		return nil, errors.Wrap(err, "ReadImage")
	}
	if maxSize > 0 && len(img) > maxSize {
		return nil, errors.Wrapf(ErrProgramTooLarge, "image exceeds %d bytes", maxSize)
	}
	return img, nil
}

// LoadFile loads a program image from file fileName. See ReadImage.
func LoadFile(fileName string, maxSize int) ([]byte, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, errors.Wrap(err, "LoadFile")
	}
	defer f.Close()
	img, err := ReadImage(f, maxSize)
	if err != nil {
		return nil, errors.Wrapf(err, "LoadFile %s", fileName)
	}
	return img, nil
}

// WriteImage writes img to w, zstd compressed if compress is true.
func WriteImage(w io.Writer, img []byte, compress bool) error {
	if !compress {
		_, err := w.Write(img)
		return errors.Wrap(err, "write failed")
	}
	e, err := zstd.NewWriter(w)
	if err != nil {
		return errors.Wrap(err, "zstd")
	}
	if _, err = e.Write(img); err != nil {
		e.Close()
		return errors.Wrap(err, "write failed")
	}
	return errors.Wrap(e.Close(), "zstd close")
}

// SaveFile saves a program image to file fileName. The file is removed if
// any error occurs.
func SaveFile(fileName string, img []byte, compress bool) (err error) {
	f, err := os.Create(fileName)
	if err != nil {
		return errors.Wrap(err, "create failed")
	}
	w := bufio.NewWriter(f)
	defer func() {
		if ferr := w.Flush(); err == nil && ferr != nil {
			err = errors.Wrap(ferr, "flush failed")
		}
		if cerr := f.Close(); err == nil && cerr != nil {
			err = errors.Wrap(cerr, "close failed")
		}
		// delete file on error
		if err != nil {
			os.Remove(fileName)
		}
	}()
	return WriteImage(w, img, compress)
}
