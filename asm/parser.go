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

package asm

import (
	"encoding/binary"
	"io"
	"sort"
	"strconv"
	"text/scanner"
	"unicode"

	"github.com/db47h/diatom/vm"
)

func isIdentRune(ch rune, i int) bool {
	return unicode.IsLetter(ch) || unicode.IsSymbol(ch) || unicode.IsPunct(ch) || unicode.IsDigit(ch)
}

type labelSite struct {
	pos     scanner.Position
	address int
}

type label struct {
	labelSite
	uses []labelSite
}

// parser states
const (
	stInstruction = iota // accept anything
	stOperand            // word operand: integer, const or label (const, call, cjmp, .word)
	stOrg                // integer or const (.org)
	stEqu                // integer or const (.equ value)
	stByte               // integer, const or char (.byte)
)

// dictionary entries
const (
	maxNameLen    = 127
	immediateFlag = 128
	entryPrefix   = "_dict"
	varPrefix     = "_var"
)

type parser struct {
	img      []byte
	pc       int
	end      int
	max      int
	tooLarge bool
	s        scanner.Scanner
	labels   map[string]*label
	consts   map[string]labelSite
	locals   map[string]int
	cstName  string
	cstPos   scanner.Position
	lastHdr  int    // address of the latest dictionary header
	word     string // open .codeword
	wordPos  scanner.Position
	errs     ErrAsm
}

func newParser(maxSize int) *parser {
	p := new(parser)
	p.max = maxSize
	p.lastHdr = -1
	p.labels = make(map[string]*label)
	p.consts = make(map[string]labelSite)
	p.locals = make(map[string]int)
	return p
}

// grow makes room for n bytes at pc. It fails once the image would exceed the
// size limit.
func (p *parser) grow(n int) bool {
	need := p.pc + n
	if need > p.max {
		if !p.tooLarge {
			p.tooLarge = true
			p.addError(p.pos(), "program exceeds "+strconv.Itoa(p.max)+" bytes", vm.ErrProgramTooLarge)
		}
		return false
	}
	if need > len(p.img) {
		l := 2*len(p.img) + 1024
		if l < need {
			l = need
		}
		if l > p.max {
			l = p.max
		}
		img := make([]byte, l)
		copy(img, p.img)
		p.img = img
	}
	return true
}

func (p *parser) advance(n int) {
	p.pc += n
	if p.pc > p.end {
		p.end = p.pc
	}
}

func (p *parser) writeByte(b byte) {
	if !p.grow(1) {
		return
	}
	p.img[p.pc] = b
	p.advance(1)
}

func (p *parser) writeWord(v vm.Word) bool {
	if !p.grow(vm.WordSize) {
		return false
	}
	binary.BigEndian.PutUint32(p.img[p.pc:], uint32(v))
	p.advance(vm.WordSize)
	return true
}

func (p *parser) useLabel(name string) {
	site := labelSite{p.s.Position, p.pc}
	if !p.writeWord(0) {
		return
	}
	lbl := p.labels[name]
	if lbl == nil {
		lbl = &label{
			// use current position as valid temp position
			labelSite{p.s.Position, -1},
			nil,
		}
		p.labels[name] = lbl
	}
	lbl.uses = append(lbl.uses, site)
}

func (p *parser) defineLabel(n string) {
	if _, ok := opcodeIndex[n]; ok {
		p.error("label name " + n + " is an instruction mnemonic")
		return
	}
	if cst, ok := p.consts[n]; ok {
		p.error("label redefinition: " + n + ", previously defined as a constant here: " + cst.pos.String())
		return
	}
	if l, ok := p.labels[n]; ok {
		if l.address != -1 {
			p.error("label redefinition: " + n + ", previous definition here: " + l.pos.String())
			return
		}
		l.address = p.pc
		l.pos = p.s.Position
		return
	}
	p.labels[n] = &label{labelSite{p.s.Position, p.pc}, nil}
}

func isDigits(s string) bool {
	if len(s) == 0 {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func localName(n string, count int) string {
	return n + "·" + strconv.Itoa(count)
}

// resolveLocal maps local label references of the form N+ or N- to their
// internal name.
func (p *parser) resolveLocal(s string) (string, bool) {
	l := len(s) - 1
	if l < 1 || !isDigits(s[:l]) {
		return s, true
	}
	n := s[:l]
	switch s[l] {
	case '+':
		return localName(n, p.locals[n]+1), true
	case '-':
		c := p.locals[n]
		if c == 0 {
			p.error("backward reference to undefined local label " + n)
			return s, false
		}
		return localName(n, c), true
	}
	return s, true
}

func (p *parser) addError(pos scanner.Position, msg string, err error) {
	if len(p.errs) < maxErrors {
		p.errs = append(p.errs, struct {
			Pos scanner.Position
			Msg string
			Err error
		}{pos, msg, err})
	}
}

func (p *parser) errorAt(pos scanner.Position, msg string) {
	p.addError(pos, msg, nil)
}

func (p *parser) pos() scanner.Position {
	pos := p.s.Position
	if !pos.IsValid() {
		pos = p.s.Pos()
	}
	return pos
}

func (p *parser) error(msg string) {
	p.errorAt(p.pos(), msg)
}

func (p *parser) tooManyErrors() bool {
	return len(p.errs) >= maxErrors
}

// parseInt converts s to a Word. Unsigned values that fit in 32 bits are
// accepted and wrap around, so that 0xffffffff is -1.
func parseInt(s string) (vm.Word, bool) {
	if n, err := strconv.ParseInt(s, 0, 32); err == nil {
		return vm.Word(n), true
	}
	if n, err := strconv.ParseUint(s, 0, 32); err == nil {
		return vm.Word(uint32(n)), true
	}
	return 0, false
}

// spaceLiteral completes a character literal holding a blank, which the
// scanner splits in two tokens. It is called after scanning a lone quote.
func (p *parser) spaceLiteral() (vm.Word, bool) {
	if c := p.s.Peek(); c != ' ' && c != '\t' {
		return 0, false
	}
	pos := p.s.Position
	c := p.s.Next()
	if p.s.Peek() != '\'' {
		p.s.Position = pos
		return 0, false
	}
	p.s.Next()
	p.s.Position = pos
	if n := p.s.Peek(); n != scanner.EOF && !unicode.IsSpace(n) {
		return 0, false
	}
	return vm.Word(c), true
}

// wordName scans the name of a dictionary entry. The returned name is empty
// at EOF; ok is false if the name is invalid.
func (p *parser) wordName(dir string) (name string, ok bool) {
	if p.s.Scan() != scanner.Ident {
		p.error(dir + ": missing name")
		return "", false
	}
	name = p.s.TokenText()
	switch {
	case name[0] == '.':
		p.error(dir + ": invalid name " + name)
	case len(name) > maxNameLen:
		p.error(dir + ": name " + name + " exceeds " + strconv.Itoa(maxNameLen) + " bytes")
	default:
		return name, true
	}
	return name, false
}

// writeHeader compiles a dictionary header: the address of the previous
// header, the name length with the immediate flag and the name bytes. The
// entry label follows.
func (p *parser) writeHeader(name string, immediate bool) {
	hdr := p.pc
	link := vm.Word(0)
	if p.lastHdr >= 0 {
		link = vm.Word(p.lastHdr)
	}
	p.writeWord(link)
	p.lastHdr = hdr
	l := byte(len(name))
	if immediate {
		l |= immediateFlag
	}
	p.writeByte(l)
	for i := 0; i < len(name); i++ {
		p.writeByte(name[i])
	}
	p.defineLabel(entryPrefix + name)
}

func (p *parser) codeword(dir string) {
	pos := p.s.Position
	name, ok := p.wordName(dir)
	if name == "" {
		return
	}
	if p.word != "" {
		p.errorAt(pos, "nested "+dir+" "+name+" in "+p.word)
		return
	}
	p.word, p.wordPos = name, pos
	if ok {
		p.writeHeader(name, dir == ".immediate-codeword")
	}
}

// variable compiles ".var NAME SIZE .end": a dictionary entry pushing the
// address of SIZE zeroed bytes.
func (p *parser) variable() {
	pos := p.s.Position
	name, ok := p.wordName(".var")
	if name == "" {
		return
	}
	var size vm.Word
	if p.s.Scan() != scanner.Ident {
		p.error(".var: missing size")
		return
	}
	if n, valid := parseInt(p.s.TokenText()); !valid || n < 0 || n > 255 {
		p.error(".var: invalid size " + p.s.TokenText())
		ok = false
	} else {
		size = n
	}
	if p.s.Scan() != scanner.Ident || p.s.TokenText() != ".end" {
		p.error(".var: expected .end, got " + p.s.TokenText())
		return
	}
	if p.word != "" {
		p.errorAt(pos, "unexpected .var "+name+" in "+p.word)
		return
	}
	if !ok {
		return
	}
	p.writeHeader(name, false)
	p.writeByte(byte(vm.OpConst))
	p.useLabel(varPrefix + name)
	p.writeByte(byte(vm.OpRet))
	p.defineLabel(varPrefix + name)
	for ; size > 0; size-- {
		p.writeByte(0)
	}
}

// Parse does the parsing and compiling.
func (p *parser) Parse(name string, r io.Reader) ([]byte, error) {
	var (
		state int
		argOf string
	)

	p.s.Init(r)
	p.s.Error = func(s *scanner.Scanner, msg string) {
		p.error(msg)
	}
	p.s.IsIdentRune = isIdentRune
	p.s.Mode = scanner.ScanIdents
	p.s.Filename = name

	for tok := p.s.Scan(); !p.tooManyErrors() && !p.tooLarge && tok != scanner.EOF; tok = p.s.Scan() {
		var v vm.Word
		s := p.s.TokenText()

		// Words can start with and contain digits, symbols or punctuation, so
		// the scanner only returns identifiers. Convert back to Ints where
		// applicable. Chars are only a special case of ints.
		if tok != scanner.Ident {
			p.error("unexpected character " + strconv.QuoteRune(tok))
			continue
		}
		if n, ok := parseInt(s); ok {
			tok, v = scanner.Int, n
		} else if s == "'" {
			c, ok := p.spaceLiteral()
			if !ok {
				p.error("invalid character literal")
				state = stInstruction
				continue
			}
			tok, v = scanner.Int, c
		} else if len(s) > 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
			r, _, tail, err := strconv.UnquoteChar(s[1:len(s)-1], '\'')
			if err != nil || tail != "" {
				p.error("invalid character literal " + s)
				state = stInstruction
				continue
			}
			tok, v = scanner.Int, vm.Word(r)
		} else if c, ok := p.consts[s]; ok {
			tok, v = scanner.Int, vm.Word(c.address)
		}

	S: // now we only have ints or idents
		switch tok {
		case scanner.Int:
			switch state {
			case stOrg:
				if v < 0 {
					p.error(".org: negative address " + s)
					break
				}
				p.pc = int(v)
			case stEqu:
				p.consts[p.cstName] = labelSite{p.cstPos, int(v)}
			case stByte:
				if v < -128 || v > 255 {
					p.error(".byte: value out of range: " + s)
					break
				}
				p.writeByte(byte(v))
			case stInstruction:
				// implicit const
				p.writeByte(byte(vm.OpConst))
				fallthrough
			default: // stOperand
				p.writeWord(v)
			}
			state = stInstruction
		case scanner.Ident:
			switch s[0] {
			case ':':
				if state != stInstruction {
					p.error("unexpected label definition as argument of " + argOf + ": " + s)
					state = stInstruction
					break S
				}
				n := s[1:]
				if len(n) == 0 {
					p.error("empty label name")
					break S
				}
				if isDigits(n) {
					p.locals[n]++
					n = localName(n, p.locals[n])
				}
				p.defineLabel(n)
			case '.':
				if state != stInstruction {
					p.error("unexpected directive as argument of " + argOf + ": " + s)
					state = stInstruction
					break S
				}
				argOf = s
				switch s {
				case ".org":
					state = stOrg
				case ".word":
					state = stOperand
				case ".byte":
					state = stByte
				case ".equ":
					t := p.s.Scan()
					if t != scanner.Ident {
						p.error(".equ: expected identifier, got " + p.s.TokenText())
						break S
					}
					p.cstName = p.s.TokenText()
					if _, ok := opcodeIndex[p.cstName]; ok {
						p.error(".equ: constant name " + p.cstName + " is an instruction mnemonic")
						break S
					}
					if l, ok := p.labels[p.cstName]; ok {
						p.error(".equ: redefinition of " + p.cstName + ", previously defined or used as a label here: " + l.pos.String())
						break S
					}
					p.cstPos = p.s.Position
					state = stEqu
				case ".codeword", ".immediate-codeword":
					p.codeword(s)
				case ".var":
					p.variable()
				case ".end":
					if p.word == "" {
						p.error(".end outside of a codeword")
						break S
					}
					p.writeByte(byte(vm.OpRet))
					p.word = ""
				default:
					p.error("unknown directive: " + s)
				}
			default:
				if s == "(" {
					// skip comments
					for ; !p.tooManyErrors() && tok != scanner.EOF && (tok != scanner.Ident || p.s.TokenText() != ")"); tok = p.s.Scan() {
					}
					break S
				}
				if state >= stOrg {
					p.error("expected integer or constant as argument of " + argOf + ", got " + s)
					state = stInstruction
					break S
				}
				if op, ok := opcodeIndex[s]; ok && state == stInstruction {
					p.writeByte(byte(op))
					if op.HasOperand() {
						argOf = s
						state = stOperand
					}
					break S
				}
				if state == stInstruction {
					if s[0] == '!' {
						// word call
						p.writeByte(byte(vm.OpCall))
						p.useLabel(entryPrefix + s[1:])
						break S
					}
					// implicit const <address>
					p.writeByte(byte(vm.OpConst))
				}
				if n, ok := p.resolveLocal(s); ok {
					p.useLabel(n)
				} else {
					p.writeWord(0)
				}
				state = stInstruction
			}
		}
	}
	if p.tooLarge {
		return nil, p.errs
	}
	if state != stInstruction && !p.tooManyErrors() {
		p.error("missing argument for " + argOf)
	}
	if p.word != "" {
		p.errorAt(p.wordPos, "missing .end for codeword "+p.word)
	}

	// write labels
	names := make([]string, 0, len(p.labels))
	for n := range p.labels {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		l := p.labels[n]
		if l.address == -1 {
			p.errorAt(l.uses[0].pos, "missing label definition for "+n)
			continue
		}
		for _, u := range l.uses {
			binary.BigEndian.PutUint32(p.img[u.address:], uint32(l.address))
		}
	}

	if len(p.errs) > 0 {
		return nil, p.errs
	}
	return p.img[:p.end], nil
}
