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

// Package asm provides utility functions to assemble and disassemble Diatom
// VM code.
//
// Supported assembler mnemonics:
//
//	TOS is the value on top of the data stack. NOS is the next value on the data stack.
//	Instructions with a check mark in the "arg" column expect a 4 bytes, big-endian
//	word argument in the bytes following them. All other instructions are one byte long.
//
//	opcode	asm	alias	arg	stack	description
//	------	---	-----	---	-----	------------------------------------------------------------------
//	0	exit				halt the VM
//	1	nop				no-op
//	2	ret				return: pop address from address stack and jump to it
//	3	const		✓	-n	place the word argument on TOS
//	4	@	fetch		a-n	fetch the word at the address on TOS
//	5	!	store		na-	store the word in NOS at address in TOS
//	6	+	add		xy-z	add NOS to TOS (saturating)
//	7	-	sub		xy-z	subtract TOS from NOS (saturating)
//	8	*	mul		xy-z	multiply NOS with TOS (saturating)
//	9	/	div		xy-z	divide NOS by TOS, truncating toward zero
//	10	%	mod		xy-z	remainder of NOS divided by TOS
//	11	dup			n-nn	duplicate TOS
//	12	drop			n-	drop TOS
//	13	swap			xy-yx	swap TOS and NOS
//	14	over			xy-xyx	copy NOS on top of the stack
//	15	cjmp		✓	f-	jump to address in argument if TOS is true (-1)
//	16	call		✓		push address of next instruction to address stack, jump to argument
//	17	scall			a-	push address of next instruction to address stack, jump to TOS
//	18	key			-c	read one byte from the input port, blocks until available
//	19	emit			c-	write the low byte of TOS to the output
//	20	=	eq		xy-f	true if NOS == TOS
//	21	~	not		x-y	bitwise complement
//	22	&	and		xy-z	bitwise and
//	23	|	or		xy-z	bitwise or
//	24	<	lt		xy-f	true if NOS < TOS
//	25	>	gt		xy-f	true if NOS > TOS
//	26	rpop			-n	move top of address stack to TOS
//	27	rput			n-	move TOS to address stack
//	28	rpeek			-n	copy top of address stack to TOS
//	29	b@	bfetch		a-c	fetch the byte at the address on TOS
//	30	b!	bstore		ca-	store the low byte of NOS at address in TOS
//	31	dump			n-	drop TOS
//
// Comments:
//
// Comments are placed between parentheses, i.e. '(' and ')'. The body of the
// comment must be separated from the enclosing parentheses by a space:
//
//	( this is a valid comment )
//	( this is a
//	  rather long
//	  multiline comment )
//	(this is not: the parser sees label "(this" )
//
// Comments do not nest.
//
// Literals and label/const identifiers:
//
// Input is split at white space into tokens, Forth style. The parser then does
// the following:
//
//	- If a token can be converted to a Go integer (see strconv.ParseInt), it will
//	  be converted to an integer literal. Unsigned 32 bits values are accepted
//	  and wrap around: 0xffffffff is the same as -1.
//	- If it is a Go character literal between single quotes, it will be converted to
//	  the corresponding integer literal. A quoted blank, like ' ', is accepted
//	  even though it spans two tokens.
//	- If a token is the name of a defined constant, it will be replaced internally by
//	  the constant's value and can be used anywhere an integer literal is expected.
//	- Then name resolution applies:
//	  - if an instruction is expected, the token is looked up in the assembler
//	    mnemonics and if no match is found, it is considered to be a label.
//	  - if an argument is expected, the token is always considered a label.
//
// Implicit "const":
//
// Where the parser is expecting an instruction, integer literals, character
// literals, constants and labels will be compiled with an implicit "const":
//
//	const 42
//	42		( will compile as "const 42", just like above )
//	'a'		( compiles as const 97 )
//	foo scall	( pushes the address of foo, then calls it )
//
// Labels:
//
// Labels are defined by prefixing them with a colon (:). Forward references
// are allowed. Label and constant names may not be instruction mnemonics or
// aliases.
//
//	call foo	( call foo )
//	cjmp bar	( jump to bar if TOS is true )
//
//	:foo	nop ret
//	:bar	exit
//
// Local labels:
//
// Local labels work in the same way as in the GNU assembler. They are defined
// as a colon followed by a sequence of digits (i.e. :007, :0, :42). Although
// they can be defined multiple times, the compiler internally assigns them a
// unique name of the form N·counter (the middle character is '·').
// References to such labels must be suffixed with either a '-' (meaning backward
// reference to the last definition of this label), or a '+' (meaning a forward
// reference to the next definition of this label):
//
//	:1	key dup 'q' = cjmp 1+	( exit on 'q' )
//		emit -1 cjmp 1-		( loop back to the previous :1 )
//	:1	exit
//
// Assembler directives:
//
//	.equ <IDENTIFIER> <value>
//
// defines a constant value. The value must be an integer value, named constant
// or character literal.
//
//	.org <value>
//
// places the next instruction at the given address.
//
//	.word <value>
//	.byte <value>
//
// compile the given value as-is (i.e. with no implicit "const"), as a 4 bytes
// big-endian word or a single byte. .word also accepts a label.
//
//	:table	.word 65
//		.byte 'B'
//
// Dictionary entries:
//
// The following directives build the dictionary of a Forth system. Each entry
// starts with a header: the 4 bytes address of the previous header (0 for the
// first one), a length byte and the bytes of the entry name. Bit 7 of the
// length byte (128) flags immediate words. Names are at most 127 bytes long.
// The code of the entry follows the header and is labeled _dictNAME.
//
//	.codeword <NAME> ... .end
//	.immediate-codeword <NAME> ... .end
//
// compile a header for NAME followed by the code up to .end, which compiles
// as a ret.
//
//	.var <NAME> <SIZE> .end
//
// compiles a header for NAME, code pushing the address of the variable storage
// (labeled _varNAME), and SIZE zeroed bytes of storage, with SIZE in [0, 255].
//
// Where an instruction is expected, !NAME compiles as "call _dictNAME":
//
//	.codeword square dup * .end
//	.var n 4 .end
//	:main	7 !square !n !	( store 49 in n )
//
// The resulting image is trimmed to the highest address written. Assemble
// fails with vm.ErrProgramTooLarge when compiling past MaxSize bytes, or past
// the limit given to AssembleLimit.
package asm
