// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfxref

import (
	"bytes"
	"io"

	"github.com/nextpage-labs/pdfxref/logger"
)

// Stack is the operand stack fed to an Interpret callback. Content streams
// and CMap programs are both PostScript-derived: operands are pushed until
// an operator keyword is hit, at which point the operator consumes however
// many operands it needs.
type Stack struct {
	items []Value
}

// Push adds v to the top of the stack.
func (s *Stack) Push(v Value) { s.items = append(s.items, v) }

// Pop removes and returns the top of the stack, or a null Value if empty.
func (s *Stack) Pop() Value {
	if len(s.items) == 0 {
		return Value{}
	}
	v := s.items[len(s.items)-1]
	s.items = s.items[:len(s.items)-1]
	return v
}

// Len reports the number of operands currently on the stack.
func (s *Stack) Len() int { return len(s.items) }

// Interpret runs the operand-stack mini-language shared by content streams
// and embedded CMap programs. Every operator keyword (anything that is not
// a number, string, name, array, dict, or boolean/null literal) invokes do
// with the stack as it stood immediately before the operator.
func Interpret(strm Value, do func(stk *Stack, op string)) {
	data, err := io.ReadAll(strm.Reader())
	if err != nil {
		logger.Error("Interpret: failed reading stream", "err", err)
		return
	}

	b := newBuffer(bytes.NewReader(data), 0)
	var stk Stack

	for {
		tok := b.readToken()
		if tok == nil {
			return
		}
		switch t := tok.(type) {
		case keyword:
			switch t {
			case "<<", "[":
				stk.Push(Value{obj: b.readValue(t)})
			case "true":
				stk.Push(Value{obj: true})
			case "false":
				stk.Push(Value{obj: false})
			case "null":
				stk.Push(Value{})
			case "]", ">>":
				logger.Error("Interpret: unmatched closing delimiter")
			default:
				do(&stk, string(t))
			}
		default:
			stk.Push(Value{obj: tok})
		}
	}
}
