// Copyright 2026 The Passbench Authors
// SPDX-License-Identifier: Apache-2.0

package circuit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// FormatVersion identifies the artifact wire format. Decode rejects
// anything else; bump it when the schema changes shape.
const FormatVersion = "passbench-circuit/v1"

// The wire schema is deliberately flat and field-ordered. Struct field
// order plus Go's deterministic float formatting is what makes Encode
// canonical: the same circuit always serializes to the same bytes.
type wireCircuit struct {
	Format string   `json:"format"`
	Qubits int      `json:"qubits"`
	Bits   int      `json:"bits"`
	Ops    []wireOp `json:"ops"`
}

type wireOp struct {
	Name   string      `json:"name"`
	Qubits []int       `json:"qubits"`
	Bits   []int       `json:"bits,omitempty"`
	Params []wireParam `json:"params,omitempty"`
}

type wireParam struct {
	Sym *string  `json:"sym,omitempty"`
	Num *float64 `json:"num,omitempty"`
}

// Encode writes the canonical JSON serialization of the circuit,
// terminated by a newline.
func (c *Circuit) Encode(w io.Writer) error {
	wire := wireCircuit{
		Format: FormatVersion,
		Qubits: c.Qubits,
		Bits:   c.Bits,
		Ops:    make([]wireOp, len(c.Ops)),
	}
	for i, op := range c.Ops {
		wop := wireOp{Name: op.Name, Qubits: op.Qubits, Bits: op.Bits}
		if len(op.Params) > 0 {
			wop.Params = make([]wireParam, len(op.Params))
			for j, p := range op.Params {
				if p.Symbolic() {
					name := p.Name
					wop.Params[j] = wireParam{Sym: &name}
				} else {
					value := p.Value
					wop.Params[j] = wireParam{Num: &value}
				}
			}
		}
		wire.Ops[i] = wop
	}

	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(&wire); err != nil {
		return fmt.Errorf("encoding circuit: %w", err)
	}
	return nil
}

// EncodeBytes returns the canonical serialization as a byte slice.
func (c *Circuit) EncodeBytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := c.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses a canonical serialization. Unknown fields, unknown
// format versions, malformed params, and out-of-range indices are all
// errors.
func Decode(r io.Reader) (*Circuit, error) {
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()

	var wire wireCircuit
	if err := decoder.Decode(&wire); err != nil {
		return nil, fmt.Errorf("decoding circuit: %w", err)
	}
	if wire.Format != FormatVersion {
		return nil, fmt.Errorf("decoding circuit: unsupported format %q (want %q)", wire.Format, FormatVersion)
	}

	c := &Circuit{Qubits: wire.Qubits, Bits: wire.Bits, Ops: make([]Op, len(wire.Ops))}
	for i, wop := range wire.Ops {
		op := Op{Name: wop.Name, Qubits: wop.Qubits, Bits: wop.Bits}
		if len(wop.Params) > 0 {
			op.Params = make([]Param, len(wop.Params))
			for j, wp := range wop.Params {
				switch {
				case wp.Sym != nil && wp.Num == nil:
					op.Params[j] = Sym(*wp.Sym)
				case wp.Num != nil && wp.Sym == nil:
					op.Params[j] = Num(*wp.Num)
				default:
					return nil, fmt.Errorf("decoding circuit: op %d (%s) param %d: exactly one of sym/num required", i, wop.Name, j)
				}
			}
		}
		c.Ops[i] = op
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("decoding circuit: %w", err)
	}
	return c, nil
}

// DecodeBytes parses a canonical serialization from a byte slice.
func DecodeBytes(data []byte) (*Circuit, error) {
	return Decode(bytes.NewReader(data))
}

// ReadFile reads and decodes an artifact from disk.
func ReadFile(path string) (*Circuit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading circuit: %w", err)
	}
	c, err := DecodeBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}
