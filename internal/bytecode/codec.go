package bytecode

import (
	"bytes"
	"fmt"

	"fortio.org/safecast"
	"github.com/vmihailenco/msgpack/v5"

	"lumen/internal/value"
)

// Current schema version - increment when the wire layout changes.
const programSchemaVersion uint16 = 1

type wireConst struct {
	Kind uint8   `msgpack:"k"`
	Int  int64   `msgpack:"i,omitempty"`
	Real float64 `msgpack:"f,omitempty"`
	Str  string  `msgpack:"s,omitempty"`
}

type wireUnit struct {
	Name           string      `msgpack:"name"`
	Kind           uint8       `msgpack:"kind"`
	Code           []int32     `msgpack:"code"`
	Consts         []wireConst `msgpack:"consts"`
	NumRegisters   int         `msgpack:"regs"`
	RegisterBase   int         `msgpack:"base"`
	NumSharedSlots int         `msgpack:"shared"`
	NestLevel      int         `msgpack:"level"`
	NumParams      int         `msgpack:"params"`
	Collapse       bool        `msgpack:"collapse"`
	UnnamedTail    bool        `msgpack:"tail"`
	NumTries       int         `msgpack:"tries"`
	SourceMap      []int64     `msgpack:"srcmap"`
}

type wireProgram struct {
	Schema     uint16     `msgpack:"schema"`
	SourceName string     `msgpack:"source"`
	Lines      []uint32   `msgpack:"lines"`
	Entry      int        `msgpack:"entry"`
	Units      []wireUnit `msgpack:"units"`
}

// Encode serializes a fixed-up program.
func Encode(p *Program) ([]byte, error) {
	w := wireProgram{
		Schema:     programSchemaVersion,
		SourceName: p.SourceName,
		Lines:      p.Lines,
		Entry:      p.Entry,
		Units:      make([]wireUnit, len(p.Units)),
	}
	for i, u := range p.Units {
		if len(u.Children) > 0 || len(u.NestedRelocs) > 0 || len(u.TryRelocs) > 0 {
			return nil, fmt.Errorf("bytecode: unit %s is not fixed up", u.Name)
		}
		wu := wireUnit{
			Name:           u.Name,
			Kind:           uint8(u.Kind),
			Code:           u.Code,
			NumRegisters:   u.NumRegisters,
			RegisterBase:   u.RegisterBase,
			NumSharedSlots: u.NumSharedSlots,
			NestLevel:      u.NestLevel,
			NumParams:      u.NumParams,
			Collapse:       u.Collapse,
			UnnamedTail:    u.UnnamedTail,
			NumTries:       u.NumTries,
			Consts:         make([]wireConst, len(u.Consts)),
			SourceMap:      make([]int64, 0, 2*len(u.SourceMap)),
		}
		for j, c := range u.Consts {
			wc, err := encodeConst(c)
			if err != nil {
				return nil, fmt.Errorf("bytecode: unit %s constant %d: %w", u.Name, j, err)
			}
			wu.Consts[j] = wc
		}
		for _, sp := range u.SourceMap {
			wu.SourceMap = append(wu.SourceMap, int64(sp.Code), int64(sp.Offset))
		}
		w.Units[i] = wu
	}
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := enc.Encode(&w); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode restores a program written by Encode.
func Decode(data []byte) (*Program, error) {
	var w wireProgram
	if err := msgpack.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("bytecode: decode: %w", err)
	}
	if w.Schema != programSchemaVersion {
		return nil, fmt.Errorf("bytecode: schema %d, want %d", w.Schema, programSchemaVersion)
	}
	if w.Entry < 0 || w.Entry >= len(w.Units) {
		return nil, fmt.Errorf("bytecode: entry unit %d out of range", w.Entry)
	}
	p := &Program{SourceName: w.SourceName, Lines: w.Lines, Entry: w.Entry, Units: make([]*Unit, len(w.Units))}
	for i, wu := range w.Units {
		u := &Unit{
			Name:           wu.Name,
			Kind:           Kind(wu.Kind),
			Code:           wu.Code,
			NumRegisters:   wu.NumRegisters,
			RegisterBase:   wu.RegisterBase,
			NumSharedSlots: wu.NumSharedSlots,
			NestLevel:      wu.NestLevel,
			NumParams:      wu.NumParams,
			Collapse:       wu.Collapse,
			UnnamedTail:    wu.UnnamedTail,
			NumTries:       wu.NumTries,
			Consts:         make([]value.Value, len(wu.Consts)),
		}
		for j, wc := range wu.Consts {
			c, err := decodeConst(wc)
			if err != nil {
				return nil, fmt.Errorf("bytecode: unit %s constant %d: %w", wu.Name, j, err)
			}
			u.Consts[j] = c
		}
		if len(wu.SourceMap)%2 != 0 {
			return nil, fmt.Errorf("bytecode: unit %s: odd source map", wu.Name)
		}
		for j := 0; j < len(wu.SourceMap); j += 2 {
			code, err := safecast.Conv[int32](wu.SourceMap[j])
			if err != nil {
				return nil, fmt.Errorf("bytecode: unit %s: source map: %w", wu.Name, err)
			}
			off, err := safecast.Conv[uint32](wu.SourceMap[j+1])
			if err != nil {
				return nil, fmt.Errorf("bytecode: unit %s: source map: %w", wu.Name, err)
			}
			u.SourceMap = append(u.SourceMap, SourcePos{Code: code, Offset: off})
		}
		if err := Verify(u, len(w.Units)); err != nil {
			return nil, err
		}
		p.Units[i] = u
	}
	return p, nil
}

func encodeConst(v value.Value) (wireConst, error) {
	wc := wireConst{Kind: uint8(v.Kind())}
	switch v.Kind() {
	case value.KindVoid, value.KindNull:
	case value.KindBool:
		if v.AsBool() {
			wc.Int = 1
		}
	case value.KindInt:
		wc.Int = v.AsInt()
	case value.KindReal:
		wc.Real = v.AsReal()
	case value.KindString:
		wc.Str = v.AsString()
	case value.KindOctet:
		wc.Str = string(v.AsOctet())
	default:
		return wc, fmt.Errorf("%s constants cannot be serialized", v.Kind())
	}
	return wc, nil
}

func decodeConst(wc wireConst) (value.Value, error) {
	switch value.Kind(wc.Kind) {
	case value.KindVoid:
		return value.Void(), nil
	case value.KindNull:
		return value.Null(), nil
	case value.KindBool:
		return value.Bool(wc.Int != 0), nil
	case value.KindInt:
		return value.Int(wc.Int), nil
	case value.KindReal:
		return value.Real(wc.Real), nil
	case value.KindString:
		return value.Str(wc.Str), nil
	case value.KindOctet:
		return value.OctetString(wc.Str), nil
	}
	return value.Void(), fmt.Errorf("unknown constant kind %d", wc.Kind)
}
