package bytecode

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Instruction is one decoded instruction.
type Instruction struct {
	PC       int      `yaml:"pc"`
	Op       string   `yaml:"op"`
	Operands []string `yaml:"operands,omitempty"`
	Line     int      `yaml:"line,omitempty"`
	Comment  string   `yaml:"comment,omitempty"`
}

// Listing is the decoded form of a unit.
type Listing struct {
	Index        int           `yaml:"index"`
	Name         string        `yaml:"name"`
	Kind         string        `yaml:"kind"`
	Registers    int           `yaml:"registers"`
	RegisterBase int           `yaml:"register_base,omitempty"`
	SharedSlots  int           `yaml:"shared_slots,omitempty"`
	NestLevel    int           `yaml:"nest_level"`
	Params       int           `yaml:"params"`
	Collapse     bool          `yaml:"collapse,omitempty"`
	Tries        int           `yaml:"tries,omitempty"`
	Consts       []string      `yaml:"consts,omitempty"`
	Code         []Instruction `yaml:"code"`
}

// Decode disassembles unit i of p.
func (p *Program) Decode(i int) (Listing, error) {
	u := p.Units[i]
	l := Listing{
		Index:        i,
		Name:         u.Name,
		Kind:         u.Kind.String(),
		Registers:    u.NumRegisters,
		RegisterBase: u.RegisterBase,
		SharedSlots:  u.NumSharedSlots,
		NestLevel:    u.NestLevel,
		Params:       u.NumParams,
		Collapse:     u.Collapse,
		Tries:        u.NumTries,
	}
	for _, c := range u.Consts {
		l.Consts = append(l.Consts, c.Repr())
	}
	for pc := 0; pc < len(u.Code); {
		w, err := Width(u.Code, pc)
		if err != nil {
			return l, err
		}
		ins := decodeInstruction(p, u, pc, u.Code[pc:pc+w])
		ins.Line = p.Line(u, pc)
		l.Code = append(l.Code, ins)
		pc += w
	}
	return l, nil
}

// InstructionAt decodes the instruction of u starting at pc.
func (p *Program) InstructionAt(u *Unit, pc int) (Instruction, error) {
	w, err := Width(u.Code, pc)
	if err != nil {
		return Instruction{}, err
	}
	ins := decodeInstruction(p, u, pc, u.Code[pc:pc+w])
	ins.Line = p.Line(u, pc)
	return ins, nil
}

func decodeInstruction(p *Program, u *Unit, pc int, words []int32) Instruction {
	op := Opcode(words[0])
	info := infos[op]
	ins := Instruction{PC: pc, Op: info.Name}
	var notes []string
	for i, kind := range info.Operands {
		w := words[1+i]
		switch kind {
		case Reg:
			ins.Operands = append(ins.Operands, RegName(w))
		case Const:
			ins.Operands = append(ins.Operands, "#"+strconv.Itoa(int(w)))
			if int(w) < len(u.Consts) {
				notes = append(notes, u.Consts[w].Repr())
			}
		case Addr:
			ins.Operands = append(ins.Operands, fmt.Sprintf("@%04d", pc+int(w)))
		case Child:
			ins.Operands = append(ins.Operands, "u"+strconv.Itoa(int(w)))
			if int(w) < len(p.Units) {
				notes = append(notes, p.Units[w].Name)
			}
		case Try:
			ins.Operands = append(ins.Operands, "try"+strconv.Itoa(int(w)))
		default:
			if (op == OpCall && i == 3) || (op == OpNew && i == 2) {
				ins.Operands = append(ins.Operands, callModeNames[w])
				continue
			}
			ins.Operands = append(ins.Operands, strconv.Itoa(int(w)))
		}
	}
	rest := words[1+len(info.Operands):]
	expand := (op == OpCall || op == OpNew) && words[len(info.Operands)-1] == CallExpand
	for j := 0; j < len(rest); j++ {
		if expand {
			kind, r := rest[j], rest[j+1]
			j++
			switch kind {
			case ArgExpand:
				ins.Operands = append(ins.Operands, "..."+RegName(r))
			case ArgUnnamed:
				ins.Operands = append(ins.Operands, "...")
			default:
				ins.Operands = append(ins.Operands, RegName(r))
			}
			continue
		}
		ins.Operands = append(ins.Operands, RegName(rest[j]))
	}
	ins.Comment = strings.Join(notes, " ")
	return ins
}

var callModeNames = map[int32]string{CallFixed: "fixed", CallOmit: "omit", CallExpand: "expand"}

// RegName renders a signed register operand.
func RegName(r int32) string {
	switch {
	case r == NoReg:
		return "_"
	case r == -1:
		return "this"
	case r == -2:
		return "global"
	case r < 0:
		return "a" + strconv.Itoa(int(-3-r))
	}
	return "r" + strconv.Itoa(int(r))
}

// Disassemble writes a text listing of every unit in p.
func Disassemble(w io.Writer, p *Program) error {
	for i := range p.Units {
		l, err := p.Decode(i)
		if err != nil {
			return err
		}
		if err := writeListing(w, l, i == p.Entry); err != nil {
			return err
		}
	}
	return nil
}

func writeListing(w io.Writer, l Listing, entry bool) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "unit u%d %s (%s) regs=%d", l.Index, l.Name, l.Kind, l.Registers)
	if l.RegisterBase > 0 {
		fmt.Fprintf(&sb, " base=%d", l.RegisterBase)
	}
	if l.SharedSlots > 0 {
		fmt.Fprintf(&sb, " shared=%d", l.SharedSlots)
	}
	fmt.Fprintf(&sb, " level=%d params=%d", l.NestLevel, l.Params)
	if l.Collapse {
		sb.WriteString(" collapse")
	}
	if entry {
		sb.WriteString(" entry")
	}
	sb.WriteByte('\n')
	for i, c := range l.Consts {
		fmt.Fprintf(&sb, "  #%d = %s\n", i, c)
	}
	for _, ins := range l.Code {
		fmt.Fprintf(&sb, "  %04d  %-9s %s", ins.PC, ins.Op, strings.Join(ins.Operands, ", "))
		if ins.Comment != "" {
			fmt.Fprintf(&sb, "  ; %s", ins.Comment)
		}
		if ins.Line > 0 {
			fmt.Fprintf(&sb, "  (line %d)", ins.Line)
		}
		sb.WriteByte('\n')
	}
	sb.WriteByte('\n')
	_, err := io.WriteString(w, sb.String())
	return err
}

// DisassembleYAML writes the listings of p as a YAML document.
func DisassembleYAML(w io.Writer, p *Program) error {
	doc := struct {
		Source string    `yaml:"source"`
		Entry  int       `yaml:"entry"`
		Units  []Listing `yaml:"units"`
	}{Source: p.SourceName, Entry: p.Entry}
	for i := range p.Units {
		l, err := p.Decode(i)
		if err != nil {
			return err
		}
		doc.Units = append(doc.Units, l)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return err
	}
	return enc.Close()
}
