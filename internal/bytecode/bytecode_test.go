package bytecode_test

import (
	"bytes"
	"slices"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"lumen/internal/bytecode"
	"lumen/internal/codegen"
	"lumen/internal/diag"
	"lumen/internal/parser"
	"lumen/internal/source"
	"lumen/internal/ssa"
	"lumen/internal/value"
)

func compile(t *testing.T, src string) *bytecode.Program {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.lm", []byte(src))
	bag := diag.NewBag(32)
	file := fs.Get(id)
	script, _ := parser.ParseFile(file, parser.Options{Reporter: diag.BagReporter{Bag: bag}})
	if bag.Len() > 0 {
		t.Fatalf("parse: %+v", bag.Items())
	}
	form, err := ssa.Compile(script, ssa.Options{Name: "main", FoldConstants: true})
	if err != nil {
		t.Fatal(err)
	}
	unit, err := codegen.Generate(form)
	if err != nil {
		t.Fatal(err)
	}
	prog, err := bytecode.Fixup(unit, file.Path, file.LineIdx)
	if err != nil {
		t.Fatal(err)
	}
	return prog
}

const sample = `function add(a, b) { return a + b; }
var s = "total: ";
try {
  s = s + add(1, 2);
} catch (e) {
  s = "failed";
}
return s;
`

func TestFixupRelocatesUnitsAndTries(t *testing.T) {
	a := &bytecode.Unit{Name: "a", Code: []int32{int32(bytecode.OpReturn), bytecode.NoReg}}
	b := &bytecode.Unit{
		Name:      "b",
		Code:      []int32{int32(bytecode.OpExitTry), 0, int32(bytecode.OpReturn), bytecode.NoReg},
		NumTries:  1,
		TryRelocs: []int32{1},
	}
	root := &bytecode.Unit{
		Name: "root",
		Code: []int32{
			int32(bytecode.OpFunc), 0, 1,
			int32(bytecode.OpExitTry), 0,
			int32(bytecode.OpReturn), 0,
		},
		NumRegisters: 1,
		NumTries:     1,
		Children:     []*bytecode.Unit{a, b},
		NestedRelocs: []int32{2},
		TryRelocs:    []int32{4},
	}
	p, err := bytecode.Fixup(root, "x.lm", nil)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, u := range p.Units {
		names = append(names, u.Name)
	}
	if !slices.Equal(names, []string{"root", "a", "b"}) {
		t.Fatalf("units %v, want depth-first root a b", names)
	}
	fr, fb := p.Units[0], p.Units[2]
	if got := fr.Code[2]; got != 2 {
		t.Fatalf("child reference %d, want unit 2", got)
	}
	if fr.Code[4] != 0 || fb.Code[1] != 1 {
		t.Fatalf("try ids %d and %d, want 0 and 1", fr.Code[4], fb.Code[1])
	}
	if fr.Children != nil || fr.NestedRelocs != nil || fb.TryRelocs != nil {
		t.Fatal("relocation tables survived fixup")
	}
	if root.Code[2] != 1 || b.Code[1] != 0 || len(root.Children) != 2 {
		t.Fatal("fixup modified the input tree")
	}

	again, err := bytecode.Fixup(root, "x.lm", nil)
	if err != nil {
		t.Fatalf("second fixup: %v", err)
	}
	for i := range p.Units {
		if !slices.Equal(again.Units[i].Code, p.Units[i].Code) {
			t.Fatalf("%s: second fixup produced %v, want %v", p.Units[i].Name, again.Units[i].Code, p.Units[i].Code)
		}
	}
}

func TestFixupFailureLeavesTreeIntact(t *testing.T) {
	bad := &bytecode.Unit{
		Name:         "bad",
		Code:         []int32{int32(bytecode.OpFunc), 0, 7, int32(bytecode.OpReturn), bytecode.NoReg},
		NestedRelocs: []int32{2},
	}
	root := &bytecode.Unit{
		Name:         "root",
		Code:         []int32{int32(bytecode.OpFunc), 0, 0, int32(bytecode.OpReturn), 0},
		NumRegisters: 1,
		Children:     []*bytecode.Unit{bad},
		NestedRelocs: []int32{2},
	}
	if _, err := bytecode.Fixup(root, "x.lm", nil); err == nil {
		t.Fatal("expected an error")
	}
	if root.Code[2] != 0 || len(root.Children) != 1 || len(root.NestedRelocs) != 1 {
		t.Fatalf("root relocated by a failed fixup: code %v", root.Code)
	}
}

func TestChildOperandKinds(t *testing.T) {
	cases := []struct {
		op  bytecode.Opcode
		idx int
	}{
		{bytecode.OpFunc, 1},
		{bytecode.OpBlock, 1},
		{bytecode.OpClass, 2},
	}
	for _, tt := range cases {
		info, ok := bytecode.LookupInfo(tt.op)
		if !ok {
			t.Fatalf("%s: no info", tt.op)
		}
		if got := info.Operands[tt.idx]; got != bytecode.Child {
			t.Errorf("%s operand %d = %d, want Child", tt.op, tt.idx, got)
		}
	}
}

func TestFixupRejectsBadChildReference(t *testing.T) {
	root := &bytecode.Unit{
		Name:         "root",
		Code:         []int32{int32(bytecode.OpFunc), 0, 3, int32(bytecode.OpReturn), 0},
		NestedRelocs: []int32{2},
	}
	if _, err := bytecode.Fixup(root, "x.lm", nil); err == nil {
		t.Fatal("expected an error")
	}
}

func TestWidth(t *testing.T) {
	cases := []struct {
		name string
		code []int32
		want int
	}{
		{"binary", []int32{int32(bytecode.OpAdd), 0, 1, 2}, 4},
		{"fixed call", []int32{int32(bytecode.OpCall), 0, 1, bytecode.NoReg, bytecode.CallFixed, 2, 3, 4}, 8},
		{"expanded call", []int32{
			int32(bytecode.OpCall), 0, 1, bytecode.NoReg, bytecode.CallExpand, 2,
			bytecode.ArgExpand, 2, bytecode.ArgUnnamed, bytecode.NoReg,
		}, 10},
		{"dict", []int32{int32(bytecode.OpDict), 0, 2, 1, 2, 3, 4}, 7},
	}
	for _, tc := range cases {
		got, err := bytecode.Width(tc.code, 0)
		if err != nil || got != tc.want {
			t.Errorf("%s: width %d, %v; want %d", tc.name, got, err, tc.want)
		}
	}
	if _, err := bytecode.Width([]int32{int32(bytecode.OpAdd), 0, 1}, 0); err == nil {
		t.Error("truncated instruction accepted")
	}
	if _, err := bytecode.Width([]int32{9999}, 0); err == nil {
		t.Error("unknown opcode accepted")
	}
}

func TestVerifyCatchesBadJump(t *testing.T) {
	u := &bytecode.Unit{
		Name:         "bad",
		Code:         []int32{int32(bytecode.OpJump), 1, int32(bytecode.OpReturn), 0},
		NumRegisters: 1,
	}
	if err := bytecode.Verify(u, 1); err == nil {
		t.Fatal("jump into an operand accepted")
	}
	u.Code[1] = 2
	if err := bytecode.Verify(u, 1); err != nil {
		t.Fatal(err)
	}
}

func TestCodecRoundTrip(t *testing.T) {
	p := compile(t, sample)
	data, err := bytecode.Encode(p)
	if err != nil {
		t.Fatal(err)
	}
	q, err := bytecode.Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if q.SourceName != p.SourceName || q.Entry != p.Entry || !slices.Equal(q.Lines, p.Lines) {
		t.Fatalf("program header changed: %+v", q)
	}
	if len(q.Units) != len(p.Units) {
		t.Fatalf("%d units, want %d", len(q.Units), len(p.Units))
	}
	for i, u := range p.Units {
		v := q.Units[i]
		if v.Name != u.Name || v.Kind != u.Kind || !slices.Equal(v.Code, u.Code) || !slices.Equal(v.SourceMap, u.SourceMap) {
			t.Fatalf("unit %d changed", i)
		}
		if v.NumRegisters != u.NumRegisters || v.NumSharedSlots != u.NumSharedSlots || v.NumTries != u.NumTries || v.NestLevel != u.NestLevel {
			t.Fatalf("unit %d layout changed", i)
		}
		if !slices.EqualFunc(v.Consts, u.Consts, value.Identical) {
			t.Fatalf("unit %d constants %v, want %v", i, v.Consts, u.Consts)
		}
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := bytecode.Decode([]byte{0xc1, 0x00}); err == nil {
		t.Fatal("garbage decoded")
	}
}

type opaque struct{}

func (opaque) TypeName() string { return "opaque" }

func TestEncodeRejectsObjectConstants(t *testing.T) {
	p := &bytecode.Program{Units: []*bytecode.Unit{{
		Name:   "main",
		Code:   []int32{int32(bytecode.OpReturn), bytecode.NoReg},
		Consts: []value.Value{value.Obj(opaque{})},
	}}}
	if _, err := bytecode.Encode(p); err == nil {
		t.Fatal("object constant encoded")
	}
}

func TestDisassembleText(t *testing.T) {
	p := compile(t, sample)
	var buf bytes.Buffer
	if err := bytecode.Disassemble(&buf, p); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"unit u0 main (script)", "entry", "unit u1 add (function)", `"total: "`, "try ", "etry", "ret"} {
		if !strings.Contains(out, want) {
			t.Errorf("listing lacks %q:\n%s", want, out)
		}
	}
}

func TestDisassembleYAML(t *testing.T) {
	p := compile(t, sample)
	var buf bytes.Buffer
	if err := bytecode.DisassembleYAML(&buf, p); err != nil {
		t.Fatal(err)
	}
	var doc struct {
		Source string `yaml:"source"`
		Units  []struct {
			Name string `yaml:"name"`
			Code []struct {
				Op string `yaml:"op"`
			} `yaml:"code"`
		} `yaml:"units"`
	}
	if err := yaml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Source != "test.lm" || len(doc.Units) != 2 || doc.Units[1].Name != "add" {
		t.Fatalf("unexpected document: %+v", doc)
	}
	ops := make([]string, 0, len(doc.Units[1].Code))
	for _, ins := range doc.Units[1].Code {
		ops = append(ops, ins.Op)
	}
	if !slices.Contains(ops, "add") || ops[len(ops)-1] != "ret" {
		t.Fatalf("add unit ops %v", ops)
	}
}
