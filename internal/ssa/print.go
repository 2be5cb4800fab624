package ssa

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes a readable listing of f and its descendants.
func Dump(w io.Writer, f *Form) error {
	var sb strings.Builder
	_ = f.Walk(func(f *Form) error {
		f.dump(&sb)
		return nil
	})
	_, err := io.WriteString(w, sb.String())
	return err
}

func (f *Form) dump(sb *strings.Builder) {
	fmt.Fprintf(sb, "form %s (%s) level=%d params=%d", f.Name, f.Kind, f.Level, f.NumParams)
	if len(f.PinnedNames) > 0 {
		fmt.Fprintf(sb, " pinned=[%s]", strings.Join(f.PinnedNames, " "))
	}
	sb.WriteByte('\n')
	order := f.Order
	if order == nil {
		for _, b := range f.Blocks {
			order = append(order, b.ID)
		}
	}
	for _, bid := range order {
		blk := f.Blocks[bid]
		fmt.Fprintf(sb, "  %s: preds=%v succs=%v", blk, blk.Preds, blk.Succs)
		if len(blk.ExcPreds) > 0 {
			fmt.Fprintf(sb, " excpreds=%v", blk.ExcPreds)
		}
		if blk.LiveIn != nil {
			fmt.Fprintf(sb, " in=%s out=%s", f.varList(blk.LiveIn.Sorted()), f.varList(blk.LiveOut.Sorted()))
		}
		sb.WriteByte('\n')
		for id := blk.First; id != NoStmt; id = f.Stmts[id].Next {
			sb.WriteString("    ")
			sb.WriteString(f.FormatStatement(f.Stmts[id]))
			sb.WriteByte('\n')
		}
	}
}

func (f *Form) varList(vs []VarID) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = f.Vars[v].String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// FormatStatement renders one statement on a single line.
func (f *Form) FormatStatement(s *Statement) string {
	var sb strings.Builder
	if s.Declared != NoVar {
		sb.WriteString(f.Vars[s.Declared].String())
		sb.WriteString(" = ")
	}
	sb.WriteString(s.Op.String())
	switch s.Op {
	case OpAssignConst:
		sb.WriteString(" " + s.Const.Repr())
	case OpBinary:
		sb.WriteString(" " + s.Bin.String())
	case OpUnary:
		sb.WriteString(" " + s.Un.String())
	case OpAssignParam, OpAssignCollapse, OpEnterTry, OpExitTry:
		fmt.Fprintf(&sb, " #%d", s.Index)
	}
	if s.Name != "" {
		fmt.Fprintf(&sb, " %q", s.Name)
	}
	if len(s.Used) > 0 {
		sb.WriteString(" " + f.varList(s.Used))
	}
	if s.Call != nil {
		fmt.Fprintf(&sb, " this=%t omit=%t args=%v", s.Call.HasThis, s.Call.Omit, s.Call.Args)
	}
	if s.Child != nil {
		fmt.Fprintf(&sb, " <%s>", s.Child.Name)
	}
	switch s.Op {
	case OpJump:
		fmt.Fprintf(&sb, " -> %d", s.Target)
	case OpBranch:
		fmt.Fprintf(&sb, " ? %d : %d", s.True, s.False)
	case OpEnterTry:
		fmt.Fprintf(&sb, " -> %d catch %d", s.Target, s.Catch)
	case OpParentRead, OpParentWrite:
		if s.Access == ViaSharedFrame {
			fmt.Fprintf(&sb, " shared@%d", s.Owner.Level)
		} else {
			sb.WriteString(" accessmap")
		}
	}
	return sb.String()
}
