package ssa

import (
	"fmt"

	"lumen/internal/value"
)

// Variable is one SSA value. It has exactly one declaring statement.
type Variable struct {
	ID VarID
	// Name is the surface name; empty for temporaries.
	Name string
	// Numbered is the unique per-declaration name ("x#3") shared by all versions.
	Numbered string
	Version  int
	Decl     StmtID
	Uses     []StmtID

	// IsConst marks variables whose value is known at compile time.
	IsConst bool
	Const   value.Value
	// Fixed records a statically known value kind, when HasFixed is set.
	Fixed    value.Kind
	HasFixed bool
}

func (v *Variable) String() string {
	switch {
	case v.Numbered != "":
		return fmt.Sprintf("%s.%d", v.Numbered, v.Version)
	case v.Name != "":
		return fmt.Sprintf("%s.%d", v.Name, v.ID)
	default:
		return fmt.Sprintf("t%d", v.ID)
	}
}

func (v *Variable) addUse(s StmtID) {
	v.Uses = append(v.Uses, s)
}

func (v *Variable) removeUse(s StmtID) {
	for i, u := range v.Uses {
		if u == s {
			v.Uses = append(v.Uses[:i], v.Uses[i+1:]...)
			return
		}
	}
}
