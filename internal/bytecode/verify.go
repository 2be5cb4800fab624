package bytecode

import "fmt"

// Verify checks that u decodes into whole instructions, that every jump
// lands on an instruction start and that constant and unit references are
// in range. numUnits is the size of the program's unit table.
func Verify(u *Unit, numUnits int) error {
	starts := make(map[int]bool)
	for pc := 0; pc < len(u.Code); {
		starts[pc] = true
		w, err := Width(u.Code, pc)
		if err != nil {
			return fmt.Errorf("%s: %w", u.Name, err)
		}
		pc += w
	}
	for pc := 0; pc < len(u.Code); {
		op := Opcode(u.Code[pc])
		info := infos[op]
		w, _ := Width(u.Code, pc)
		for i, kind := range info.Operands {
			word := u.Code[pc+1+i]
			switch kind {
			case Const:
				if word < 0 || int(word) >= len(u.Consts) {
					return fmt.Errorf("bytecode: %s: constant %d out of range at %d", u.Name, word, pc)
				}
			case Addr:
				if !starts[pc+int(word)] {
					return fmt.Errorf("bytecode: %s: %s at %d jumps into the middle of an instruction", u.Name, info.Name, pc)
				}
			case Child:
				if word < 0 || int(word) >= numUnits {
					return fmt.Errorf("bytecode: %s: unit %d out of range at %d", u.Name, word, pc)
				}
			case Reg:
				if word != NoReg && int(word) >= u.NumRegisters {
					return fmt.Errorf("bytecode: %s: register r%d out of range at %d", u.Name, word, pc)
				}
			}
		}
		pc += w
	}
	if len(u.Code) == 0 {
		return fmt.Errorf("bytecode: %s: empty unit", u.Name)
	}
	return nil
}
