// Package insts provides MIPS trace-line instruction definitions and decoding.
//
// This package translates text trace lines of the form
//
//	<hex-address> <mnemonic> <operands...>
//
// into structured instruction descriptors. It supports:
//   - Register-type arithmetic: add/addi/addu, sll, ori, lui
//   - Memory access: lw, sw (with a pre-resolved data address)
//   - Control flow: beq, j, jr, jal
//   - syscall and nop
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst, err := decoder.Decode("400118 lw $4, 0($29) 7fffee50")
package insts

// Kind identifies the instruction variant occupying a pipeline slot.
type Kind uint8

// Instruction kinds. KindNop doubles as the empty/bubble state of a
// pipeline slot.
const (
	KindNop Kind = iota
	KindRType
	KindLoadWord
	KindStoreWord
	KindBranch
	KindJump
	KindJumpAndLink
	KindSyscall
)

// String returns a short name for the kind.
func (k Kind) String() string {
	switch k {
	case KindNop:
		return "NOP"
	case KindRType:
		return "RTYPE"
	case KindLoadWord:
		return "LW"
	case KindStoreWord:
		return "SW"
	case KindBranch:
		return "BRANCH"
	case KindJump:
		return "JUMP"
	case KindJumpAndLink:
		return "JAL"
	case KindSyscall:
		return "SYSCALL"
	default:
		return "UNKNOWN"
	}
}

// RTypeFields holds the operands of a register-type instruction.
type RTypeFields struct {
	// Mnemonic is the raw mnemonic text (add, addi, sll, ori, lui, ...).
	Mnemonic string
	// Dest is the destination register number.
	Dest int
	// Src1 is the first source register, or -1 when not tracked.
	Src1 int
	// Src2 is the second source register or an immediate constant,
	// or -1 when not tracked.
	Src2 int
}

// LoadFields holds the operands of a load-word instruction.
type LoadFields struct {
	// Dest is the destination register number.
	Dest int
	// Base is the base address register, or -1 when not tracked.
	Base int
	// DataAddress is the resolved memory address being read.
	DataAddress uint32
}

// StoreFields holds the operands of a store-word instruction.
type StoreFields struct {
	// Src is the register whose value is stored.
	Src int
	// Base is the base address register, or -1 when not tracked.
	Base int
	// DataAddress is the resolved memory address being written.
	DataAddress uint32
}

// BranchFields holds the operands of a conditional branch.
type BranchFields struct {
	// Src1 and Src2 are the compared registers, or -1 when not tracked.
	Src1 int
	Src2 int
}

// JumpFields holds the raw mnemonic of a jump instruction.
type JumpFields struct {
	Mnemonic string
}

// Instruction represents one decoded trace line.
//
// Exactly one of the payload pointers is non-nil, matching Kind; the
// payloads for the remaining kinds do not exist. KindNop, KindSyscall,
// and KindJumpAndLink carry no payload beyond the address (a jal keeps
// its mnemonic in Jump).
type Instruction struct {
	// Kind selects the active variant.
	Kind Kind

	// Address is the instruction fetch address from the trace line.
	Address uint32

	RType  *RTypeFields
	Load   *LoadFields
	Store  *StoreFields
	Branch *BranchFields
	Jump   *JumpFields
}

// DataAddress returns the memory address accessed by a load or store,
// and whether the instruction accesses memory at all.
func (i *Instruction) DataAddress() (uint32, bool) {
	switch i.Kind {
	case KindLoadWord:
		return i.Load.DataAddress, true
	case KindStoreWord:
		return i.Store.DataAddress, true
	default:
		return 0, false
	}
}
