package insts

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedLine reports a trace line that does not match the expected
// grammar for its mnemonic.
var ErrMalformedLine = errors.New("malformed trace line")

// ErrUnknownMnemonic reports a mnemonic the decoder cannot process.
var ErrUnknownMnemonic = errors.New("unknown mnemonic")

// Decoder translates trace lines into Instructions.
type Decoder struct{}

// NewDecoder creates a new trace-line decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode parses one trace line. Hit/miss behavior is not the decoder's
// concern; it only produces the structured descriptor.
func (d *Decoder) Decode(line string) (*Instruction, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return nil, fmt.Errorf("%w: %q", ErrMalformedLine, line)
	}

	addr64, err := strconv.ParseUint(fields[0], 16, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: bad address %q: %v",
			ErrMalformedLine, fields[0], err)
	}
	address := uint32(addr64)
	mnemonic := fields[1]

	switch {
	case strings.HasPrefix(mnemonic, "add"),
		strings.HasPrefix(mnemonic, "sll"),
		strings.HasPrefix(mnemonic, "ori"):
		return d.decodeRType(address, mnemonic, fields)

	case strings.HasPrefix(mnemonic, "lui"):
		return d.decodeLUI(address, mnemonic, fields)

	case strings.HasPrefix(mnemonic, "lw"),
		strings.HasPrefix(mnemonic, "sw"):
		return d.decodeMemory(address, mnemonic, fields)

	case strings.HasPrefix(mnemonic, "beq"):
		// Compared registers are not tracked by the timing model.
		return &Instruction{
			Kind:    KindBranch,
			Address: address,
			Branch:  &BranchFields{Src1: -1, Src2: -1},
		}, nil

	case strings.HasPrefix(mnemonic, "jal"):
		return &Instruction{
			Kind:    KindJumpAndLink,
			Address: address,
			Jump:    &JumpFields{Mnemonic: mnemonic},
		}, nil

	case strings.HasPrefix(mnemonic, "jr"),
		strings.HasPrefix(mnemonic, "j"):
		return &Instruction{
			Kind:    KindJump,
			Address: address,
			Jump:    &JumpFields{Mnemonic: mnemonic},
		}, nil

	case strings.HasPrefix(mnemonic, "syscall"):
		return &Instruction{Kind: KindSyscall, Address: address}, nil

	case strings.HasPrefix(mnemonic, "nop"):
		// A nop occupies a slot with its real address so that it still
		// retires and is counted.
		return &Instruction{Kind: KindNop, Address: address}, nil

	default:
		return nil, fmt.Errorf("%w: %q at address 0x%x",
			ErrUnknownMnemonic, mnemonic, address)
	}
}

// decodeRType parses "<addr> <op> <dest> <src1> <src2-or-constant>".
func (d *Decoder) decodeRType(
	address uint32,
	mnemonic string,
	fields []string,
) (*Instruction, error) {
	if len(fields) != 5 {
		return nil, fmt.Errorf("%w: %s at address 0x%x wants 3 operands",
			ErrMalformedLine, mnemonic, address)
	}

	dest, err := ParseReg(fields[2])
	if err != nil {
		return nil, err
	}
	src1, err := ParseReg(fields[3])
	if err != nil {
		return nil, err
	}
	src2, err := ParseReg(fields[4])
	if err != nil {
		return nil, err
	}

	return &Instruction{
		Kind:    KindRType,
		Address: address,
		RType: &RTypeFields{
			Mnemonic: mnemonic,
			Dest:     dest,
			Src1:     src1,
			Src2:     src2,
		},
	}, nil
}

// decodeLUI parses "<addr> lui <dest> <constant>". The constant does not
// participate in timing, so only the destination register is kept.
func (d *Decoder) decodeLUI(
	address uint32,
	mnemonic string,
	fields []string,
) (*Instruction, error) {
	if len(fields) != 4 {
		return nil, fmt.Errorf("%w: %s at address 0x%x wants 2 operands",
			ErrMalformedLine, mnemonic, address)
	}

	dest, err := ParseReg(fields[2])
	if err != nil {
		return nil, err
	}

	return &Instruction{
		Kind:    KindRType,
		Address: address,
		RType: &RTypeFields{
			Mnemonic: mnemonic,
			Dest:     dest,
			Src1:     -1,
			Src2:     -1,
		},
	}, nil
}

// decodeMemory parses "<addr> lw|sw <reg> <offset(base)> <hex-data-addr>".
// The trailing field is the already-resolved effective address.
func (d *Decoder) decodeMemory(
	address uint32,
	mnemonic string,
	fields []string,
) (*Instruction, error) {
	if len(fields) != 5 {
		return nil, fmt.Errorf("%w: %s at address 0x%x wants 3 operands",
			ErrMalformedLine, mnemonic, address)
	}

	reg, err := ParseReg(fields[2])
	if err != nil {
		return nil, err
	}
	data64, err := strconv.ParseUint(fields[4], 16, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: bad data address %q: %v",
			ErrMalformedLine, fields[4], err)
	}
	dataAddress := uint32(data64)

	// The base register never influences timing: the effective address
	// arrives pre-resolved on the line.
	if strings.HasPrefix(mnemonic, "lw") {
		return &Instruction{
			Kind:    KindLoadWord,
			Address: address,
			Load: &LoadFields{
				Dest:        reg,
				Base:        -1,
				DataAddress: dataAddress,
			},
		}, nil
	}
	return &Instruction{
		Kind:    KindStoreWord,
		Address: address,
		Store: &StoreFields{
			Src:         reg,
			Base:        -1,
			DataAddress: dataAddress,
		},
	}, nil
}

// ParseReg parses a register token such as "$4," or "$4" or a bare
// immediate constant such as "100".
func ParseReg(token string) (int, error) {
	token = strings.TrimSuffix(token, ",")
	token = strings.TrimPrefix(token, "$")

	n, err := strconv.Atoi(token)
	if err != nil {
		return 0, fmt.Errorf("%w: bad register %q: %v",
			ErrMalformedLine, token, err)
	}
	return n, nil
}
