// Package loader parses APEX assembly listings into pre-decoded programs.
//
// One instruction per line, fields separated by commas and/or spaces:
//
//	MOVC,R1,#5
//	ADD,R3,R1,R2
//	STORE,R3,R2,#0
//	HALT
//
// Blank lines and text following "//" or ";" are ignored.
package loader

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sarchlab/apexsim/emu"
	"github.com/sarchlab/apexsim/insts"
)

// Program is a loaded APEX program ready for execution.
type Program struct {
	// Instructions holds the program in address order.
	Instructions []insts.Instruction
	// CodeBase is the address of the first instruction.
	CodeBase int
}

// Len returns the number of instructions.
func (p *Program) Len() int {
	return len(p.Instructions)
}

// PC returns the address of instruction index i.
func (p *Program) PC(i int) int {
	return p.CodeBase + i*emu.InstructionSize
}

// SyntaxError reports a malformed source line.
type SyntaxError struct {
	Line int
	Text string
	Msg  string
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Msg, e.Text)
}

// Load reads and parses the program file at path.
func Load(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open program file: %w", err)
	}
	defer func() { _ = f.Close() }()

	prog, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return prog, nil
}

// Parse reads an assembly listing from r.
func Parse(r io.Reader) (*Program, error) {
	prog := &Program{CodeBase: emu.DefaultCodeBase}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		text := stripComment(scanner.Text())
		if text == "" {
			continue
		}

		inst, err := ParseLine(text)
		if err != nil {
			return nil, &SyntaxError{Line: lineNo, Text: text, Msg: err.Error()}
		}
		prog.Instructions = append(prog.Instructions, inst)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read program: %w", err)
	}

	return prog, nil
}

// ParseLine parses a single instruction.
func ParseLine(text string) (insts.Instruction, error) {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(fields) == 0 {
		return insts.Instruction{}, fmt.Errorf("empty instruction")
	}

	op, ok := insts.ParseOp(strings.ToUpper(fields[0]))
	if !ok {
		return insts.Instruction{}, fmt.Errorf("unknown opcode %s", fields[0])
	}

	p := operandParser{args: fields[1:]}
	inst := insts.Instruction{Op: op}

	switch op {
	case insts.OpADD, insts.OpSUB, insts.OpMUL, insts.OpAND, insts.OpOR,
		insts.OpXOR, insts.OpLDR:
		inst.Rd, inst.Rs1, inst.Rs2 = p.reg(), p.reg(), p.reg()
	case insts.OpADDL, insts.OpSUBL, insts.OpLOAD, insts.OpJAL:
		inst.Rd, inst.Rs1, inst.Imm = p.reg(), p.reg(), p.imm()
	case insts.OpSTORE:
		inst.Rs1, inst.Rs2, inst.Imm = p.reg(), p.reg(), p.imm()
	case insts.OpSTR:
		inst.Rs1, inst.Rs2, inst.Rs3 = p.reg(), p.reg(), p.reg()
	case insts.OpMOVC:
		inst.Rd, inst.Imm = p.reg(), p.imm()
	case insts.OpJUMP:
		inst.Rs1, inst.Imm = p.reg(), p.imm()
	case insts.OpCMP:
		inst.Rs1, inst.Rs2 = p.reg(), p.reg()
	case insts.OpBZ, insts.OpBNZ:
		inst.Imm = p.imm()
	case insts.OpHALT, insts.OpNOP:
	}

	if err := p.finish(); err != nil {
		return insts.Instruction{}, err
	}
	return inst, nil
}

func stripComment(line string) string {
	for _, marker := range []string{"//", ";"} {
		if i := strings.Index(line, marker); i >= 0 {
			line = line[:i]
		}
	}
	return strings.TrimSpace(line)
}

// operandParser consumes operands left to right and keeps the first error.
type operandParser struct {
	args []string
	err  error
}

func (p *operandParser) next(kind string) (string, bool) {
	if p.err != nil {
		return "", false
	}
	if len(p.args) == 0 {
		p.err = fmt.Errorf("missing %s operand", kind)
		return "", false
	}
	a := p.args[0]
	p.args = p.args[1:]
	return a, true
}

func (p *operandParser) reg() int {
	a, ok := p.next("register")
	if !ok {
		return 0
	}
	if len(a) < 2 || (a[0] != 'R' && a[0] != 'r') {
		p.err = fmt.Errorf("expected register, got %s", a)
		return 0
	}
	n, err := strconv.Atoi(a[1:])
	if err != nil || n < 0 || n >= emu.NumArchRegs {
		p.err = fmt.Errorf("invalid register %s", a)
		return 0
	}
	return n
}

func (p *operandParser) imm() int {
	a, ok := p.next("literal")
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimPrefix(a, "#"))
	if err != nil {
		p.err = fmt.Errorf("invalid literal %s", a)
		return 0
	}
	return n
}

func (p *operandParser) finish() error {
	if p.err != nil {
		return p.err
	}
	if len(p.args) > 0 {
		return fmt.Errorf("unexpected operands %v", p.args)
	}
	return nil
}
