package virtualmachine

import "fmt"

// Op is a database machine opcode.
type Op uint8

const (
	OpNoOp Op = iota

	// Opens a read cursor over the b-tree rooted at the page in register P2.
	// P1 - cursor
	// P2 - register holding the root page
	// P4 - cursor name
	OpOpenRead

	// Opens a write cursor over the b-tree rooted at the page in register P2.
	// P1 - cursor
	// P2 - register holding the root page
	// P4 - cursor name
	OpOpenWrite

	// Closes cursor P1.
	OpClose

	// Point to the first entry in the b-tree.
	// P1 - cursor
	// P2 - jump address if the b-tree is empty
	OpRewind

	// Advance the cursor and jump if there are more entries, otherwise fall through.
	// P1 - cursor
	// P2 - jump address
	OpNext

	// Store the key of the current entry.
	// P1 - cursor
	// P2 - destination register
	OpKey

	// Store a column of the current entry.
	// P1 - cursor
	// P2 - column index (0 based)
	// P3 - destination register
	OpColumn

	// Store an integer in a register.
	// P1 - the integer
	// P2 - destination register
	OpInteger

	// Store a string in a register.
	// P2 - destination register
	// P4 - the string
	OpString

	// Store NULL in register P2.
	OpNull

	// Shallow copy register P1 into register P2.
	OpSCopy

	// Compare registers P1 and P3, jump to P2 when the relation holds.
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe

	// Build a record from registers P1..P1+P2-1 and store it in register P3.
	OpMakeRecord

	// Insert into the table behind cursor P1.
	// P2 - register holding the record
	// P3 - register holding the key
	OpInsert

	// Insert into the index behind cursor P1.
	// P2 - register holding the index key
	// P3 - register holding the primary key
	OpIdxInsert

	// Emit registers P1..P1+P2-1 as a result row.
	OpResultRow

	// Create a table b-tree and store its root page in register P1.
	OpCreateTable

	// Create an index b-tree and store its root page in register P1.
	OpCreateIndex

	OpHalt
)

// Instruction is a single database machine instruction.
type Instruction struct {
	Op Op
	P1 int
	P2 int
	P3 int
	P4 interface{}

	Comment string
}

func (i Instruction) String() string {
	return fmt.Sprintf("%-14v | %-4d | %-4d | %-4d | %-4v | %s", i.Op, i.P1, i.P2, i.P3, i.P4, i.Comment)
}

func (o Op) String() string {
	switch o {
	case OpNoOp:
		return "NoOp"
	case OpOpenRead:
		return "OpenRead"
	case OpOpenWrite:
		return "OpenWrite"
	case OpClose:
		return "Close"
	case OpRewind:
		return "Rewind"
	case OpNext:
		return "Next"
	case OpKey:
		return "Key"
	case OpColumn:
		return "Column"
	case OpInteger:
		return "Integer"
	case OpString:
		return "String"
	case OpNull:
		return "Null"
	case OpSCopy:
		return "SCopy"
	case OpEq:
		return "Eq"
	case OpNe:
		return "Ne"
	case OpLt:
		return "Lt"
	case OpLe:
		return "Le"
	case OpGt:
		return "Gt"
	case OpGe:
		return "Ge"
	case OpMakeRecord:
		return "MakeRecord"
	case OpInsert:
		return "Insert"
	case OpIdxInsert:
		return "IdxInsert"
	case OpResultRow:
		return "ResultRow"
	case OpCreateTable:
		return "CreateTable"
	case OpCreateIndex:
		return "CreateIndex"
	case OpHalt:
		return "Halt"
	}
	return fmt.Sprintf("Op(%d)", uint8(o))
}
