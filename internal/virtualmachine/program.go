package virtualmachine

import (
	"context"
	"errors"
	"fmt"

	"github.com/joeandaverde/chidb/internal/btree"
	"github.com/joeandaverde/chidb/internal/storage"
)

type reg uint

const (
	RegUnspecified reg = iota
	RegNull
	RegInt32
	RegString
	RegBinary
	RegRecord
)

type register struct {
	typ  reg
	data interface{}
}

// Output is a single result row produced by a program.
type Output struct {
	Data []interface{}
}

// cursorSlot is an open cursor in a program. Read cursors wrap a b-tree
// scan; write cursors only remember the root page, since inserts go
// through the b-tree top level.
type cursorSlot struct {
	name     string
	rootPage int
	writable bool
	scan     *btree.Cursor
}

// Program executes database machine instructions against a b-tree
// file. Result rows are delivered on the output channel while Run is
// in flight.
type Program struct {
	pid          int
	bt           *btree.BTree
	instructions []*Instruction
	regs         []*register
	cursors      []*cursorSlot
	pc           int
	halted       bool
	out          chan Output
	err          string
}

// NewProgram readies a prepared statement for execution.
func NewProgram(pid int, bt *btree.BTree, stmt *PreparedStatement) *Program {
	regs := make([]*register, 10)
	for i := range regs {
		regs[i] = &register{typ: RegUnspecified}
	}

	return &Program{
		pid:          pid,
		bt:           bt,
		pc:           0,
		cursors:      make([]*cursorSlot, 5),
		instructions: stmt.Instructions,
		regs:         regs,
		out:          make(chan Output),
	}
}

// Pid returns the program identifier.
func (p *Program) Pid() int {
	return p.pid
}

// Output is the channel result rows are delivered on. It is closed when
// Run returns.
func (p *Program) Output() <-chan Output {
	return p.out
}

// Run executes the program to completion.
func (p *Program) Run(ctx context.Context) error {
	defer close(p.out)
	defer p.closeCursors()

	for p.pc < len(p.instructions) {
		nextPc := p.step(ctx)
		if nextPc == -1 {
			return errors.New(p.err)
		}
		if p.halted {
			break
		}
		if nextPc > 0 {
			p.pc = nextPc
			continue
		}
		p.pc = p.pc + 1
	}
	return nil
}

func (p *Program) step(ctx context.Context) int {
	i := p.instructions[p.pc]

	switch i.Op {
	case OpNoOp:
	case OpHalt:
		p.halted = true
	case OpInteger:
		p.setIntReg(i.P2, i.P1)
	case OpString:
		r := p.reg(i.P2)
		r.data = i.P4.(string)
		r.typ = RegString
	case OpNull:
		r := p.reg(i.P2)
		r.data = nil
		r.typ = RegNull
	case OpSCopy:
		r1 := p.reg(i.P1)
		r2 := p.reg(i.P2)
		r2.data = r1.data
		r2.typ = r1.typ
	case OpEq:
		if eq(p.reg(i.P1), p.reg(i.P3)) {
			return i.P2
		}
	case OpNe:
		if !eq(p.reg(i.P1), p.reg(i.P3)) {
			return i.P2
		}
	case OpLt:
		if less(p.reg(i.P1), p.reg(i.P3)) {
			return i.P2
		}
	case OpLe:
		a, b := p.reg(i.P1), p.reg(i.P3)
		if less(a, b) || eq(a, b) {
			return i.P2
		}
	case OpGt:
		a, b := p.reg(i.P1), p.reg(i.P3)
		if !less(a, b) && !eq(a, b) {
			return i.P2
		}
	case OpGe:
		if !less(p.reg(i.P1), p.reg(i.P3)) {
			return i.P2
		}
	case OpOpenRead:
		pageNo := p.reg(i.P2).data.(int)
		slot := &cursorSlot{
			name:     i.P4.(string),
			rootPage: pageNo,
			scan:     btree.NewCursor(p.bt, pageNo, i.P4.(string)),
		}
		p.setCursor(i.P1, slot)
	case OpOpenWrite:
		pageNo := p.reg(i.P2).data.(int)
		p.setCursor(i.P1, &cursorSlot{
			name:     i.P4.(string),
			rootPage: pageNo,
			writable: true,
		})
	case OpClose:
		if c := p.cursors[i.P1]; c != nil && c.scan != nil {
			c.scan.Close()
		}
		p.cursors[i.P1] = nil
	case OpRewind:
		cursor := p.cursors[i.P1]
		hasRecords, err := cursor.scan.Rewind()
		if err != nil {
			return p.error(fmt.Sprintf("rewind %q: %s", cursor.name, err))
		}
		if !hasRecords {
			return i.P2
		}
	case OpNext:
		cursor := p.cursors[i.P1]
		hasMore, err := cursor.scan.Next()
		if err != nil {
			return p.error(fmt.Sprintf("next %q: %s", cursor.name, err))
		}
		if hasMore {
			return i.P2
		}
	case OpKey:
		cursor := p.cursors[i.P1]
		cell, err := cursor.scan.CurrentCell()
		if err != nil {
			return p.error(fmt.Sprintf("key %q: %s", cursor.name, err))
		}
		p.setIntReg(i.P2, int(cell.RowID))
	case OpColumn:
		cursor := p.cursors[i.P1]
		r := p.reg(i.P3)
		cell, err := cursor.scan.CurrentCell()
		if err != nil {
			return p.error(fmt.Sprintf("column %q: %s", cursor.name, err))
		}
		record, err := storage.ReadRecord(cell.Data)
		if err != nil {
			return p.error(fmt.Sprintf("column %q: %s", cursor.name, err))
		}
		if i.P2 >= len(record.Fields) {
			return p.error(fmt.Sprintf("column %q: no column %d", cursor.name, i.P2))
		}

		field := record.Fields[i.P2]
		r.data = field.Data
		switch {
		case field.Data == nil:
			r.typ = RegNull
		case field.Type == storage.Text:
			r.typ = RegString
		case field.Type == storage.Integer:
			r.typ = RegInt32
			r.data = int(field.Data.(int32))
		case field.Type == storage.SmallInt:
			r.typ = RegInt32
			r.data = int(field.Data.(int16))
		case field.Type == storage.Byte:
			r.typ = RegInt32
			r.data = int(field.Data.(byte))
		default:
			return p.error(fmt.Sprintf("unexpected field type %v", field.Type))
		}
	case OpResultRow:
		startReg := i.P1
		endReg := startReg + i.P2 - 1
		var result []interface{}
		for n := startReg; n <= endReg; n++ {
			r := p.reg(n)
			switch r.typ {
			case RegInt32:
				result = append(result, r.data.(int))
			case RegBinary:
				result = append(result, r.data.([]byte))
			case RegString:
				result = append(result, r.data.(string))
			case RegNull:
				result = append(result, nil)
			}
		}

		select {
		case <-ctx.Done():
			p.halted = true
		case p.out <- Output{Data: result}:
		}
	case OpMakeRecord:
		startReg := i.P1
		endReg := startReg + i.P2 - 1
		destReg := p.reg(i.P3)
		var fields []*storage.Field

		for n := startReg; n <= endReg; n++ {
			r := p.reg(n)
			switch r.typ {
			case RegInt32:
				fields = append(fields, &storage.Field{
					Type: storage.Integer,
					Data: int32(r.data.(int)),
				})
			case RegString:
				fields = append(fields, &storage.Field{
					Type: storage.Text,
					Data: r.data.(string),
				})
			case RegNull:
				fields = append(fields, &storage.Field{
					Type: storage.Null,
					Data: nil,
				})
			default:
				return p.error("unsupported register type for record")
			}
		}

		destReg.typ = RegRecord
		destReg.data = storage.NewRecord(fields)
	case OpInsert:
		cursor := p.cursors[i.P1]
		if cursor == nil || !cursor.writable {
			return p.error("insert requires a write cursor")
		}
		record := p.reg(i.P2).data.(storage.Record)
		key := p.reg(i.P3).data.(int)

		payload, err := record.Bytes()
		if err != nil {
			return p.error(fmt.Sprintf("insert %q: %s", cursor.name, err))
		}
		if err := p.bt.InsertInTable(cursor.rootPage, uint32(key), payload); err != nil {
			return p.error(fmt.Sprintf("insert %q: %s", cursor.name, err))
		}
	case OpIdxInsert:
		cursor := p.cursors[i.P1]
		if cursor == nil || !cursor.writable {
			return p.error("index insert requires a write cursor")
		}
		keyIdx := p.reg(i.P2).data.(int)
		keyPk := p.reg(i.P3).data.(int)
		if err := p.bt.InsertInIndex(cursor.rootPage, uint32(keyIdx), uint32(keyPk)); err != nil {
			return p.error(fmt.Sprintf("index insert %q: %s", cursor.name, err))
		}
	case OpCreateTable:
		rootPage, err := p.bt.NewNode(storage.PageTypeLeaf)
		if err != nil {
			return p.error(fmt.Sprintf("unable to allocate page for table: %s", err))
		}
		p.setIntReg(i.P1, rootPage)
	case OpCreateIndex:
		rootPage, err := p.bt.NewNode(storage.PageTypeLeafIndex)
		if err != nil {
			return p.error(fmt.Sprintf("unable to allocate page for index: %s", err))
		}
		p.setIntReg(i.P1, rootPage)
	default:
		return p.error(fmt.Sprintf("unknown opcode %v", i.Op))
	}

	return 0
}

func (p *Program) setCursor(i int, slot *cursorSlot) {
	for len(p.cursors) <= i {
		p.cursors = append(p.cursors, nil)
	}
	p.cursors[i] = slot
}

func (p *Program) closeCursors() {
	for i, c := range p.cursors {
		if c != nil && c.scan != nil {
			c.scan.Close()
		}
		p.cursors[i] = nil
	}
}

func (p *Program) setIntReg(r int, v int) {
	dst := p.reg(r)
	dst.typ = RegInt32
	dst.data = v
}

func (p *Program) error(message string) int {
	p.err = message
	return -1
}

func (p *Program) reg(i int) *register {
	for len(p.regs) <= i {
		p.regs = append(p.regs, &register{typ: RegUnspecified})
	}
	return p.regs[i]
}

func less(a *register, b *register) bool {
	if a.typ != b.typ {
		return false
	}

	switch a.typ {
	case RegString:
		return a.data.(string) < b.data.(string)
	case RegInt32:
		return a.data.(int) < b.data.(int)
	case RegNull:
		return false
	case RegBinary:
		return len(a.data.([]byte)) < len(b.data.([]byte))
	}

	return false
}

func eq(a *register, b *register) bool {
	return !less(a, b) && !less(b, a)
}
