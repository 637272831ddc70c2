package virtualmachine

// PreparedStatement is a compiled program ready to run in the database
// machine.
type PreparedStatement struct {
	Tag          string
	Columns      []string
	Instructions []*Instruction
}

// PrepareSet compiles a program that stores value under key in the
// table b-tree rooted at rootPage.
func PrepareSet(rootPage int, key int, value string) *PreparedStatement {
	return &PreparedStatement{
		Tag:     "set",
		Columns: nil,
		Instructions: []*Instruction{
			{Op: OpInteger, P1: rootPage, P2: 0, Comment: "root page"},
			{Op: OpOpenWrite, P1: 0, P2: 0, P4: "t", Comment: "write cursor"},
			{Op: OpInteger, P1: key, P2: 1, Comment: "key"},
			{Op: OpString, P2: 2, P4: value, Comment: "value"},
			{Op: OpMakeRecord, P1: 2, P2: 1, P3: 3},
			{Op: OpInsert, P1: 0, P2: 3, P3: 1},
			{Op: OpClose, P1: 0},
			{Op: OpHalt},
		},
	}
}

// PrepareGet compiles a program that emits the value stored under key
// in the table b-tree rooted at rootPage.
func PrepareGet(rootPage int, key int) *PreparedStatement {
	return &PreparedStatement{
		Tag:     "get",
		Columns: []string{"value"},
		Instructions: []*Instruction{
			{Op: OpInteger, P1: rootPage, P2: 0, Comment: "root page"},
			{Op: OpInteger, P1: key, P2: 1, Comment: "key sought"},
			{Op: OpOpenRead, P1: 0, P2: 0, P4: "t"},
			{Op: OpRewind, P1: 0, P2: 9, Comment: "empty table"},
			{Op: OpKey, P1: 0, P2: 2},               // 4
			{Op: OpNe, P1: 2, P2: 8, P3: 1},         // 5: not this row
			{Op: OpColumn, P1: 0, P2: 0, P3: 3},     // 6
			{Op: OpResultRow, P1: 3, P2: 1},         // 7
			{Op: OpNext, P1: 0, P2: 4, Comment: ""}, // 8
			{Op: OpClose, P1: 0},                    // 9
			{Op: OpHalt},
		},
	}
}

// PrepareScan compiles a program that emits every (key, value) pair of
// the table b-tree rooted at rootPage in key order.
func PrepareScan(rootPage int) *PreparedStatement {
	return &PreparedStatement{
		Tag:     "scan",
		Columns: []string{"key", "value"},
		Instructions: []*Instruction{
			{Op: OpInteger, P1: rootPage, P2: 0, Comment: "root page"},
			{Op: OpOpenRead, P1: 0, P2: 0, P4: "t"},
			{Op: OpRewind, P1: 0, P2: 7, Comment: "empty table"},
			{Op: OpKey, P1: 0, P2: 1},           // 3
			{Op: OpColumn, P1: 0, P2: 0, P3: 2}, // 4
			{Op: OpResultRow, P1: 1, P2: 2},     // 5
			{Op: OpNext, P1: 0, P2: 3},          // 6
			{Op: OpClose, P1: 0},                // 7
			{Op: OpHalt},
		},
	}
}

// PrepareCreateTable compiles a program that allocates a fresh table
// b-tree and emits its root page.
func PrepareCreateTable() *PreparedStatement {
	return &PreparedStatement{
		Tag:     "create",
		Columns: []string{"rootpage"},
		Instructions: []*Instruction{
			{Op: OpCreateTable, P1: 0},
			{Op: OpResultRow, P1: 0, P2: 1},
			{Op: OpHalt},
		},
	}
}

// PrepareCreateIndex compiles a program that allocates a fresh index
// b-tree and emits its root page.
func PrepareCreateIndex() *PreparedStatement {
	return &PreparedStatement{
		Tag:     "createindex",
		Columns: []string{"rootpage"},
		Instructions: []*Instruction{
			{Op: OpCreateIndex, P1: 0},
			{Op: OpResultRow, P1: 0, P2: 1},
			{Op: OpHalt},
		},
	}
}
