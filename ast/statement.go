package ast

// Statement is the marker interface implemented by every top-level AST
// variant spec.md §3 lists.
type Statement interface {
	stmtNode()
}

// ReturnValues mirrors DynamoDB's ReturnValues enum for mutating operations.
type ReturnValues string

const (
	ReturnsNone       ReturnValues = "NONE"
	ReturnsAllNew     ReturnValues = "ALL_NEW"
	ReturnsAllOld     ReturnValues = "ALL_OLD"
	ReturnsUpdatedNew ReturnValues = "UPDATED_NEW"
	ReturnsUpdatedOld ReturnValues = "UPDATED_OLD"
)

// Select is `SELECT (* | attrs) FROM table [USING idx] [WHERE ...] [ORDER BY ...] [LIMIT n] [CONSISTENT READ]`.
type Select struct {
	Where          Expression
	Table          string
	Index          string
	OrderByAttr    string
	Columns        []string
	Limit          *int
	All            bool
	OrderByDesc    bool
	ConsistentRead bool
}

func (*Select) stmtNode() {}

// Count is `SELECT count(*) FROM table [USING idx] [WHERE ...]`.
type Count struct {
	Where Expression
	Table string
	Index string
}

func (*Count) stmtNode() {}

// Scan is `SCAN (* | attrs) FROM table [USING idx] [FILTER expr] [LIMIT n] [THREADS n]`.
type Scan struct {
	Filter  Expression
	Table   string
	Index   string
	Columns []string
	Limit   *int
	Threads int
	All     bool
}

func (*Scan) stmtNode() {}

// Insert is `INSERT INTO table (cols) VALUES (tuple), (tuple), ... [IF NOT EXISTS]`.
type Insert struct {
	Table       string
	Columns     []string
	Rows        [][]Literal
	IfNotExists bool
}

func (*Insert) stmtNode() {}

// UpdateClauseKind discriminates the four UpdateExpression clause families.
type UpdateClauseKind int

const (
	ClauseSet UpdateClauseKind = iota
	ClauseAdd
	ClauseRemove
	ClauseDelete
)

// UpdateClause is one SET/ADD/REMOVE/DELETE item inside an UPDATE statement.
// Rhs is nil for REMOVE.
type UpdateClause struct {
	Rhs  Expression
	Path AttributePath
	Kind UpdateClauseKind
}

// Update is `UPDATE table (SET|ADD|REMOVE|DELETE ...)+ [WHERE ...] [RETURNS ...]`.
type Update struct {
	Where         Expression
	Table         string
	Clauses       []UpdateClause
	Returns       ReturnValues
	ScanConfirmed bool
}

func (*Update) stmtNode() {}

// Delete is `DELETE FROM table [WHERE ...] [RETURNS ...]`.
type Delete struct {
	Where         Expression
	Table         string
	Returns       ReturnValues
	ScanConfirmed bool
}

func (*Delete) stmtNode() {}

// ScalarType enumerates the DQL attribute types from spec.md §4.2.
type ScalarType string

const (
	TypeString    ScalarType = "STRING"
	TypeNumber    ScalarType = "NUMBER"
	TypeBinary    ScalarType = "BINARY"
	TypeStringSet ScalarType = "STRING SET"
	TypeNumberSet ScalarType = "NUMBER SET"
	TypeBinarySet ScalarType = "BINARY SET"
	TypeBool      ScalarType = "BOOL"
	TypeNull      ScalarType = "NULL"
	TypeList      ScalarType = "LIST"
	TypeMap       ScalarType = "MAP"
)

// KeyRole marks an attribute declaration as a primary-key participant.
type KeyRole string

const (
	RoleNone  KeyRole = ""
	RoleHash  KeyRole = "HASH"
	RoleRange KeyRole = "RANGE"
)

// AttrDecl is one `attr TYPE [HASH KEY | RANGE KEY | INDEX("name")]` clause
// inside a CREATE TABLE statement.
type AttrDecl struct {
	Name       string
	Type       ScalarType
	KeyRole    KeyRole
	IndexNames []string
}

// Throughput is `THROUGHPUT (r, w)` or the PAY_PER_REQUEST sentinel.
type Throughput struct {
	PayPerRequest bool
	Read          int
	Write         int
}

// IndexKind discriminates LOCAL from GLOBAL secondary indexes.
type IndexKind string

const (
	IndexLocal  IndexKind = "LOCAL"
	IndexGlobal IndexKind = "GLOBAL"
)

// IndexDecl is one index clause inside CREATE TABLE, or the target of an
// ALTER TABLE ... CREATE INDEX.
type IndexDecl struct {
	Throughput *Throughput
	Name       string
	Kind       IndexKind
	HashAttr   string
	RangeAttr  string
	Projection []string
}

// CreateTable is `CREATE TABLE [IF NOT EXISTS] name (attr_decl, ..., [THROUGHPUT (r,w)], [index_decl]*)`.
type CreateTable struct {
	Throughput  *Throughput
	Name        string
	Attrs       []AttrDecl
	Indexes     []IndexDecl
	IfNotExists bool
}

func (*CreateTable) stmtNode() {}

// AlterKind discriminates the ALTER TABLE sub-forms.
type AlterKind int

const (
	AlterSetThroughput AlterKind = iota
	AlterSetIndexThroughput
	AlterDropIndex
	AlterCreateIndex
)

// AlterTable is `ALTER TABLE name (SET THROUGHPUT (r,w) | SET INDEX idx THROUGHPUT (r,w) | DROP INDEX idx | CREATE INDEX ...)`.
type AlterTable struct {
	Throughput *Throughput
	NewIndex   *IndexDecl
	Name       string
	IndexName  string
	Kind       AlterKind
}

func (*AlterTable) stmtNode() {}

// DropTable is `DROP TABLE [IF EXISTS] name`.
type DropTable struct {
	Name     string
	IfExists bool
}

func (*DropTable) stmtNode() {}

// Explain is `EXPLAIN <stmt>` — render the plan without executing it.
type Explain struct {
	Stmt Statement
}

func (*Explain) stmtNode() {}

// Analyze is `ANALYZE <stmt>` — execute the plan and report counters
// alongside results.
type Analyze struct {
	Stmt Statement
}

func (*Analyze) stmtNode() {}

// Dump is `DUMP SCHEMA [table, ...]`; an empty Tables means "all tables".
type Dump struct {
	Tables []string
}

func (*Dump) stmtNode() {}

// Load is `LOAD FROM STRING "a; b; ..."` (inline batch) or `LOAD FROM FILE
// "path"` (script file), distinguished by FromFile.
type Load struct {
	Source   string
	FromFile bool
}

func (*Load) stmtNode() {}

// Help is the no-I/O `HELP` statement.
type Help struct{}

func (*Help) stmtNode() {}
