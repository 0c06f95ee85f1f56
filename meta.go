package dql

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/dqlang/dql/ast"
	"github.com/dqlang/dql/schema"
)

var errLoadFromFileUnsupported = errors.New("dql: LOAD FROM FILE reads from disk; the caller's REPL/CLI owns file access, not this Engine")

const helpText = `DQL — a SQL-like query language for DynamoDB

  SELECT [* | col, ...] FROM table [USING index] [WHERE ...] [ORDER BY ...] [LIMIT n] [CONSISTENT READ]
  SELECT count(*) FROM table [USING index] [WHERE ...]
  SCAN [* | col, ...] FROM table [USING index] [FILTER ...] [LIMIT n] [THREADS n]
  INSERT INTO table (cols) VALUES (...), ... [IF NOT EXISTS]
  UPDATE table [CONFIRM SCAN] SET|ADD|REMOVE|DELETE ... [WHERE ...] [RETURNS ...]
  DELETE FROM table [CONFIRM SCAN] [WHERE ...] [RETURNS ...]
  CREATE TABLE name (attr TYPE [HASH KEY|RANGE KEY], ..., [THROUGHPUT (r,w)|PAY_PER_REQUEST], [index, ...])
  ALTER TABLE name SET THROUGHPUT (r,w) | SET INDEX idx THROUGHPUT (r,w) | DROP INDEX idx | CREATE INDEX ...
  DROP TABLE [IF EXISTS] name
  EXPLAIN <statement>
  ANALYZE <statement>
  DUMP SCHEMA [table, ...]
  LOAD FROM STRING "statement; statement; ..." | LOAD FROM FILE "path"
`

// runDump renders every named table's (or every table's, if Tables is empty)
// schema back out as a CREATE TABLE statement, the inverse of parseCreateTable.
func (e *Engine) runDump(ctx context.Context, s *ast.Dump) (*Outcome, error) {
	names := s.Tables
	if len(names) == 0 {
		var err error
		names, err = e.schemas.List(ctx)
		if err != nil {
			return nil, stageErr(StageExecute, err)
		}
	}

	var b strings.Builder
	for i, name := range names {
		ts, err := e.schemas.Describe(ctx, name)
		if err != nil {
			return nil, stageErr(StageExecute, err)
		}
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(renderCreateTable(ts))
	}
	return &Outcome{Text: b.String()}, nil
}

// runLoad executes an inline batch of `;`-separated statements sequentially,
// stopping at the first failure. LOAD FROM FILE is a REPL/CLI concern (file
// access) this Engine does not perform.
func (e *Engine) runLoad(ctx context.Context, s *ast.Load) (*Outcome, error) {
	if s.FromFile {
		return nil, stageErr(StageExecute, errLoadFromFileUnsupported)
	}

	var last *Outcome
	for _, stmtSrc := range splitStatements(s.Source) {
		out, err := e.Run(ctx, stmtSrc)
		if err != nil {
			return out, err
		}
		last = out
	}
	return last, nil
}

// splitStatements breaks a `;`-separated batch into individual statement
// source strings, respecting quoted string literals so a `;` inside a
// string value is not mistaken for a separator.
func splitStatements(src string) []string {
	var stmts []string
	var cur strings.Builder
	var quote byte

	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case quote != 0:
			cur.WriteByte(c)
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
			cur.WriteByte(c)
		case c == ';':
			if s := strings.TrimSpace(cur.String()); s != "" {
				stmts = append(stmts, s)
			}
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		stmts = append(stmts, s)
	}
	return stmts
}

// renderCreateTable is the inverse of parseCreateTable: it renders a
// resolved TableSchema back as the CREATE TABLE statement that would
// reproduce it, for DUMP SCHEMA's environment-migration use case.
func renderCreateTable(ts *schema.TableSchema) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (\n", ts.Name)
	fmt.Fprintf(&b, "  %s %s HASH KEY,\n", ts.Hash.Name, ts.Hash.Type)
	if ts.Range != nil {
		fmt.Fprintf(&b, "  %s %s RANGE KEY,\n", ts.Range.Name, ts.Range.Type)
	}
	for _, idx := range ts.Indexes {
		rng := ""
		if idx.Range != nil {
			rng = ", RANGE " + idx.Range.Name
		}
		fmt.Fprintf(&b, "  %s INDEX %s (HASH %s%s)", idx.Kind, idx.Name, idx.Hash.Name, rng)
		if len(idx.Projection) > 0 {
			fmt.Fprintf(&b, " PROJECTION (%s)", strings.Join(idx.Projection, ", "))
		}
		b.WriteString(",\n")
	}
	b.WriteString("  PAY_PER_REQUEST\n")
	b.WriteString(")")
	return b.String()
}
