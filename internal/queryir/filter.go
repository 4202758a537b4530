package queryir

import (
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/roach88/ndcsqlite/internal/ir"
)

// ParseFilter parses the textual predicate syntax used by the CLI's
// --where flag into an Expression.
//
// Grammar (keywords are case-insensitive):
//
//	or    := and ("OR" and)*
//	and   := term ("AND" term)*
//	term  := "NOT" term | "(" or ")" | cmp
//	cmp   := ident ("IS" ["NOT"] "NULL" | ("=" | "LIKE") value)
//	value := 'string' | int | float | TRUE | FALSE
//
// Strings use SQL quoting; a doubled quote inside a string is a literal
// quote. Every literal becomes a ScalarValue, so it is parameter-bound like
// any protocol literal.
func ParseFilter(input string) (Expression, error) {
	raw, err := filterParser.ParseString("", input)
	if err != nil {
		return nil, BadRequest("invalid filter: %v", err)
	}
	return raw.expression(), nil
}

var filterLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Keyword", Pattern: `(?i)\b(AND|OR|NOT|IS|NULL|LIKE|TRUE|FALSE)\b`},
	{Name: "String", Pattern: `'(?:[^']|'')*'`},
	{Name: "Float", Pattern: `-?\d+\.\d+`},
	{Name: "Int", Pattern: `-?\d+`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Punct", Pattern: `[=()]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var filterParser = participle.MustBuild[filterOr](
	participle.Lexer(filterLexer),
	participle.Elide("Whitespace"),
	participle.CaseInsensitive("Keyword"),
	participle.UseLookahead(2),
)

type filterOr struct {
	Pos lexer.Position
	And []*filterAnd `@@ ( "OR" @@ )*`
}

type filterAnd struct {
	Pos   lexer.Position
	Terms []*filterTerm `@@ ( "AND" @@ )*`
}

type filterTerm struct {
	Pos   lexer.Position
	Not   *filterTerm `  "NOT" @@`
	Group *filterOr   `| "(" @@ ")"`
	Cmp   *filterCmp  `| @@`
}

type filterCmp struct {
	Pos    lexer.Position
	Column string       `@Ident`
	Null   *filterNull  `( @@`
	Match  *filterMatch `| @@ )`
}

type filterNull struct {
	Not bool `"IS" @"NOT"? "NULL"`
}

type filterMatch struct {
	Op    string      `@( "=" | "LIKE" )`
	Value filterValue `@@`
}

type filterValue struct {
	String *string  `  @String`
	Float  *float64 `| @Float`
	Int    *int64   `| @Int`
	Bool   *string  `| @( "TRUE" | "FALSE" )`
}

func (o *filterOr) expression() Expression {
	if len(o.And) == 1 {
		return o.And[0].expression()
	}
	exprs := make([]Expression, len(o.And))
	for i, a := range o.And {
		exprs[i] = a.expression()
	}
	return Or{Expressions: exprs}
}

func (a *filterAnd) expression() Expression {
	if len(a.Terms) == 1 {
		return a.Terms[0].expression()
	}
	exprs := make([]Expression, len(a.Terms))
	for i, t := range a.Terms {
		exprs[i] = t.expression()
	}
	return And{Expressions: exprs}
}

func (t *filterTerm) expression() Expression {
	switch {
	case t.Not != nil:
		return Not{Expression: t.Not.expression()}
	case t.Group != nil:
		return t.Group.expression()
	default:
		return t.Cmp.expression()
	}
}

func (c *filterCmp) expression() Expression {
	target := ColumnTarget{Name: c.Column}
	if c.Null != nil {
		isNull := UnaryComparison{Column: target, Operator: OpIsNull}
		if c.Null.Not {
			return Not{Expression: isNull}
		}
		return isNull
	}

	op := OpEqual
	if strings.EqualFold(c.Match.Op, "like") {
		op = OpLike
	}
	return BinaryComparison{Column: target, Operator: op, Value: ScalarValue{Value: c.Match.Value.ir()}}
}

func (v filterValue) ir() ir.IRValue {
	switch {
	case v.String != nil:
		return ir.IRString(unquoteSQL(*v.String))
	case v.Float != nil:
		return ir.IRFloat(*v.Float)
	case v.Int != nil:
		return ir.IRInt(*v.Int)
	default:
		b, _ := strconv.ParseBool(strings.ToLower(*v.Bool))
		return ir.IRBool(b)
	}
}

// unquoteSQL strips the surrounding quotes of a SQL string literal and
// collapses doubled quotes.
func unquoteSQL(s string) string {
	s = strings.TrimPrefix(s, "'")
	s = strings.TrimSuffix(s, "'")
	return strings.ReplaceAll(s, "''", "'")
}
