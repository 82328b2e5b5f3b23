package query

import (
	"fmt"
	"strings"

	"github.com/se-tech-pvt-ltd/recorder-dashboard/pkg/recorder"
)

// Placeholders reports the distinct $n positional parameters a statement
// references and the highest index among them. Text inside string literals,
// quoted identifiers, dollar-quoted bodies and comments is ignored.
func Placeholders(sql string) (distinct, highest int) {
	seen := make(map[int]struct{})
	n := len(sql)

	for i := 0; i < n; {
		c := sql[i]
		switch {
		case c == '\'':
			escapes := i > 0 && (sql[i-1] == 'E' || sql[i-1] == 'e') && (i < 2 || !isIdentChar(sql[i-2]))
			i = skipQuoted(sql, i, '\'', escapes)
		case c == '"':
			i = skipQuoted(sql, i, '"', false)
		case c == '-' && i+1 < n && sql[i+1] == '-':
			i = skipLineComment(sql, i)
		case c == '/' && i+1 < n && sql[i+1] == '*':
			i = skipBlockComment(sql, i)
		case c == '$':
			if i+1 < n && isDigit(sql[i+1]) && (i == 0 || !isIdentChar(sql[i-1])) {
				j := i + 1
				index := 0
				for j < n && isDigit(sql[j]) {
					index = index*10 + int(sql[j]-'0')
					j++
				}
				seen[index] = struct{}{}
				if index > highest {
					highest = index
				}
				i = j
				continue
			}
			if end, ok := skipDollarQuoted(sql, i); ok {
				i = end
				continue
			}
			i++
		default:
			i++
		}
	}

	return len(seen), highest
}

// checkPlaceholders fails with ErrParamMismatch unless the statement uses
// exactly $1..$len(params).
func checkPlaceholders(sql string, params []recorder.Value) error {
	distinct, highest := Placeholders(sql)
	if distinct != len(params) || highest != len(params) {
		return fmt.Errorf("%w: statement uses %d placeholder(s) up to $%d, got %d bind value(s)",
			recorder.ErrParamMismatch, distinct, highest, len(params))
	}
	return nil
}

func skipQuoted(sql string, start int, quote byte, backslashEscapes bool) int {
	for i := start + 1; i < len(sql); i++ {
		switch sql[i] {
		case '\\':
			if backslashEscapes {
				i++
			}
		case quote:
			if i+1 < len(sql) && sql[i+1] == quote {
				i++
				continue
			}
			return i + 1
		}
	}
	return len(sql)
}

func skipLineComment(sql string, start int) int {
	if end := strings.IndexByte(sql[start:], '\n'); end >= 0 {
		return start + end + 1
	}
	return len(sql)
}

// skipBlockComment honours PostgreSQL's nested /* */ comments.
func skipBlockComment(sql string, start int) int {
	depth := 0
	for i := start; i < len(sql)-1; i++ {
		switch {
		case sql[i] == '/' && sql[i+1] == '*':
			depth++
			i++
		case sql[i] == '*' && sql[i+1] == '/':
			depth--
			i++
			if depth == 0 {
				return i + 1
			}
		}
	}
	return len(sql)
}

// skipDollarQuoted skips $tag$ ... $tag$ bodies. ok is false when the $ at
// start does not open a dollar quote.
func skipDollarQuoted(sql string, start int) (end int, ok bool) {
	j := start + 1
	for j < len(sql) && isIdentChar(sql[j]) {
		j++
	}
	if j >= len(sql) || sql[j] != '$' {
		return start, false
	}

	tag := sql[start : j+1]
	if idx := strings.Index(sql[j+1:], tag); idx >= 0 {
		return j + 1 + idx + len(tag), true
	}
	return len(sql), true
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentChar(c byte) bool {
	return c == '_' || isDigit(c) || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}
