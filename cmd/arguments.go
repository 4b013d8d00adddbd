// SPDX-License-Identifier: GPL-2.0-or-later

// Package cmd splits config lines into arguments. Words are separated by
// blanks, "quoted strings" keep their blanks and // starts a comment.
package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pkg/errors"
)

var ErrSyntax = errors.New("bad command line")

type QArg struct {
	a string
}

func (a QArg) String() string {
	return a.a
}

func (a QArg) Float32() (float32, error) {
	r, err := strconv.ParseFloat(a.a, 32)
	if err != nil {
		return 0, errors.Wrapf(ErrSyntax, "%q is not a number", a.a)
	}
	return float32(r), nil
}

type Arguments struct {
	// each arg on its own
	args []QArg
	// the line without comment and outer blanks
	full string
}

func (c *Arguments) Full() string {
	return c.full
}

func (c *Arguments) Args() []QArg {
	return c.args
}

func (c *Arguments) Len() int {
	return len(c.args)
}

// Argv returns the empty arg when i is out of range.
func (c *Arguments) Argv(i int) QArg {
	if i < 0 || i >= len(c.args) {
		return QArg{}
	}
	return c.args[i]
}

// Rest joins the args from i on with single blanks.
func (c *Arguments) Rest(i int) string {
	if i >= len(c.args) {
		return ""
	}
	parts := make([]string, 0, len(c.args)-i)
	for _, a := range c.args[i:] {
		parts = append(parts, a.a)
	}
	return strings.Join(parts, " ")
}

func Parse(s string) (Arguments, error) {
	var args Arguments
	s = strings.TrimFunc(s, unicode.IsSpace)
	if i := commentStart(s); i >= 0 {
		s = strings.TrimRightFunc(s[:i], unicode.IsSpace)
	}
	args.full = s

	l := lex(args.full)
	for {
		i := l.nextItem()

		switch i.typ {
		case itemWord:
			args.args = append(args.args, QArg{i.val})
		case itemString:
			s := strings.TrimPrefix(i.val, `"`)
			s = strings.TrimSuffix(s, `"`)
			args.args = append(args.args, QArg{s})
		case itemSpace:
			continue
		case itemEOF:
			return args, nil
		default:
			return Arguments{}, errors.Wrapf(ErrSyntax, "%s in %q", i.val, args.full)
		}
	}
}

// commentStart finds a // outside of quotes.
func commentStart(s string) int {
	quoted := false
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '"':
			quoted = !quoted
		case !quoted && s[i] == '/' && i+1 < len(s) && s[i+1] == '/':
			return i
		}
	}
	return -1
}

type itemType int

const (
	itemError itemType = iota
	itemEOF
	itemString // quoted string includes quotes
	itemSpace  // <=32
	itemWord
)
const eof = -1

type item struct {
	typ itemType
	val string
}

func (i item) String() string {
	switch i.typ {
	case itemEOF:
		return "EOF"
	case itemError:
		return i.val
	}
	if len(i.val) > 10 {
		return fmt.Sprintf("%.10q...", i.val)
	}
	return fmt.Sprintf("%q", i.val)
}

type stateFn func(*lexer) stateFn

type lexer struct {
	input string
	start int
	pos   int
	width int
	items chan item
	state stateFn
}

func lex(input string) *lexer {
	return &lexer{
		input: input,
		items: make(chan item, 2),
		state: lexAction,
	}
}

func (l *lexer) nextItem() item {
	for {
		select {
		case item := <-l.items:
			return item
		default:
			if l.state == nil {
				return item{itemEOF, ""}
			}
			l.state = l.state(l)
		}
	}
}

func (l *lexer) emit(t itemType) {
	l.items <- item{t, l.input[l.start:l.pos]}
	l.start = l.pos
}

func (l *lexer) next() rune {
	if l.pos >= len(l.input) {
		l.width = 0
		return eof
	}
	r, w := utf8.DecodeRuneInString(l.input[l.pos:])
	l.width = w
	l.pos += l.width
	return r
}

func (l *lexer) backup() {
	l.pos -= l.width
}

func (l *lexer) peek() rune {
	r := l.next()
	l.backup()
	return r
}

func (l *lexer) errorf(format string, args ...interface{}) stateFn {
	l.items <- item{
		itemError,
		fmt.Sprintf(format, args...),
	}
	return nil
}

func lexWord(l *lexer) stateFn {
	for isWordRune(l.next()) {
	}
	l.backup()
	l.emit(itemWord)
	return lexAction
}

func lexAction(l *lexer) stateFn {
	switch r := l.next(); {
	case r == eof || isEndOfLine(r):
		l.emit(itemEOF)
		return nil
	case isSpace(r):
		return lexSpace
	case r == '"':
		return lexQuote
	case isWordRune(r):
		l.backup()
		return lexWord
	default:
		return l.errorf("unhandled char %#U", r)
	}
}

func lexSpace(l *lexer) stateFn {
	for isSpace(l.peek()) {
		l.next()
	}
	l.emit(itemSpace)
	return lexAction
}

func lexQuote(l *lexer) stateFn {
Loop:
	for {
		switch l.next() {
		case '"':
			break Loop
		case eof, '\n':
			return l.errorf("unterminated string")
		}
	}
	l.emit(itemString)
	return lexAction
}

func isWordRune(r rune) bool {
	return r > ' ' && r != '"'
}

func isEndOfLine(r rune) bool {
	return r == '\r' || r == '\n'
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t'
}
