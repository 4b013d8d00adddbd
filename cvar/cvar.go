// SPDX-License-Identifier: GPL-2.0-or-later

// Package cvar is the registry of the named tunables. The string value is
// the truth, the float value is derived from it.
package cvar

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"qmove/cmd"
	"qmove/conlog"
)

var (
	ErrUnknown    = errors.New("unknown cvar")
	ErrRegistered = errors.New("cvar already registered")
	ErrSyntax     = errors.New("bad cvar line")
)

var (
	mu         sync.RWMutex
	cvarArray  []*Cvar
	cvarByName = make(map[string]*Cvar)
)

type flag uint64

const (
	// cvar flags bitfield
	NONE       flag = 0
	ARCHIVE    flag = 1
	NOTIFY     flag = 1 << 1
	SERVERINFO flag = 1 << 2
	ROM        flag = 1 << 6
)

type CallbackFunc func(cv *Cvar)

type Cvar struct {
	archive    bool
	notify     bool
	serverinfo bool
	rom        bool
	user       bool
	callback   CallbackFunc
	name       string

	mu           sync.RWMutex
	stringValue  string
	value        float32
	defaultValue string
}

func All() []*Cvar {
	mu.RLock()
	defer mu.RUnlock()
	return append([]*Cvar(nil), cvarArray...)
}

func (cv *Cvar) Archive() bool {
	return cv.archive
}

func (cv *Cvar) ServerInfo() bool {
	return cv.serverinfo
}

func (cv *Cvar) UserDefined() bool {
	return cv.user
}

func (cv *Cvar) SetCallback(cb CallbackFunc) {
	cv.callback = cb
}

// SetByString is ignored for ROM cvars.
func (cv *Cvar) SetByString(s string) {
	if cv.rom {
		conlog.DPrintf("cvar %s is read only", cv.name)
		return
	}
	cv.set(s)
}

func (cv *Cvar) set(s string) {
	pf, _ := strconv.ParseFloat(strings.TrimSpace(s), 32)
	cv.mu.Lock()
	cv.stringValue = s
	cv.value = float32(pf)
	cv.mu.Unlock()
	if cv.notify {
		conlog.Printf("%s changed to %s", cv.name, s)
	}
	if cv.callback != nil {
		cv.callback(cv)
	}
}

func (cv *Cvar) Reset() {
	cv.SetByString(cv.defaultValue)
}

func (cv *Cvar) String() string {
	cv.mu.RLock()
	defer cv.mu.RUnlock()
	return cv.stringValue
}

func (cv *Cvar) Name() string {
	return cv.name
}

func (cv *Cvar) Default() string {
	return cv.defaultValue
}

func (cv *Cvar) Value() float32 {
	cv.mu.RLock()
	defer cv.mu.RUnlock()
	return cv.value
}

func (cv *Cvar) SetValue(value float32) {
	if float32(int(value)) == value {
		cv.SetByString(strconv.FormatInt(int64(value), 10))
	} else {
		cv.SetByString(strconv.FormatFloat(float64(value), 'f', -1, 32))
	}
}

func (cv *Cvar) Toggle() {
	if cv.String() == "1" {
		cv.SetByString("0")
	} else {
		cv.SetByString("1")
	}
}

func (cv *Cvar) Bool() bool {
	s := cv.String()
	return s != "0" && s != ""
}

func Get(name string) (*Cvar, bool) {
	mu.RLock()
	defer mu.RUnlock()
	cv, ok := cvarByName[name]
	return cv, ok
}

// InfoString lists the SERVERINFO cvars as \name\value pairs in
// registration order.
func InfoString() string {
	var b strings.Builder
	for _, cv := range All() {
		if !cv.ServerInfo() {
			continue
		}
		b.WriteByte('\\')
		b.WriteString(cv.name)
		b.WriteByte('\\')
		b.WriteString(cv.String())
	}
	return b.String()
}

// create must be called with mu held.
func create(name, value string) *Cvar {
	cv := &Cvar{name: name, defaultValue: value}
	cv.set(value)
	cvarArray = append(cvarArray, cv)
	cvarByName[name] = cv
	return cv
}

func Register(name, value string, flags flag) (*Cvar, error) {
	mu.Lock()
	defer mu.Unlock()
	if _, ok := cvarByName[name]; ok {
		return nil, errors.Wrapf(ErrRegistered, "can't register variable %s", name)
	}

	cv := create(name, value)
	cv.archive = flags&ARCHIVE != 0
	cv.notify = flags&NOTIFY != 0
	cv.serverinfo = flags&SERVERINFO != 0
	cv.rom = flags&ROM != 0
	return cv, nil
}

func MustRegister(n, v string, flag flag) *Cvar {
	cv, err := Register(n, v, flag)
	if err != nil {
		panic(err)
	}
	return cv
}

// Set changes a known cvar or creates a user defined one.
func Set(name, value string) {
	if cv, ok := Get(name); ok {
		cv.SetByString(value)
		return
	}
	mu.Lock()
	defer mu.Unlock()
	if cv, ok := cvarByName[name]; ok {
		cv.SetByString(value)
		return
	}
	cv := create(name, value)
	cv.user = true
}

// Inc adds v to the value of name.
func Inc(name string, v float32) error {
	cv, ok := Get(name)
	if !ok {
		return errors.Wrap(ErrUnknown, name)
	}
	cv.SetValue(cv.Value() + v)
	return nil
}

func ResetAll() {
	for _, cv := range All() {
		cv.Reset()
	}
}

// ResetCfg resets only the archived cvars.
func ResetCfg() {
	for _, cv := range All() {
		if cv.Archive() {
			cv.Reset()
		}
	}
}

// Execute runs one config line. Supported are
//
//	<cvar>               shows the value
//	<cvar> <value>
//	set <cvar> <value>
//	toggle <cvar>
//	inc <cvar> [amount]
//	reset <cvar>
//	resetcfg             resets the archived cvars
//
// Values with blanks need quotes. Empty lines and // comments are ignored.
func Execute(line string) error {
	a, err := cmd.Parse(line)
	if err != nil {
		return errors.Wrap(ErrSyntax, err.Error())
	}
	if a.Len() == 0 {
		return nil
	}
	name := a.Argv(1).String()
	switch a.Argv(0).String() {
	case "set":
		if a.Len() < 3 {
			return errors.Wrapf(ErrSyntax, "set <cvar> <value>: %q", line)
		}
		Set(name, a.Rest(2))
		return nil
	case "toggle":
		if a.Len() != 2 {
			return errors.Wrapf(ErrSyntax, "toggle <cvar>: %q", line)
		}
		cv, ok := Get(name)
		if !ok {
			return errors.Wrap(ErrUnknown, name)
		}
		cv.Toggle()
		return nil
	case "inc":
		switch a.Len() {
		case 2:
			return Inc(name, 1)
		case 3:
			v, err := a.Argv(2).Float32()
			if err != nil {
				return errors.Wrap(ErrSyntax, err.Error())
			}
			return Inc(name, v)
		}
		return errors.Wrapf(ErrSyntax, "inc <cvar> [amount]: %q", line)
	case "resetcfg":
		if a.Len() != 1 {
			return errors.Wrapf(ErrSyntax, "resetcfg: %q", line)
		}
		ResetCfg()
		return nil
	case "reset":
		if a.Len() != 2 {
			return errors.Wrapf(ErrSyntax, "reset <cvar>: %q", line)
		}
		cv, ok := Get(name)
		if !ok {
			return errors.Wrap(ErrUnknown, name)
		}
		cv.Reset()
		return nil
	}
	cv, ok := Get(a.Argv(0).String())
	if !ok {
		return errors.Wrap(ErrUnknown, a.Argv(0).String())
	}
	if a.Len() == 1 {
		conlog.Printf("%q is %q", cv.Name(), cv.String())
		return nil
	}
	cv.SetByString(a.Rest(1))
	return nil
}

// Load executes every line of r. It stops at the first failing line.
func Load(r io.Reader) error {
	s := bufio.NewScanner(r)
	n := 0
	for s.Scan() {
		n++
		if err := Execute(s.Text()); err != nil {
			return errors.Wrapf(err, "line %d", n)
		}
	}
	return s.Err()
}
