// SPDX-License-Identifier: GPL-2.0-or-later

package commandline

import (
	"flag"
	"fmt"
	"strconv"
	"strings"
)

var (
	frames  int
	seed    uint
	msec    int
	out     string
	cfgFile string

	debug = boolInt{false, 1}
	sets  setList
)

type boolInt struct {
	set bool
	num int
}

func (b *boolInt) IsBoolFlag() bool {
	// We can not support both "-flag" and "-flag 10"
	// This allows "-flag", and "-flag=10"
	// and also "-flag=true" and "-flag=false"
	// but not "-flag 10"
	return true
}

func (b *boolInt) Set(s string) error {
	v, err := strconv.ParseInt(s, 0, strconv.IntSize)
	if err != nil {
		v, err := strconv.ParseBool(s)
		b.set = v
		return err
	}
	b.set = true
	b.num = int(v)
	return nil
}

func (b *boolInt) String() string {
	return fmt.Sprintf("Set: %v, Num: %v", b.set, b.num)
}

// setList collects repeated "-set name=value" flags.
type setList [][2]string

func (s *setList) Set(v string) error {
	name, value, ok := strings.Cut(v, "=")
	if !ok || name == "" {
		return fmt.Errorf("want name=value, got %q", v)
	}
	*s = append(*s, [2]string{name, value})
	return nil
}

func (s *setList) String() string {
	var parts []string
	for _, kv := range *s {
		parts = append(parts, kv[0]+"="+kv[1])
	}
	return strings.Join(parts, ",")
}

func init() {
	flag.IntVar(&frames, "frames", 600, "number of movement frames to record")
	flag.IntVar(&msec, "msec", 16, "milliseconds per frame")
	flag.UintVar(&seed, "seed", 1, "seed of the scripted input jitter")
	flag.StringVar(&out, "out", "", "write the recording to this file")
	flag.StringVar(&cfgFile, "cfg", "", "cvar config file to execute")

	flag.Var(&debug, "debug", "enable debug logging, optional developer level")
	flag.Var(&sets, "set", "set a cvar, name=value, may be repeated")
}

func Frames() int {
	return frames
}

func Seed() uint32 {
	return uint32(seed)
}

func Msec() int {
	return msec
}

func Out() string {
	return out
}

func ConfigFile() string {
	return cfgFile
}

func Debug() bool {
	return debug.set
}

func DebugLevel() int {
	return debug.num
}

// Sets returns the -set flags in command line order.
func Sets() [][2]string {
	return sets
}
