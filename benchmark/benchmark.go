// Package benchmark builds the argument lists of the external bench and e2e client binaries.
//
// Both builders take an explicit record and emit a validated list; a flag is omitted only when the
// record leaves it unset, never because of a positional convention.
package benchmark

import (
	"fmt"
	"strconv"

	"github.com/ryanleh/crowdsurf/target"
)

type Kind string

const (
	Query         Kind = "query"
	Preprocessing Kind = "preprocessing"
	Throughput    Kind = "throughput"
	DPIR          Kind = "dpir"
	PBC           Kind = "pbc"
)

type Mode string

const (
	ModeUnset  Mode = ""
	ModeNone   Mode = "none"
	ModeHybrid Mode = "hybrid"
)

type HashMode string

const (
	HashUnset  HashMode = ""
	HashCuckoo HashMode = "cuckoo"
	HashPlain  HashMode = "hash"
)

type Packing string

const (
	PackingBalanced Packing = "balanced"
	PackingComm     Packing = "comm"
	PackingStorage  Packing = "storage"
)

// Configuration fully determines one invocation of the bench binary.
type Configuration struct {
	Kind       Kind
	Packing    Packing
	LogQ       int    // 0 = unset
	P          uint64 // 0 = unset
	SqrtN      uint64 // 0 = unset; sets both rows and cols
	Mode       Mode
	Hash       HashMode
	Iters      int    // 0 = unset
	MemProfile string // empty = unset
}

func (c Configuration) Validate() error {
	switch c.Kind {
	case Query, Preprocessing, Throughput, DPIR, PBC:
	default:
		return fmt.Errorf("unknown bench kind %q", c.Kind)
	}
	switch c.Packing {
	case PackingBalanced, PackingComm, PackingStorage:
	default:
		return fmt.Errorf("unknown packing %q", c.Packing)
	}
	if c.LogQ != 0 && c.LogQ != 32 && c.LogQ != 64 {
		return fmt.Errorf("modulus width must be 32 or 64, got %d", c.LogQ)
	}
	switch c.Mode {
	case ModeUnset, ModeNone, ModeHybrid:
	default:
		return fmt.Errorf("unknown mode %q", c.Mode)
	}
	switch c.Hash {
	case HashUnset, HashCuckoo, HashPlain:
	default:
		return fmt.Errorf("unknown hash mode %q", c.Hash)
	}
	if c.Iters < 0 {
		return fmt.Errorf("iteration count must not be negative, got %d", c.Iters)
	}
	return nil
}

// Args returns the flags for the bench binary in a fixed order.
func (c Configuration) Args() ([]string, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	args := []string{
		"-bench=" + string(c.Kind),
		"-packing=" + string(c.Packing),
	}
	if c.LogQ != 0 {
		args = append(args, "-q="+strconv.Itoa(c.LogQ))
	}
	if c.P != 0 {
		args = append(args, "-p="+strconv.FormatUint(c.P, 10))
	}
	if c.SqrtN != 0 {
		n := strconv.FormatUint(c.SqrtN, 10)
		args = append(args, "-rows="+n, "-cols="+n)
	}
	if c.Mode != ModeUnset {
		args = append(args, "-mode="+string(c.Mode))
	}
	if c.Hash != HashUnset {
		args = append(args, "-hash="+string(c.Hash))
	}
	if c.Iters != 0 {
		args = append(args, fmt.Sprintf("-test.benchtime=%dx", c.Iters))
	}
	if c.MemProfile != "" {
		args = append(args, "-memprofile="+c.MemProfile)
	}
	return args, nil
}

// Command resolves the configuration against the built binary.
func (c Configuration) Command(binary, dir string) (target.Command, error) {
	args, err := c.Args()
	if err != nil {
		return target.Command{}, err
	}
	return target.Command{Name: binary, Args: args, Dir: dir}, nil
}
