package runtime

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ava-labs/avalanchego/ids"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/ava-labs/crank/x/programs/program"
)

type entry struct {
	program      program.Program
	instructions map[program.Discriminator]*program.Instruction
}

// registry maps program IDs to their selector tables. It is populated once
// at load time and read on every dispatch.
type registry struct {
	lock     sync.RWMutex
	programs map[ids.ID]*entry
}

func newRegistry() *registry {
	return &registry{programs: map[ids.ID]*entry{}}
}

func (r *registry) register(p program.Program) error {
	id := p.ID()
	if id == ids.Empty {
		return fmt.Errorf("%w: %s has an empty id", program.ErrInvalidProgramID, p.Name())
	}

	e := &entry{
		program:      p,
		instructions: map[program.Discriminator]*program.Instruction{},
	}
	for _, ix := range p.Instructions() {
		if len(ix.Name) == 0 {
			return fmt.Errorf("%w: %s declares an unnamed instruction", program.ErrInvalidName, p.Name())
		}
		selector := ix.Selector()
		if prev, ok := e.instructions[selector]; ok {
			return fmt.Errorf("%w: %s and %s share %s", ErrDuplicateInstruction, prev.Name, ix.Name, selector)
		}
		e.instructions[selector] = ix
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.programs[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateProgram, program.FormatID(id))
	}
	r.programs[id] = e
	return nil
}

func (r *registry) lookup(id ids.ID) (*entry, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	e, ok := r.programs[id]
	return e, ok
}

// list returns registered programs sorted by name.
func (r *registry) list() []program.Program {
	r.lock.RLock()
	defer r.lock.RUnlock()

	entries := maps.Values(r.programs)
	programs := make([]program.Program, 0, len(entries))
	for _, e := range entries {
		programs = append(programs, e.program)
	}
	slices.SortFunc(programs, func(a, b program.Program) int {
		return strings.Compare(a.Name(), b.Name())
	})
	return programs
}

// names returns the instruction names of a program sorted by name.
func (e *entry) names() []string {
	names := make([]string, 0, len(e.instructions))
	for _, ix := range maps.Values(e.instructions) {
		names = append(names, ix.Name)
	}
	slices.Sort(names)
	return names
}
