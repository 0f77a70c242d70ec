// Command fdir-postmortem replays a fault captured on an ARM Cortex-M
// target against the firmware image that produced it: it reads the
// .ARM.exidx table out of the firmware ELF, loads a raw memory dump taken
// at the moment of the fault, reconstructs the call chain, and prints or
// exports it.
package main

import (
	"debug/elf"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/flint-systems/armfdir"
	"github.com/flint-systems/armfdir/reporter"
)

type program struct {
	elfPath   string
	dumpPath  string
	dumpBase  uint32
	seedSP    uint32
	seedFP    uint32
	pprofPath string
}

func main() {
	log.SetFlags(0)
	log.SetOutput(os.Stderr)

	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet("fdir-postmortem", pflag.ContinueOnError)
	elfPath := flags.StringP("elf", "e", "", "Path to the firmware ELF image (required).")
	dumpPath := flags.StringP("dump", "d", "", "Path to a raw memory dump taken at fault time (required).")
	dumpBase := flags.Uint32("dump-base", 0x20000000, "Address the dump's first byte corresponds to.")
	seedSP := flags.Uint32("sp", 0, "Stack pointer captured at fault entry.")
	seedFP := flags.Uint32("fp", 0, "Frame pointer captured at fault entry.")
	pprofPath := flags.StringP("pprof", "p", "", "Write the reconstructed call stack as a pprof profile to this path.")

	if err := flags.Parse(args); err != nil {
		return err
	}
	if *elfPath == "" || *dumpPath == "" {
		return fmt.Errorf("usage: fdir-postmortem --elf <firmware.elf> --dump <core.bin> --sp <addr> --fp <addr>")
	}

	prog := &program{
		elfPath:   *elfPath,
		dumpPath:  *dumpPath,
		dumpBase:  *dumpBase,
		seedSP:    *seedSP,
		seedFP:    *seedFP,
		pprofPath: *pprofPath,
	}
	return prog.run()
}

func (p *program) run() error {
	f, err := elf.Open(p.elfPath)
	if err != nil {
		return fmt.Errorf("opening ELF: %w", err)
	}
	defer f.Close()

	exidxBase, exidxEnd, err := exidxBounds(f)
	if err != nil {
		return err
	}

	firmware, err := loadFirmwareMemory(f)
	if err != nil {
		return err
	}

	dump, err := os.ReadFile(p.dumpPath)
	if err != nil {
		return fmt.Errorf("reading dump: %w", err)
	}
	ram := armfdir.NewSliceMemory(armfdir.Addr(p.dumpBase), dump)

	mem := unionMemory{firmware, ram}

	lr, ok := mem.ReadWord(armfdir.Addr(p.seedSP) + 20)
	if !ok {
		return fmt.Errorf("reading seed lr at sp+20 (%#x)", p.seedSP+20)
	}
	seed := armfdir.Call{LR: armfdir.Addr(lr), FP: armfdir.Addr(p.seedFP)}

	cs := armfdir.UnwindStack(mem, exidxBase, exidxEnd, seed)

	var symbols reporter.Symbolizer = reporter.HexSymbolizer{}
	if dw, err := reporter.NewDwarf(f); err == nil {
		symbols = dw
	}

	printCallStack(&cs, symbols)

	if p.pprofPath != "" {
		dbg := armfdir.DebugInfo{CallStack: cs}
		prof := reporter.BuildProfile(&dbg, symbols, time.Now())
		if err := reporter.WriteProfile(p.pprofPath, prof); err != nil {
			return fmt.Errorf("writing pprof output: %w", err)
		}
	}

	return nil
}

func printCallStack(cs *armfdir.CallStack, symbols reporter.Symbolizer) {
	for i, call := range cs.Frames() {
		locs := symbols.Locations(call.LR)
		if len(locs) == 0 {
			fmt.Printf("#%-3d %#010x\n", i, uint32(call.LR))
			continue
		}
		for j, loc := range locs {
			if j == 0 {
				fmt.Printf("#%-3d %#010x %s (%s:%d)\n", i, uint32(call.LR), loc.Function, loc.File, loc.Line)
			} else {
				fmt.Printf("     inlined from %s (%s:%d)\n", loc.Function, loc.File, loc.Line)
			}
		}
	}
}

func exidxBounds(f *elf.File) (base, end armfdir.Addr, err error) {
	sec := f.Section(".ARM.exidx")
	if sec == nil {
		return 0, 0, fmt.Errorf(".ARM.exidx section not found in ELF")
	}
	return armfdir.Addr(sec.Addr), armfdir.Addr(sec.Addr + sec.Size), nil
}

// loadFirmwareMemory loads every loadable, allocated section of the ELF
// into one Memory keyed by its link-time address, covering both .ARM.exidx
// and .ARM.extab wherever the linker placed them relative to each other.
func loadFirmwareMemory(f *elf.File) (armfdir.Memory, error) {
	var mems unionMemory
	for _, sec := range f.Sections {
		if sec.Flags&elf.SHF_ALLOC == 0 || sec.Size == 0 {
			continue
		}
		if sec.Type == elf.SHT_NOBITS {
			continue
		}
		data, err := sec.Data()
		if err != nil {
			return nil, fmt.Errorf("reading section %s: %w", sec.Name, err)
		}
		mems = append(mems, armfdir.NewSliceMemory(armfdir.Addr(sec.Addr), data))
	}
	return mems, nil
}

// unionMemory reads from the first backing Memory that has the requested
// word, letting the firmware image and the captured RAM dump coexist
// without being copied into one contiguous buffer.
type unionMemory []armfdir.Memory

func (u unionMemory) ReadWord(addr armfdir.Addr) (uint32, bool) {
	for _, m := range u {
		if word, ok := m.ReadWord(addr); ok {
			return word, true
		}
	}
	return 0, false
}
