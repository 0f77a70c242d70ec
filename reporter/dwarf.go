package reporter

import (
	"debug/dwarf"
	"debug/elf"
	"errors"
	"io"
	"log"
	"math"
	"sort"
	"sync"

	"github.com/flint-systems/armfdir"
)

// Dwarf is a Symbolizer backed by the DWARF debug sections of the firmware
// ELF image, resolving a return address directly to the function, file and
// line (and, for inlined calls, the chain of call sites) that cover it.
type Dwarf struct {
	d           *dwarf.Data
	subprograms []subprogramRange

	onceSourceOffsetNotFound sync.Once
}

type addrRange = [2]uint64

type subprogram struct {
	Entry     *dwarf.Entry
	CU        *dwarf.Entry
	Inlines   []*dwarf.Entry
	Namespace string
}

type subprogramRange struct {
	Range      addrRange
	Subprogram *subprogram
}

// NewDwarf builds a Dwarf symbolizer by reading the DWARF sections directly
// out of an open firmware ELF file. The ELF is only consulted here; nothing
// keeps a reference to it afterwards.
func NewDwarf(f *elf.File) (*Dwarf, error) {
	d, err := f.DWARF()
	if err != nil {
		return nil, err
	}

	dw := &Dwarf{d: d}
	dw.subprograms = dw.parse()
	return dw, nil
}

func (d *Dwarf) parse() []subprogramRange {
	r := d.d.Reader()
	for {
		ent, err := r.Next()
		if err != nil || ent == nil {
			break
		}
		if ent.Tag == dwarf.TagCompileUnit {
			d.parseCompileUnit(r, ent, "")
		} else {
			r.SkipChildren()
		}
	}
	return d.subprograms
}

func (d *Dwarf) parseCompileUnit(r *dwarf.Reader, cu *dwarf.Entry, ns string) {
	d.parseAny(r, cu, ns, cu)
}

func (d *Dwarf) parseAny(r *dwarf.Reader, cu *dwarf.Entry, ns string, e *dwarf.Entry) {
	for e.Children {
		ent, err := r.Next()
		if err != nil || ent == nil {
			return
		}

		switch ent.Tag {
		case 0:
			return
		case dwarf.TagSubprogram:
			d.parseSubprogram(r, cu, ns, ent)
		case dwarf.TagNamespace:
			d.parseNamespace(r, cu, ns, ent)
		default:
			d.parseAny(r, cu, ns, ent)
		}
	}
}

func (d *Dwarf) parseNamespace(r *dwarf.Reader, cu *dwarf.Entry, ns string, e *dwarf.Entry) {
	name, ok := e.Val(dwarf.AttrName).(string)
	if ok {
		ns += name + ":"
	}
	d.parseCompileUnit(r, cu, ns)
}

func (d *Dwarf) parseSubprogram(r *dwarf.Reader, cu *dwarf.Entry, ns string, e *dwarf.Entry) {
	var inlines []*dwarf.Entry

	for e.Children {
		ent, err := r.Next()
		if err != nil || ent == nil {
			break
		}
		if ent.Tag == 0 {
			break
		}
		if ent.Tag != dwarf.TagInlinedSubroutine {
			r.SkipChildren()
			continue
		}
		inlines = append(inlines, ent)
		r.SkipChildren()
	}

	ranges, err := d.d.Ranges(e)
	if err != nil {
		log.Printf("dwarf: failed to read ranges: %s", err)
		return
	}

	spgm := &subprogram{Entry: e, CU: cu, Inlines: inlines, Namespace: ns}

	if len(ranges) == 0 {
		// A subprogram DWARF never attached a range to, usually one that
		// exists only inlined elsewhere: keep a record of it under an
		// address range no real return address will ever match, so name
		// resolution for its inlined call sites still finds it.
		ranges = append(ranges, addrRange{math.MaxUint64, math.MaxUint64})
	}

	for _, pcr := range ranges {
		d.subprograms = append(d.subprograms, subprogramRange{Range: pcr, Subprogram: spgm})
	}
}

// Locations resolves addr to the chain of Location covering it: index 0 is
// the innermost (possibly inlined) call, the last entry is the outermost
// real subprogram.
func (d *Dwarf) Locations(addr armfdir.Addr) []Location {
	offset := uint64(addr)

	var spgm *subprogram
	for _, sr := range d.subprograms {
		if sr.Range[0] <= offset && offset <= sr.Range[1] {
			spgm = sr.Subprogram
			break
		}
	}
	if spgm == nil {
		d.onceSourceOffsetNotFound.Do(func() {
			log.Printf("dwarf: no subprogram ranges found for address %#x (silencing similar errors now)", offset)
		})
		return nil
	}

	lr, err := d.d.LineReader(spgm.CU)
	if err != nil || lr == nil {
		log.Printf("dwarf: failed to read lines: %s", err)
		return nil
	}

	var lines []lineEntry
	var le dwarf.LineEntry
	for {
		pos := lr.Tell()
		err = lr.Next(&le)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			log.Printf("dwarf: failed to iterate lines: %s", err)
			break
		}
		lines = append(lines, lineEntry{pos: pos, address: le.Address})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].address < lines[j].address })

	i := sort.Search(len(lines), func(i int) bool { return lines[i].address >= offset })
	if i == len(lines) {
		log.Printf("dwarf: no line information for address %#x", offset)
		return nil
	}

	l := lines[i]
	if l.address != offset {
		// DWARF allows a range to cover several instructions; the previous
		// entry is the one actually covering addr.
		if i-1 < 0 {
			return nil
		}
		l = lines[i-1]
	}

	lr.Seek(l.pos)
	if err := lr.Next(&le); err != nil {
		return nil
	}

	name := d.nameForSubprogram(spgm.Entry, spgm)
	locations := make([]Location, 0, 1+len(spgm.Inlines))
	locations = append(locations, Location{Function: name, File: le.File.Name, Line: le.Line})

	if len(spgm.Inlines) > 0 {
		files := lr.Files()
		for i := len(spgm.Inlines) - 1; i >= 0; i-- {
			f := spgm.Inlines[i]
			fileIdx, ok := f.Val(dwarf.AttrCallFile).(int64)
			if !ok || fileIdx >= int64(len(files)) {
				break
			}
			file := files[fileIdx]
			line, _ := f.Val(dwarf.AttrCallLine).(int64)
			name := d.nameForSubprogram(f, nil)
			locations = append(locations, Location{Function: name, File: file.Name, Line: int(line)})
		}
	}

	return locations
}

type lineEntry struct {
	pos     dwarf.LineReaderPos
	address uint64
}

// nameForSubprogram returns a namespace-qualified name for e, following the
// abstract-origin chain for inlined call sites. spgm may be nil, in which
// case it is looked up from the chain's root entry.
func (d *Dwarf) nameForSubprogram(e *dwarf.Entry, spgm *subprogram) string {
	var err error
	r := d.d.Reader()
	for {
		ao, ok := e.Val(dwarf.AttrAbstractOrigin).(dwarf.Offset)
		if !ok {
			break
		}
		r.Seek(ao)
		e, err = r.Next()
		if err != nil {
			break
		}
	}

	if spgm == nil {
		for _, s := range d.subprograms {
			if s.Subprogram.Entry.Offset == e.Offset {
				spgm = s.Subprogram
				break
			}
		}
	}

	var ns string
	if spgm != nil {
		ns = spgm.Namespace
	}

	name, _ := e.Val(dwarf.AttrName).(string)
	return ns + name
}
