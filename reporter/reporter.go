// Package reporter turns a reconstructed armfdir.CallStack into artifacts a
// human or a toolchain can consume: a pprof profile for `go tool pprof`, and
// an HTTP handler that serves one for download. It is deliberately kept
// outside the armfdir package itself: the unwinder never allocates or
// touches the network.
package reporter

import (
	"fmt"
	"time"

	"github.com/google/pprof/profile"
	"golang.org/x/exp/slices"

	"github.com/flint-systems/armfdir"
)

// Symbolizer maps a code address to the source locations that cover it,
// outermost frame last, the way an inlined call chain would be reported.
// Implementations range from "no symbols, hex addresses only" to a full
// DWARF line-table lookup (see Dwarf in this package).
type Symbolizer interface {
	Locations(addr armfdir.Addr) []Location
}

// Location is one named stack frame: a function name and, when known, the
// file and line that cover addr.
type Location struct {
	Function string
	File     string
	Line     int
}

// HexSymbolizer is the Symbolizer of last resort: every address is reported
// as itself, formatted in hex, with no file/line information. Useful for
// exercising the reporter before DWARF information is available.
type HexSymbolizer struct{}

func (HexSymbolizer) Locations(addr armfdir.Addr) []Location {
	return []Location{{Function: fmt.Sprintf("0x%08x", uint32(addr))}}
}

// stackTrace is the reporter's internal, symbolized rendering of a
// CallStack: one entry per Call, each expanded to the (possibly several,
// if inlined) Locations that cover its LR.
type stackTrace struct {
	calls     []armfdir.Call
	locations [][]Location
}

func buildStackTrace(cs *armfdir.CallStack, symbols Symbolizer) stackTrace {
	frames := cs.Frames()
	st := stackTrace{
		calls:     slices.Clone(frames),
		locations: make([][]Location, len(frames)),
	}
	for i, call := range frames {
		st.locations[i] = symbols.Locations(call.LR)
	}
	return st
}

// BuildProfile renders a single fault's call stack as a pprof Profile with
// one sample: the entire reconstructed stack, tagged with the fault class
// that captured it. at is when the fault was captured.
func BuildProfile(dbg *armfdir.DebugInfo, symbols Symbolizer, at time.Time) *profile.Profile {
	st := buildStackTrace(&dbg.CallStack, symbols)

	prof := &profile.Profile{
		TimeNanos: at.UnixNano(),
		SampleType: []*profile.ValueType{
			{Type: "fault", Unit: "count"},
		},
		PeriodType: &profile.ValueType{Type: "fault", Unit: "count"},
		Period:     1,
	}

	functionID := make(map[string]uint64)
	locationByKey := make(map[string]*profile.Location)
	var sampleLocations []*profile.Location

	for _, locs := range st.locations {
		for _, loc := range locs {
			key := loc.Function + ":" + loc.File + ":" + fmt.Sprint(loc.Line)
			if pl, ok := locationByKey[key]; ok {
				sampleLocations = append(sampleLocations, pl)
				continue
			}

			fnID, ok := functionID[loc.Function]
			if !ok {
				fnID = uint64(len(prof.Function) + 1)
				functionID[loc.Function] = fnID
				prof.Function = append(prof.Function, &profile.Function{
					ID:       fnID,
					Name:     loc.Function,
					Filename: loc.File,
				})
			}

			pl := &profile.Location{
				ID: uint64(len(prof.Location) + 1),
				Line: []profile.Line{
					{Function: prof.Function[fnID-1], Line: int64(loc.Line)},
				},
			}
			prof.Location = append(prof.Location, pl)
			locationByKey[key] = pl
			sampleLocations = append(sampleLocations, pl)
		}
	}

	prof.Sample = append(prof.Sample, &profile.Sample{
		Location: sampleLocations,
		Value:    []int64{1},
		Label: map[string][]string{
			"fault_class": {dbg.Class.String()},
		},
	})

	return prof
}
