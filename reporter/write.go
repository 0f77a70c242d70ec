package reporter

import (
	"os"

	"github.com/google/pprof/profile"
)

// WriteProfile writes prof, pprof-encoded, to path.
func WriteProfile(path string, prof *profile.Profile) error {
	w, err := os.Create(path)
	if err != nil {
		return err
	}
	defer w.Close()
	return prof.Write(w)
}
