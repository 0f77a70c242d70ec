package reporter

import (
	"fmt"
	"net/http"
	"time"

	"github.com/flint-systems/armfdir"
)

// Handler serves the pprof-encoded profile of dbg's call stack for
// download, in the same format `go tool pprof` reads directly off an HTTP
// endpoint.
func Handler(dbg *armfdir.DebugInfo, symbols Symbolizer) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		prof := BuildProfile(dbg, symbols, time.Now())

		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Content-Type", "application/octet-stream")
		h.Set("Content-Disposition", `attachment; filename="fault.pprof"`)
		if err := prof.Write(w); err != nil {
			serveError(w, http.StatusInternalServerError, err.Error())
		}
	})
}

func serveError(w http.ResponseWriter, status int, txt string) {
	h := w.Header()
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("X-Go-Pprof", "1")
	h.Set("Content-Type", "text/plain; charset=utf-8")
	h.Del("Content-Disposition")
	w.WriteHeader(status)
	fmt.Fprintln(w, txt)
}
