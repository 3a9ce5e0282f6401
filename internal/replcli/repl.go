// Package replcli provides an in-process REPL for inspecting a
// chunkstore.Store and its queryengine.Engine. The REPL is a client of
// their public APIs: it observes and queries, and its gc command runs a GC
// pass that evicts chunks; it never starts or stops the store, the engine,
// or any background producer.
package replcli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"rrcore/internal/chunk"
	"rrcore/internal/chunkstore"
	"rrcore/internal/queryengine"
)

// REPL provides an interactive read-eval-print loop over a store/engine
// pair.
type REPL struct {
	store  *chunkstore.Store
	engine *queryengine.Engine

	in  *bufio.Scanner
	out io.Writer
}

// New creates a REPL attached to an already-running store and engine.
func New(store *chunkstore.Store, engine *queryengine.Engine, in io.Reader, out io.Writer) *REPL {
	return &REPL{store: store, engine: engine, in: bufio.NewScanner(in), out: out}
}

// Run starts the REPL loop. It blocks until the input is exhausted or the
// user types "exit"/"quit".
func (r *REPL) Run() error {
	r.printf("rrcore inspector. Type 'help' for commands.\n> ")

	for r.in.Scan() {
		line := strings.TrimSpace(r.in.Text())
		if line == "" {
			r.printf("> ")
			continue
		}
		if exit := r.execute(line); exit {
			return nil
		}
		r.printf("> ")
	}
	return r.in.Err()
}

func (r *REPL) execute(line string) bool {
	parts := strings.Fields(line)
	cmd, args := parts[0], parts[1:]

	switch cmd {
	case "help":
		r.cmdHelp()
	case "stats":
		r.cmdStats()
	case "latest-at":
		r.cmdLatestAt(args)
	case "range":
		r.cmdRange(args)
	case "gc":
		r.cmdGC(args)
	case "exit", "quit":
		return true
	default:
		r.printf("Unknown command: %s. Type 'help' for commands.\n", cmd)
	}
	return false
}

func (r *REPL) cmdHelp() {
	r.printf(`Commands:
  help                                     Show this help
  stats                                    Show store size statistics
  latest-at <entity> <component> <time>    Resolve the latest value at time
  range <entity> <component> <min> <max>   List values within [min, max]
  gc <max-bytes> <protect-latest>          Run a GC pass
  exit                                     Exit the REPL
`)
}

func (r *REPL) cmdStats() {
	st := r.store.Stats()
	r.printf("Store: %s  generation=%d\n", r.store.ID(), st.Generation)
	r.printf("  static:   %d chunks, %d rows, %d bytes\n", st.StaticChunks, st.StaticRows, st.StaticBytes)
	r.printf("  temporal: %d chunks, %d rows, %d bytes\n", st.TemporalChunks, st.TemporalRows, st.TemporalBytes)
}

func (r *REPL) cmdLatestAt(args []string) {
	if len(args) != 3 {
		r.printf("usage: latest-at <entity> <component> <time>\n")
		return
	}
	entity := chunk.ParseEntityPath(args[0])
	desc := chunk.NewComponentDescriptor(args[1])
	t, err := parseTimeInt(args[2])
	if err != nil {
		r.printf("invalid time: %v\n", err)
		return
	}

	res, err := r.engine.LatestAt(context.Background(), chunk.NewLatestAtQuery(chunk.LogTick, t), entity, []chunk.ComponentDescriptor{desc})
	if err != nil {
		r.printf("error: %v\n", err)
		return
	}
	hit, ok := res.Get(desc)
	if !ok {
		r.printf("no value\n")
		return
	}
	var v any
	if err := hit.Chunk.DecodeCell(desc, hit.Index, &v); err != nil {
		r.printf("decode error: %v\n", err)
		return
	}
	r.printf("row=%s value=%v\n", hit.RowID.String(), v)
}

func (r *REPL) cmdRange(args []string) {
	if len(args) != 4 {
		r.printf("usage: range <entity> <component> <min> <max>\n")
		return
	}
	entity := chunk.ParseEntityPath(args[0])
	desc := chunk.NewComponentDescriptor(args[1])
	lo, err := parseTimeInt(args[2])
	if err != nil {
		r.printf("invalid min: %v\n", err)
		return
	}
	hi, err := parseTimeInt(args[3])
	if err != nil {
		r.printf("invalid max: %v\n", err)
		return
	}

	res, err := r.engine.Range(context.Background(), chunk.NewRangeQuery(chunk.LogTick, lo, hi), entity, []chunk.ComponentDescriptor{desc})
	if err != nil {
		r.printf("error: %v\n", err)
		return
	}
	chunks, ok := res.Get(desc)
	if !ok {
		r.printf("no values\n")
		return
	}

	printed := 0
	for _, c := range chunks {
		for i, rowID := range c.RowIDs() {
			var v any
			if err := c.DecodeCell(desc, i, &v); err != nil {
				continue
			}
			r.printf("row=%s value=%v\n", rowID.String(), v)
			printed++
		}
	}
	if printed == 0 {
		r.printf("no values\n")
	}
}

func (r *REPL) cmdGC(args []string) {
	if len(args) != 2 {
		r.printf("usage: gc <max-bytes> <protect-latest>\n")
		return
	}
	maxBytes, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		r.printf("invalid max-bytes: %v\n", err)
		return
	}
	protect, err := parseTimeInt(args[1])
	if err != nil {
		r.printf("invalid protect-latest: %v\n", err)
		return
	}

	events := r.store.GC(chunkstore.GCTarget{MaxBytes: maxBytes, Timeline: chunk.LogTick, ProtectLatest: protect})
	r.printf("evicted %d chunks\n", len(events))
}

func (r *REPL) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}

func parseTimeInt(s string) (chunk.TimeInt, error) {
	if s == "max" {
		return chunk.TimeMax, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return chunk.TimeInt(n), nil
}
