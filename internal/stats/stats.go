// Package stats publishes office metrics through expvar.
package stats

import (
	"expvar"
	"net/http"
	"time"
)

// Counter names.
const (
	NumActiveRooms      = "NumActiveRooms"
	NumConnectedClients = "NumConnectedClients"
	NumCommandsApplied  = "NumCommandsApplied"
	NumQuizRounds       = "NumQuizRounds"
)

// RoomOccupancy maps each live room id to its client count.
const RoomOccupancy = "RoomOccupancy"

type StatsProvider interface {
	Incr(name string)
	Decr(name string)
	RegisterMetric(name string)
	RegisterFunc(name string, fn func() any)
	Run()
}

// StatsUpdater applies counter updates on a single goroutine so callers on
// hot paths such as room loops only pay for a channel send.
type StatsUpdater struct {
	vars    *expvar.Map
	updates chan counterDelta
}

type counterDelta struct {
	name  string
	delta int64
}

// NewStatsUpdater publishes the "office-stats" expvar and serves it on mux.
// expvar names are process-wide, so it must only be called once per process.
func NewStatsUpdater(mux *http.ServeMux) *StatsUpdater {
	su := &StatsUpdater{
		vars:    expvar.NewMap("office-stats"),
		updates: make(chan counterDelta, 512),
	}

	started := time.Now()
	su.RegisterFunc("Uptime", func() any {
		return time.Since(started).Milliseconds()
	})
	mux.HandleFunc("GET /debug/vars", su.serveVars)

	return su
}

// serveVars writes only this updater's map, not every expvar of the process.
func (su *StatsUpdater) serveVars(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Write([]byte(su.vars.String()))
}

func (su *StatsUpdater) RegisterMetric(name string) {
	su.vars.Set(name, new(expvar.Int))
}

// RegisterFunc publishes a value computed on every read.
func (su *StatsUpdater) RegisterFunc(name string, fn func() any) {
	su.vars.Set(name, expvar.Func(fn))
}

func (su *StatsUpdater) Incr(name string) {
	su.updates <- counterDelta{name: name, delta: 1}
}

func (su *StatsUpdater) Decr(name string) {
	su.updates <- counterDelta{name: name, delta: -1}
}

func (su *StatsUpdater) Run() {
	go su.apply()
}

// Stop ends the update goroutine. No counter may change afterwards.
func (su *StatsUpdater) Stop() {
	close(su.updates)
}

func (su *StatsUpdater) apply() {
	for d := range su.updates {
		counter, ok := su.vars.Get(d.name).(*expvar.Int)
		if !ok {
			panic("stats: unregistered counter " + d.name)
		}
		counter.Add(d.delta)
	}
}
