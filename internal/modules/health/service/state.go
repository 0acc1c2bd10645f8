package service

import (
	"sync/atomic"
	"time"
)

type State struct {
	ready     atomic.Bool
	startedAt time.Time

	wsConnected  atomic.Bool
	lastTickUnix atomic.Int64 // unix seconds
	lastScanUnix atomic.Int64
	scans        atomic.Int64
	sessions     atomic.Int64
}

func NewState() *State {
	s := &State{startedAt: time.Now()}
	s.ready.Store(false)
	return s
}

func (s *State) SetReady(v bool) { s.ready.Store(v) }
func (s *State) Ready() bool     { return s.ready.Load() }

func (s *State) SetWSConnected(v bool) { s.wsConnected.Store(v) }
func (s *State) WSConnected() bool     { return s.wsConnected.Load() }

func (s *State) TouchTick(t time.Time) { s.lastTickUnix.Store(t.Unix()) }
func (s *State) LastTick() time.Time   { return fromUnix(s.lastTickUnix.Load()) }

// ScanDone is called after every completed scan cycle.
func (s *State) ScanDone(t time.Time, activeSessions int) {
	s.lastScanUnix.Store(t.Unix())
	s.scans.Add(1)
	s.sessions.Store(int64(activeSessions))
}

func (s *State) LastScan() time.Time { return fromUnix(s.lastScanUnix.Load()) }
func (s *State) Scans() int64        { return s.scans.Load() }
func (s *State) Sessions() int64     { return s.sessions.Load() }

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }

func fromUnix(u int64) time.Time {
	if u == 0 {
		return time.Time{}
	}
	return time.Unix(u, 0)
}
