package serialline

// WatchFunc receives the matched text and the pattern that matched it. It is
// invoked once per reported occurrence within a line, left to right.
type WatchFunc func(match string, p *Pattern)

// Watcher is a standing subscription scanning every inbound line for a
// pattern, independent of command queue state. Watchers never expire; they
// live until explicitly removed or the engine is destroyed.
type Watcher struct {
	pattern *Pattern
	fn      WatchFunc
}

// watcherRegistry holds the ordered set of standing watchers. Not goroutine
// safe; the engine serializes mutation and takes snapshots for scanning.
type watcherRegistry struct {
	watchers []*Watcher
}

func (r *watcherRegistry) add(p *Pattern, fn WatchFunc) *Watcher {
	w := &Watcher{pattern: p, fn: fn}
	r.watchers = append(r.watchers, w)
	return w
}

func (r *watcherRegistry) remove(w *Watcher) bool {
	for i, cur := range r.watchers {
		if cur == w {
			r.watchers = append(r.watchers[:i], r.watchers[i+1:]...)
			return true
		}
	}
	return false
}

func (r *watcherRegistry) snapshot() []*Watcher {
	if len(r.watchers) == 0 {
		return nil
	}
	out := make([]*Watcher, len(r.watchers))
	copy(out, r.watchers)
	return out
}

func (r *watcherRegistry) clear() {
	r.watchers = nil
}

// scanLine invokes each watcher for every occurrence of its pattern in
// line: once per non-overlapping occurrence for global patterns, at most
// once per line otherwise.
func scanLine(watchers []*Watcher, line string) {
	for _, w := range watchers {
		for _, m := range w.pattern.Occurrences(line) {
			w.fn(m, w.pattern)
		}
	}
}
