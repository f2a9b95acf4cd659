package jobs

import "sync"

// Registry indexes jobs by id. It is the only state shared between jobs.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]*entry
}

func NewRegistry() *Registry {
	return &Registry{jobs: map[string]*entry{}}
}

func (r *Registry) add(e *entry) {
	r.mu.Lock()
	r.jobs[e.id] = e
	r.mu.Unlock()
}

func (r *Registry) remove(id string) {
	r.mu.Lock()
	delete(r.jobs, id)
	r.mu.Unlock()
}

func (r *Registry) get(id string) (*entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.jobs[id]
	return e, ok
}

// removeCompleted drops every terminal job and returns how many went.
func (r *Registry) removeCompleted() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, e := range r.jobs {
		if e.completed() {
			delete(r.jobs, id)
			n++
		}
	}
	return n
}

// unfinished lists jobs that are not yet terminal.
func (r *Registry) unfinished() []*entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*entry
	for _, e := range r.jobs {
		if !e.completed() {
			out = append(out, e)
		}
	}
	return out
}

func (r *Registry) clear() {
	r.mu.Lock()
	r.jobs = map[string]*entry{}
	r.mu.Unlock()
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}
