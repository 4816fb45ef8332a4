package mstr

import "sync"

// registry interns attributes and metrics by id so that every parse of the
// same object hands back the same pointer. The first name seen for an id wins.
type registry struct {
	mu         sync.Mutex
	attributes map[string]*Attribute
	metrics    map[string]*Metric
}

func newRegistry() *registry {
	return &registry{
		attributes: make(map[string]*Attribute),
		metrics:    make(map[string]*Metric),
	}
}

func (r *registry) attribute(id, name string) *Attribute {
	r.mu.Lock()
	defer r.mu.Unlock()

	if attr, ok := r.attributes[id]; ok {
		return attr
	}
	attr := &Attribute{ID: id, Name: name}
	r.attributes[id] = attr
	return attr
}

func (r *registry) metric(id, name string) *Metric {
	r.mu.Lock()
	defer r.mu.Unlock()

	if metric, ok := r.metrics[id]; ok {
		return metric
	}
	metric := &Metric{ID: id, Name: name}
	r.metrics[id] = metric
	return metric
}

func (r *registry) size() (attributes, metrics int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.attributes), len(r.metrics)
}
