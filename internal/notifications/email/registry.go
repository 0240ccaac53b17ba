package email

import (
	"sort"

	"usermail/internal/types"
)

// Registry maps email types to builders. It is filled at startup and read
// concurrently afterwards.
type Registry struct {
	builders map[types.EmailType]Builder
}

// NewRegistry returns a registry holding a builder for every known email type.
func NewRegistry(renderer *Renderer, site Site) *Registry {
	r := &Registry{builders: make(map[types.EmailType]Builder)}
	for t, spec := range notificationSpecs {
		r.Register(t, &notificationBuilder{emailType: t, spec: spec, renderer: renderer, site: site})
	}
	for t, spec := range tokenSpecs {
		r.Register(t, &tokenBuilder{emailType: t, spec: spec, renderer: renderer, site: site})
	}
	r.Register(types.EmailDigest, &digestBuilder{renderer: renderer, site: site})
	return r
}

// Register adds or replaces the builder for t.
func (r *Registry) Register(t types.EmailType, b Builder) {
	r.builders[t] = b
}

// Lookup returns the builder for t.
func (r *Registry) Lookup(t types.EmailType) (Builder, bool) {
	b, ok := r.builders[t]
	return b, ok
}

// Types returns the registered email types in sorted order.
func (r *Registry) Types() []types.EmailType {
	out := make([]types.EmailType, 0, len(r.builders))
	for t := range r.builders {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
