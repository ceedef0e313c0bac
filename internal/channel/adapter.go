package channel

// Adapter normalizes a heterogeneous per-channel payload into the
// canonical order shape consumed by the matching service.
type Adapter interface {
	// Name identifies the adapter's source system.
	Name() string
	// Supports reports whether this adapter understands the payload coming
	// from the given channel.
	Supports(channel string, payload map[string]any) bool
	// Normalize stamps the canonical sourceSystem field and backfills
	// canonical keys from system-specific locations. Existing values are
	// never overwritten.
	Normalize(payload map[string]any) map[string]any
}

// Registry dispatches to the first adapter, in registration order, whose
// Supports predicate holds. Registration order is significant: the first
// match wins, so more specific adapters must be registered before more
// permissive ones.
type Registry struct {
	adapters []Adapter
}

func NewRegistry(adapters ...Adapter) *Registry {
	return &Registry{adapters: adapters}
}

func (r *Registry) Register(a Adapter) {
	r.adapters = append(r.adapters, a)
}

// Resolve returns the first supporting adapter, or nil when no adapter
// understands the payload.
func (r *Registry) Resolve(channel string, payload map[string]any) Adapter {
	for _, a := range r.adapters {
		if a.Supports(channel, payload) {
			return a
		}
	}
	return nil
}

// copyPayload shallow-copies the payload so normalization never mutates
// the caller's map.
func copyPayload(payload map[string]any) map[string]any {
	out := make(map[string]any, len(payload)+4)
	for k, v := range payload {
		out[k] = v
	}
	return out
}

// backfill sets key only when it is currently absent or unfilled.
func backfill(payload map[string]any, key string, value any) {
	if value == nil {
		return
	}
	if s, ok := value.(string); ok && s == "" {
		return
	}
	if existing, ok := payload[key]; ok && existing != nil {
		if s, isStr := existing.(string); !isStr || s != "" {
			return
		}
	}
	payload[key] = value
}

// lookupPath walks nested maps along a dot-separated path.
func lookupPath(payload map[string]any, path ...string) any {
	var current any = payload
	for _, key := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current, ok = m[key]
		if !ok {
			return nil
		}
	}
	return current
}

// firstElement returns the first entry of a []any payload list.
func firstElement(v any) map[string]any {
	list, ok := v.([]any)
	if !ok || len(list) == 0 {
		return nil
	}
	m, _ := list[0].(map[string]any)
	return m
}
