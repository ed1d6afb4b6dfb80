package gcn

// EventKind identifies a card state change.
type EventKind int

// Card state changes delivered to subscribers.
const (
	EventActiveDirChanged EventKind = iota
	EventActiveBATChanged
	EventClosed
)

func (k EventKind) String() string {
	switch k {
	case EventActiveDirChanged:
		return "active directory changed"
	case EventActiveBATChanged:
		return "active block table changed"
	case EventClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Event describes a state change. Index is the new active copy for the
// active-copy events.
type Event struct {
	Kind    EventKind
	Index   int
	Version uint64
}

// observers keeps subscriber callbacks keyed by registration id so that an
// unsubscribe removes exactly one callback.
type observers struct {
	nextID    int
	callbacks map[int]func(Event)
	order     []int
}

func (o *observers) add(fn func(Event)) int {
	if o.callbacks == nil {
		o.callbacks = make(map[int]func(Event))
	}
	id := o.nextID
	o.nextID++
	o.callbacks[id] = fn
	o.order = append(o.order, id)
	return id
}

func (o *observers) remove(id int) {
	if _, ok := o.callbacks[id]; !ok {
		return
	}
	delete(o.callbacks, id)
	for i, v := range o.order {
		if v == id {
			o.order = append(o.order[:i], o.order[i+1:]...)
			break
		}
	}
}

// snapshot returns the callbacks in registration order.
func (o *observers) snapshot() []func(Event) {
	fns := make([]func(Event), 0, len(o.order))
	for _, id := range o.order {
		fns = append(fns, o.callbacks[id])
	}
	return fns
}
