package task

// Capabilities is a bitset recording which optional contracts a task
// satisfies, derived once at registration (design note: "Polymorphism over
// capabilities" — no runtime type assertions during dispatch).
type Capabilities uint8

const (
	CapConfigurable Capabilities = 1 << iota
	CapPausable
	CapCancellable
	CapDependent
	CapFinisher
)

// Has reports whether the record advertises the given capability.
func (c Capabilities) Has(cap Capabilities) bool { return c&cap != 0 }

// Handle is a task plus its capability record, cached function-pointer style:
// the scheduler dispatches directly through the stored interface values
// rather than re-asserting the underlying type at each lifecycle stage.
type Handle struct {
	Task Task
	Caps Capabilities

	configurable Configurable
	pausable     Pausable
	cancellable  Cancellable
	dependent    Dependent
	finisher     Finisher
}

// NewHandle derives a Handle's capability record from t via a single round of
// interface assertions.
func NewHandle(t Task) *Handle {
	h := &Handle{Task: t}

	if c, ok := t.(Configurable); ok {
		h.Caps |= CapConfigurable
		h.configurable = c
	}
	if p, ok := t.(Pausable); ok {
		h.Caps |= CapPausable
		h.pausable = p
	}
	if c, ok := t.(Cancellable); ok {
		h.Caps |= CapCancellable
		h.cancellable = c
	}
	if d, ok := t.(Dependent); ok {
		h.Caps |= CapDependent
		h.dependent = d
	}
	if f, ok := t.(Finisher); ok {
		h.Caps |= CapFinisher
		h.finisher = f
	}

	return h
}

// Configurable returns the cached Configurable view, if any.
func (h *Handle) Configurable() (Configurable, bool) {
	return h.configurable, h.Caps.Has(CapConfigurable)
}

// Pausable returns the cached Pausable view, if any.
func (h *Handle) Pausable() (Pausable, bool) {
	return h.pausable, h.Caps.Has(CapPausable)
}

// Cancellable returns the cached Cancellable view, if any.
func (h *Handle) Cancellable() (Cancellable, bool) {
	return h.cancellable, h.Caps.Has(CapCancellable)
}

// Dependent returns the cached Dependent view, if any.
func (h *Handle) Dependent() (Dependent, bool) {
	return h.dependent, h.Caps.Has(CapDependent)
}

// Finisher returns the cached Finisher view, if any.
func (h *Handle) Finisher() (Finisher, bool) {
	return h.finisher, h.Caps.Has(CapFinisher)
}
