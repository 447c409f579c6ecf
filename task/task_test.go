package task

import (
	"context"
	"testing"

	"github.com/arjenvrh/taskqueue/priority"
	"github.com/arjenvrh/taskqueue/taskstate"
)

// plainTask implements only the required Task contract.
type plainTask struct {
	id    ID
	pri   priority.Priority
	qos   QoS
	state taskstate.State
}

func newPlainTask() *plainTask {
	return &plainTask{id: NewID(), pri: priority.Medium, state: taskstate.Ready()}
}

func (t *plainTask) ID() ID                          { return t.id }
func (t *plainTask) Priority() priority.Priority      { return t.pri }
func (t *plainTask) SetPriority(p priority.Priority)  { t.pri = p }
func (t *plainTask) QoS() QoS                         { return t.qos }
func (t *plainTask) State() *taskstate.State          { return &t.state }
func (t *plainTask) Execute(ctx context.Context) bool { return true }

// fullTask additionally implements every optional capability.
type fullTask struct {
	plainTask
	deps []Task
}

func (t *fullTask) Configure(ctx context.Context) bool { return true }
func (t *fullTask) Pause(ctx context.Context) bool     { return true }
func (t *fullTask) Resume(ctx context.Context) bool    { return true }
func (t *fullTask) Cancel(ctx context.Context) bool    { return true }
func (t *fullTask) Finish()                            {}
func (t *fullTask) Dependencies() []Task               { return t.deps }
func (t *fullTask) IncompleteDependencies() []Task {
	var out []Task
	for _, d := range t.deps {
		if !d.State().DidSucceed() {
			out = append(out, d)
		}
	}
	return out
}
func (t *fullTask) UpNext() (Task, bool) {
	for _, d := range t.IncompleteDependencies() {
		if !d.State().DidFail() && !d.State().WasCancelled() {
			return d, true
		}
	}
	return nil, false
}
func (t *fullTask) DependencyFinished(dependency Task) {}

func TestNewHandleDerivesOnlyAdvertisedCapabilities(t *testing.T) {
	plain := newPlainTask()
	h := NewHandle(plain)
	if h.Caps != 0 {
		t.Errorf("plain task derived capabilities %v, want none", h.Caps)
	}

	full := &fullTask{plainTask: *newPlainTask()}
	h2 := NewHandle(full)
	want := CapConfigurable | CapPausable | CapCancellable | CapDependent | CapFinisher
	if h2.Caps != want {
		t.Errorf("full task derived capabilities %v, want %v", h2.Caps, want)
	}

	if _, ok := h.Dependent(); ok {
		t.Error("plain task should not report Dependent capability")
	}
	if _, ok := h2.Dependent(); !ok {
		t.Error("full task should report Dependent capability")
	}
}

func TestIDIdentity(t *testing.T) {
	a := NewID()
	b := NewID()
	if a == b {
		t.Fatal("two fresh ids compared equal")
	}
	if a != a {
		t.Fatal("an id does not compare equal to itself")
	}
	var zero ID
	if !zero.IsZero() {
		t.Fatal("zero value ID is not IsZero()")
	}
}
