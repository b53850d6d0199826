// internal/observe/observer_test.go
package observe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	name string
	log  *[]string
}

func (r *recorder) Update(subject string) {
	*r.log = append(*r.log, r.name+":"+subject)
}

func TestNotifyInRegistrationOrder(t *testing.T) {
	var log []string
	var l List[string]
	l.Register(&recorder{name: "a", log: &log})
	l.Register(&recorder{name: "b", log: &log})

	l.Notify("x")
	assert.Equal(t, []string{"a:x", "b:x"}, log)
}

func TestDuplicateRegistrations(t *testing.T) {
	var log []string
	var l List[string]
	r := &recorder{name: "a", log: &log}
	l.Register(r)
	l.Register(r)
	assert.Equal(t, 2, l.Len())

	l.Notify("x")
	assert.Len(t, log, 2)

	// Unregister drops one registration at a time.
	l.Unregister(r)
	assert.Equal(t, 1, l.Len())
	l.Notify("y")
	assert.Equal(t, []string{"a:x", "a:x", "a:y"}, log)

	l.Unregister(r)
	l.Unregister(r) // absent observer is a no-op
	assert.Equal(t, 0, l.Len())
}

func TestFuncAdapter(t *testing.T) {
	var got []int
	var l List[int]
	l.Register(Func[int](func(subject int) { got = append(got, subject) }))

	l.Notify(1)
	l.Notify(2)
	assert.Equal(t, []int{1, 2}, got)
}

func TestUnregisterNonComparableObserver(t *testing.T) {
	var got []int
	var l List[int]
	l.Register(Func[int](func(subject int) { got = append(got, subject) }))
	l.Register(Func[int](func(subject int) { got = append(got, subject*10) }))
	// Func values are not comparable; unregistering one must not panic even
	// with several of them registered.
	assert.NotPanics(t, func() {
		l.Unregister(Func[int](func(int) {}))
	})
	assert.Equal(t, 2, l.Len())

	// A comparable observer still unregisters past non-comparable entries.
	r := &recorder{name: "a", log: new([]string)}
	var lr List[string]
	lr.Register(Func[string](func(string) {}))
	lr.Register(r)
	assert.NotPanics(t, func() { lr.Unregister(r) })
	assert.Equal(t, 1, lr.Len())
}
