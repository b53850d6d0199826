// internal/observe/observer.go
package observe

import "reflect"

// Observer receives a synchronous notification whenever the subject it is
// registered on has finished applying a mutation.
type Observer[T any] interface {
	Update(subject T)
}

// Func adapts a plain function to the Observer interface.
type Func[T any] func(subject T)

func (f Func[T]) Update(subject T) { f(subject) }

// List holds registered observers for one subject. Registration order is
// preserved and duplicates are allowed: an observer registered twice is
// notified twice per mutation.
type List[T any] struct {
	observers []Observer[T]
}

// Register appends an observer to the notification list.
func (l *List[T]) Register(o Observer[T]) {
	l.observers = append(l.observers, o)
}

// Unregister removes the first registration of o, if any. The observer must
// have a comparable dynamic type (pointers are); an observer of a
// non-comparable type, such as a Func value, is ignored.
func (l *List[T]) Unregister(o Observer[T]) {
	if o == nil || !reflect.TypeOf(o).Comparable() {
		return
	}
	for i, registered := range l.observers {
		if registered == o {
			l.observers = append(l.observers[:i], l.observers[i+1:]...)
			return
		}
	}
}

// Notify calls Update(subject) on every registered observer, in registration
// order, before returning.
func (l *List[T]) Notify(subject T) {
	for _, o := range l.observers {
		o.Update(subject)
	}
}

// Len reports the number of registrations, counting duplicates.
func (l *List[T]) Len() int {
	return len(l.observers)
}
