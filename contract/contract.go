//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-rooms/domain"
	"chat-rooms/domain/event"
	"context"
	"reflect"
	"time"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// Transport opens channels to the distribution service.
type Transport interface {
	Dial(ctx context.Context) (Channel, error)
}

// Channel is one live bidirectional event stream.
// ReadFrame blocks until a frame arrives or the channel breaks.
type Channel interface {
	ReadFrame() (event.Frame, error)
	WriteFrame(frame event.Frame) error
	Close() error
}

type Emitter interface {
	Emit(name string, payload any) error
}

type Handler func(frame event.Frame)

// Subscription is the handle returned for each registered handler.
// Dispose removes exactly that handler and can be called more than once.
type Subscription interface {
	Dispose()
}

type IConnection interface {
	Emitter
	State() domain.ConnectionState
	Connect(ctx context.Context) error
	Disconnect()
	On(name string, handler Handler) Subscription
	Off(name string)
	Frames() <-chan event.Frame
	Dispatch(frame event.Frame) int
}

type IIdentityStore interface {
	Get() (domain.Identity, bool)
	Set(name string) (domain.Identity, error)
	Clear() error
}

type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}
