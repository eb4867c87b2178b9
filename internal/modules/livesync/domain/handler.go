package domain

import realtime "ventasWs/internal/modules/realtime/domain"

// Handler receives change events for the topics it was subscribed to.
type Handler interface {
	Handle(event realtime.ChangeEvent) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(event realtime.ChangeEvent) error

func (f HandlerFunc) Handle(event realtime.ChangeEvent) error { return f(event) }

// Dispatcher fans one incoming event out to its subscribers.
type Dispatcher interface {
	Dispatch(event realtime.ChangeEvent)
}
