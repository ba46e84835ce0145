package main

import (
	"time"

	"github.com/google/uuid"
)

// Action is one state transition for the engine. Every concrete action is a
// small value type; the engine switches on them.
type Action interface {
	isAction()
}

type (
	renderAction         struct{}
	quitAction           struct{}
	tickAction           struct{}
	selectNextAction     struct{}
	selectPreviousAction struct{}
	removeSelectedAction struct{}

	sortAction struct {
		column sortColumn
	}

	insertRowAction struct {
		entry *FolderEntry
	}

	updateStatusAction struct {
		id     uuid.UUID
		status RemovalStatus
	}

	errorAction struct {
		message string
	}

	scanFinishedAction struct {
		found   int
		elapsed time.Duration
	}
)

func (renderAction) isAction()         {}
func (quitAction) isAction()           {}
func (tickAction) isAction()           {}
func (selectNextAction) isAction()     {}
func (selectPreviousAction) isAction() {}
func (removeSelectedAction) isAction() {}
func (sortAction) isAction()           {}
func (insertRowAction) isAction()      {}
func (updateStatusAction) isAction()   {}
func (errorAction) isAction()          {}
func (scanFinishedAction) isAction()   {}

// actionQueue is an unbounded FIFO. Push never waits on the consumer, which
// reads from Out.
type actionQueue struct {
	in  chan Action
	out chan Action
}

func newActionQueue() *actionQueue {
	q := &actionQueue{
		in:  make(chan Action),
		out: make(chan Action),
	}
	go q.pump()
	return q
}

func (q *actionQueue) Push(a Action) {
	q.in <- a
}

func (q *actionQueue) Out() <-chan Action {
	return q.out
}

func (q *actionQueue) pump() {
	var pending []Action
	for {
		if len(pending) == 0 {
			pending = append(pending, <-q.in)
			continue
		}
		select {
		case a := <-q.in:
			pending = append(pending, a)
		case q.out <- pending[0]:
			pending[0] = nil
			pending = pending[1:]
		}
	}
}
