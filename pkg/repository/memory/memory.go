package memory

import (
	"errors"

	"github.com/memberops-lab/memberflow/pkg/domain/interfaces"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("record not found")

type Memory struct {
	event        *eventRepository
	thread       *threadRepository
	cancellation *cancellationRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		event:        newEventRepository(),
		thread:       newThreadRepository(),
		cancellation: newCancellationRepository(),
	}
}

func (m *Memory) SubscriptionEvent() interfaces.SubscriptionEventRepository {
	return m.event
}

func (m *Memory) MemberThread() interfaces.MemberThreadRepository {
	return m.thread
}

func (m *Memory) Cancellation() interfaces.CancellationRepository {
	return m.cancellation
}

func (m *Memory) Close() error {
	return nil
}
