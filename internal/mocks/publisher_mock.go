package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"storycanvas/internal/messaging"
)

// MockGenerationEventPublisher is a mock type for the messaging.GenerationEventPublisher type
type MockGenerationEventPublisher struct {
	mock.Mock
}

// PublishGenerationEvent provides a mock function with given fields: ctx, event
func (_m *MockGenerationEventPublisher) PublishGenerationEvent(ctx context.Context, event messaging.GenerationEvent) error {
	ret := _m.Called(ctx, event)
	return ret.Error(0)
}

// Close provides a mock function with given fields:
func (_m *MockGenerationEventPublisher) Close() error {
	ret := _m.Called()
	return ret.Error(0)
}

// NewMockGenerationEventPublisher creates a new instance of MockGenerationEventPublisher. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockGenerationEventPublisher(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockGenerationEventPublisher {
	m := &MockGenerationEventPublisher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ messaging.GenerationEventPublisher = (*MockGenerationEventPublisher)(nil)
