package mocks

import (
	"context"

	"github.com/cmass-sales/visitlog/internal/domain"
	mock "github.com/stretchr/testify/mock"
)

type MockLookupCacheStore struct {
	mock.Mock
}

type MockLookupCacheStore_Expecter struct {
	mock *mock.Mock
}

func (_m *MockLookupCacheStore) EXPECT() *MockLookupCacheStore_Expecter {
	return &MockLookupCacheStore_Expecter{mock: &_m.Mock}
}

func (_m *MockLookupCacheStore) Load(ctx context.Context) (map[string]domain.SchoolRecord, error) {
	ret := _m.Called(ctx)

	if len(ret) == 0 {
		panic("no return value specified for Load")
	}

	var r0 map[string]domain.SchoolRecord
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context) (map[string]domain.SchoolRecord, error)); ok {
		return rf(ctx)
	}
	if rf, ok := ret.Get(0).(func(context.Context) map[string]domain.SchoolRecord); ok {
		r0 = rf(ctx)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(map[string]domain.SchoolRecord)
	}

	if rf, ok := ret.Get(1).(func(context.Context) error); ok {
		r1 = rf(ctx)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

type MockLookupCacheStore_Load_Call struct {
	*mock.Call
}

func (_e *MockLookupCacheStore_Expecter) Load(ctx interface{}) *MockLookupCacheStore_Load_Call {
	return &MockLookupCacheStore_Load_Call{Call: _e.mock.On("Load", ctx)}
}

func (_c *MockLookupCacheStore_Load_Call) Return(_a0 map[string]domain.SchoolRecord, _a1 error) *MockLookupCacheStore_Load_Call {
	_c.Call.Return(_a0, _a1)
	return _c
}

func (_c *MockLookupCacheStore_Load_Call) Once() *MockLookupCacheStore_Load_Call {
	_c.Call.Once()
	return _c
}

func (_m *MockLookupCacheStore) Save(ctx context.Context, entries map[string]domain.SchoolRecord) error {
	ret := _m.Called(ctx, entries)

	if len(ret) == 0 {
		panic("no return value specified for Save")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, map[string]domain.SchoolRecord) error); ok {
		r0 = rf(ctx, entries)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

type MockLookupCacheStore_Save_Call struct {
	*mock.Call
}

func (_e *MockLookupCacheStore_Expecter) Save(ctx interface{}, entries interface{}) *MockLookupCacheStore_Save_Call {
	return &MockLookupCacheStore_Save_Call{Call: _e.mock.On("Save", ctx, entries)}
}

func (_c *MockLookupCacheStore_Save_Call) Run(run func(ctx context.Context, entries map[string]domain.SchoolRecord)) *MockLookupCacheStore_Save_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run(args[0].(context.Context), args[1].(map[string]domain.SchoolRecord))
	})
	return _c
}

func (_c *MockLookupCacheStore_Save_Call) Return(_a0 error) *MockLookupCacheStore_Save_Call {
	_c.Call.Return(_a0)
	return _c
}

func (_c *MockLookupCacheStore_Save_Call) Once() *MockLookupCacheStore_Save_Call {
	_c.Call.Once()
	return _c
}

func NewMockLookupCacheStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockLookupCacheStore {
	m := &MockLookupCacheStore{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
