package mocks

import (
	"context"

	"github.com/cmass-sales/visitlog/internal/domain"
	mock "github.com/stretchr/testify/mock"
)

type MockSchoolRegistry struct {
	mock.Mock
}

type MockSchoolRegistry_Expecter struct {
	mock *mock.Mock
}

func (_m *MockSchoolRegistry) EXPECT() *MockSchoolRegistry_Expecter {
	return &MockSchoolRegistry_Expecter{mock: &_m.Mock}
}

func (_m *MockSchoolRegistry) Lookup(ctx context.Context, name string) (domain.SchoolRecord, error) {
	ret := _m.Called(ctx, name)

	if len(ret) == 0 {
		panic("no return value specified for Lookup")
	}

	var r0 domain.SchoolRecord
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) (domain.SchoolRecord, error)); ok {
		return rf(ctx, name)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string) domain.SchoolRecord); ok {
		r0 = rf(ctx, name)
	} else {
		r0 = ret.Get(0).(domain.SchoolRecord)
	}

	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, name)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

type MockSchoolRegistry_Lookup_Call struct {
	*mock.Call
}

func (_e *MockSchoolRegistry_Expecter) Lookup(ctx interface{}, name interface{}) *MockSchoolRegistry_Lookup_Call {
	return &MockSchoolRegistry_Lookup_Call{Call: _e.mock.On("Lookup", ctx, name)}
}

func (_c *MockSchoolRegistry_Lookup_Call) Run(run func(ctx context.Context, name string)) *MockSchoolRegistry_Lookup_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run(args[0].(context.Context), args[1].(string))
	})
	return _c
}

func (_c *MockSchoolRegistry_Lookup_Call) Return(_a0 domain.SchoolRecord, _a1 error) *MockSchoolRegistry_Lookup_Call {
	_c.Call.Return(_a0, _a1)
	return _c
}

func (_c *MockSchoolRegistry_Lookup_Call) Once() *MockSchoolRegistry_Lookup_Call {
	_c.Call.Once()
	return _c
}

func (_c *MockSchoolRegistry_Lookup_Call) Maybe() *MockSchoolRegistry_Lookup_Call {
	_c.Call.Maybe()
	return _c
}

func NewMockSchoolRegistry(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockSchoolRegistry {
	m := &MockSchoolRegistry{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
