// Package mocks provides shared test doubles for the store, auth and events
// interfaces.
//
// Store mocks use testify/mock so tests can set expectations per call:
//
//	users := new(mocks.MockUserStore)
//	users.On("GetByUsername", mock.Anything, "alice").Return(nil, store.ErrUserNotFound)
//
// The JWT service and password hasher mocks use function fields with
// defaults, and RecordingEmitter keeps every event it receives.
package mocks
