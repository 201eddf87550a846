// Package mocks provides shared test doubles for the store, auth and
// real-time interfaces.
//
// Store mocks are testify mocks: set expectations with On(...) and check them
// with AssertExpectations. Their WithTx methods return the mock itself, so
// expectations hold inside and outside transactions alike. The auth doubles
// are small deterministic fakes that need no setup for the common case.
//
//	userStore := &mocks.MockUserStore{}
//	userStore.On("GetByID", mock.Anything, id).Return(user, nil)
package mocks
