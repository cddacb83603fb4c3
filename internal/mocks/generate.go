// Package mocks provides mock implementations for testing the atelier client.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for our port interfaces.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	mockClassifier := mocks.NewMockClassifier(ctrl)
//	mockClassifier.EXPECT().Label(gomock.Any(), gomock.Any()).Return("balanced")
package mocks

// Generate mock for the gallery Classifier interface.
// This creates MockClassifier with the Label method.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=classifier_mock.go github.com/artmixer/atelier/internal/gallery Classifier

// Generate mock for the api SessionSource interface.
// This creates MockSessionSource with IsAuthenticated, IsAdmin, TokenSource.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=session_source_mock.go github.com/artmixer/atelier/internal/api SessionSource
