// Package mocks provides generated mock implementations for testing the
// grading pipeline.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for
// the grading interfaces. To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	mockOracle := grading.NewMockOracle(ctrl)
//	mockOracle.EXPECT().Generate(gomock.Any(), gomock.Any()).Return(reply, nil)
package mocks

// Generate mock for the Oracle interface from the service package. This
// creates MockOracle, used by grader tests to script per-call replies and
// failures.
//go:generate go run go.uber.org/mock/mockgen -package=grading -destination=grading/oracle_mock.go github.com/avschaefer/cloudhire-ai-api/internal/service Oracle

// Generate mock for the Notifier interface from the service package. This
// creates MockNotifier, used by orchestrator tests to assert webhook payloads.
//go:generate go run go.uber.org/mock/mockgen -package=grading -destination=grading/notifier_mock.go github.com/avschaefer/cloudhire-ai-api/internal/service Notifier
