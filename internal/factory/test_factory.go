package factory

import (
	"time"

	"github.com/netpad-project/netpad/internal/admin"
	"github.com/netpad-project/netpad/internal/dependencies/mocks"
	"github.com/netpad-project/netpad/internal/storage/memory"
)

// TestAdminPassword is the admin password TestApp is configured with
const TestAdminPassword = "test-admin-password"

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock *mocks.MockClock
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	hash, err := admin.HashPassword(TestAdminPassword)
	if err != nil {
		panic(err)
	}

	app := newWithDependencies(store, mockClock, hash, admin.DefaultConfig())

	return &TestApp{
		App:       app,
		MockClock: mockClock,
	}
}
