package handlers

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/R-Vicente/watchnext/internal/onboarding"
	"github.com/R-Vicente/watchnext/internal/preferences"
	"github.com/R-Vicente/watchnext/internal/recommend"
)

// PreferenceStores resolves a user's preference store
type PreferenceStores interface {
	Get(ctx context.Context, userID uuid.UUID) (*preferences.Store, error)
}

var _ PreferenceStores = (*preferences.Registry)(nil)

// userFlow is the in-process state of one user's questionnaire and onboarding
type userFlow struct {
	recommend *recommend.Session

	mu         sync.Mutex
	onboarding *onboarding.Session
}

func (f *userFlow) onboardingSession() *onboarding.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.onboarding
}

func (f *userFlow) setOnboardingSession(s *onboarding.Session) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onboarding = s
}

// Flows holds per-user flow state for the lifetime of the process
type Flows struct {
	mu    sync.Mutex
	users map[uuid.UUID]*userFlow
}

// NewFlows creates an empty Flows
func NewFlows() *Flows {
	return &Flows{users: make(map[uuid.UUID]*userFlow)}
}

func (f *Flows) get(userID uuid.UUID) *userFlow {
	f.mu.Lock()
	defer f.mu.Unlock()

	flow, ok := f.users[userID]
	if !ok {
		flow = &userFlow{recommend: recommend.NewSession()}
		f.users[userID] = flow
	}
	return flow
}

// Forget drops a user's flow state
func (f *Flows) Forget(userID uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if flow, ok := f.users[userID]; ok {
		flow.recommend.Reset()
		delete(f.users, userID)
	}
}
