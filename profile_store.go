package talent

import (
	"context"
	"sync"
)

const msgProfileFailed = "An error occurred"

// ProfileState is the cached view of the signed-in user's profile
type ProfileState struct {
	Profile *Profile
	Loading bool
	Error   string
}

// Exists reports whether the user has created a profile yet
func (s ProfileState) Exists() bool {
	return s.Profile != nil
}

// Current returns the cached profile, or ErrProfileNotFound when the user
// has not created one yet.
func (s ProfileState) Current() (*Profile, error) {
	if s.Profile == nil {
		return nil, ErrProfileNotFound.Clone()
	}
	return s.Profile, nil
}

// ProfileStore caches the current user's profile. The API is the source of
// truth: a save replaces the cache with the server representation.
type ProfileStore struct {
	api    ProfileAPI
	logger Logger

	mu         sync.RWMutex
	state      ProfileState
	generation uint64
}

// NewProfileStore returns a store in the loading state
func NewProfileStore(api ProfileAPI) *ProfileStore {
	return &ProfileStore{
		api:    api,
		logger: defLogger{},
		state:  ProfileState{Loading: true},
	}
}

func (s *ProfileStore) WithLogger(logger Logger) *ProfileStore {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// State returns a copy of the cached state
func (s *ProfileStore) State() ProfileState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.state
	if s.state.Profile != nil {
		p := *s.state.Profile
		out.Profile = &p
	}
	return out
}

// FetchCurrent loads GET /profile/me. A 404 is the "no profile yet" state
// and leaves Error empty. It returns the fetched profile, nil otherwise.
func (s *ProfileStore) FetchCurrent(ctx context.Context) *Profile {
	gen := s.begin()

	profile, err := s.api.CurrentProfile(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return nil
	}

	switch {
	case err == nil:
		s.state = ProfileState{Profile: profile}
		if profile == nil {
			return nil
		}
		p := *profile
		return &p
	case IsNotFoundError(err):
		s.logger.Debug("profile not created yet")
		s.state = ProfileState{}
		return nil
	default:
		s.logger.Error("fetch profile: %v", err)
		s.state.Loading = false
		s.state.Error = ErrorMessage(err, msgProfileFailed)
		return nil
	}
}

// Save normalizes the form, posts it and caches the server response.
func (s *ProfileStore) Save(ctx context.Context, in ProfileInput) bool {
	gen := s.begin()

	saved, err := s.api.SaveProfile(ctx, in.ToProfile())

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return false
	}

	if err != nil {
		s.logger.Error("save profile: %v", err)
		s.state.Loading = false
		s.state.Error = ErrorMessage(err, msgProfileFailed)
		return false
	}

	s.state = ProfileState{Profile: saved}
	return true
}

// Clear drops the cached profile. Wired to session logout.
func (s *ProfileStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.state = ProfileState{}
}

func (s *ProfileStore) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.state.Loading = true
	s.state.Error = ""
	return s.generation
}
