package services

import (
	"context"
	"sync"
)

// Profile is the display identity consumed from the auth collaborator.
type Profile struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// ProfileProvider resolves a user id to display fields. The messaging core
// never owns user records; it only joins against them.
type ProfileProvider interface {
	Profile(ctx context.Context, userID string) (Profile, error)
}

// StaticProfileProvider is a map-backed ProfileProvider for tests and for
// deployments where profiles are pushed in at startup. Unknown ids resolve
// to a bare profile carrying just the id.
type StaticProfileProvider struct {
	mu       sync.RWMutex
	profiles map[string]Profile
}

func NewStaticProfileProvider() *StaticProfileProvider {
	return &StaticProfileProvider{profiles: make(map[string]Profile)}
}

func (p *StaticProfileProvider) Set(profile Profile) {
	p.mu.Lock()
	p.profiles[profile.ID] = profile
	p.mu.Unlock()
}

func (p *StaticProfileProvider) Profile(_ context.Context, userID string) (Profile, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if profile, ok := p.profiles[userID]; ok {
		return profile, nil
	}
	return Profile{ID: userID, Username: userID}, nil
}
