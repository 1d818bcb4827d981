package main

import (
	"sort"
	"strings"
	"sync"
)

// Role of a group member. Exactly one member per group holds RoleLeader,
// assigned when the group is created.
type Role int

const (
	RoleMember Role = iota
	RoleLeader
)

// Store is the credential and group persistence collaborator. All name
// lookups compare case-insensitively; implementations keep the original
// casing for display.
type Store interface {
	// GetPassword returns the stored password for a username, or false if
	// the user does not exist.
	GetPassword(username string) (string, bool)
	// SetPassword creates or replaces a credential.
	SetPassword(username, password string) error
	// AllUsernames returns every registered username.
	AllUsernames() ([]string, error)

	// GetGroupLeader returns the leader username of a group, or false if
	// the group does not exist.
	GetGroupLeader(name string) (string, bool)
	// CreateGroup registers a group and its leader membership atomically.
	CreateGroup(name, leader string) error
	// AllGroupNames returns every group name, sorted for deterministic
	// iteration.
	AllGroupNames() ([]string, error)

	// GetMembers returns the member→role mapping of a group.
	GetMembers(group string) (map[string]Role, error)
	// AddMember adds a membership to an existing group.
	AddMember(group, username string, role Role) error

	// Close releases any underlying resources.
	Close() error
}

type memUser struct {
	Name     string
	Password string
}

type memGroup struct {
	Name    string
	Leader  string
	Members map[string]Role // keyed by lowercased username
	Display map[string]string
}

// memoryStore keeps everything in maps keyed by lowercased names. Used by
// tests and by servers run without a database directory.
type memoryStore struct {
	mu     sync.RWMutex
	users  map[string]*memUser
	groups map[string]*memGroup
}

// NewMemoryStore returns an empty in-memory Store.
func NewMemoryStore() Store {
	return &memoryStore{
		users:  make(map[string]*memUser),
		groups: make(map[string]*memGroup),
	}
}

func (s *memoryStore) GetPassword(username string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[strings.ToLower(username)]
	if !ok {
		return "", false
	}
	return u.Password, true
}

func (s *memoryStore) SetPassword(username, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users[strings.ToLower(username)] = &memUser{Name: username, Password: password}
	return nil
}

func (s *memoryStore) AllUsernames() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.users))
	for _, u := range s.users {
		names = append(names, u.Name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *memoryStore) GetGroupLeader(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.groups[strings.ToLower(name)]
	if !ok {
		return "", false
	}
	return g.Leader, true
}

func (s *memoryStore) CreateGroup(name, leader string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.groups[strings.ToLower(name)] = &memGroup{
		Name:    name,
		Leader:  leader,
		Members: map[string]Role{strings.ToLower(leader): RoleLeader},
		Display: map[string]string{strings.ToLower(leader): leader},
	}
	return nil
}

func (s *memoryStore) AllGroupNames() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.groups))
	for _, g := range s.groups {
		names = append(names, g.Name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *memoryStore) GetMembers(group string) (map[string]Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.groups[strings.ToLower(group)]
	if !ok {
		return map[string]Role{}, nil
	}

	members := make(map[string]Role, len(g.Members))
	for key, role := range g.Members {
		members[g.Display[key]] = role
	}
	return members, nil
}

func (s *memoryStore) AddMember(group, username string, role Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[strings.ToLower(group)]
	if !ok {
		return nil
	}

	key := strings.ToLower(username)
	g.Members[key] = role
	g.Display[key] = username
	return nil
}

func (s *memoryStore) Close() error {
	return nil
}

// memberRole resolves a username's role in a member map with the same
// case-insensitive comparison the store uses for its keys.
func memberRole(members map[string]Role, username string) (Role, bool) {
	lower := strings.ToLower(username)
	for name, role := range members {
		if strings.ToLower(name) == lower {
			return role, true
		}
	}
	return RoleMember, false
}
