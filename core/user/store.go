package user

import (
	"fmt"
	"sort"
	"sync"

	"github.com/trezcool/shule/core"
)

const (
	idPrefix = "USR"
	idBase   = 999
)

// Store keeps users keyed by username. Writing an existing username overwrites it.
type Store struct {
	sync.RWMutex
	table   map[string]*User
	pkCount int
}

func NewStore() *Store {
	return &Store{
		table:   make(map[string]*User),
		pkCount: idBase,
	}
}

// Create issues a new id for `usr` and stores it.
func (s *Store) Create(usr User) User {
	s.Lock()
	defer s.Unlock()

	s.pkCount++
	usr.ID = fmt.Sprintf("%s%d", idPrefix, s.pkCount)
	s.table[usr.Username] = &usr
	return usr
}

// Restore stores `usr` under its persisted id and moves the id counter past it.
func (s *Store) Restore(usr User) {
	s.Lock()
	defer s.Unlock()
	s.restore(usr)
}

func (s *Store) restore(usr User) {
	if n, ok := core.SeqOf(usr.ID, idPrefix); ok && n > s.pkCount {
		s.pkCount = n
	}
	s.table[usr.Username] = &usr
}

func (s *Store) Get(username string) (User, error) {
	s.RLock()
	defer s.RUnlock()

	if usr, ok := s.table[username]; ok {
		return *usr, nil
	}
	return User{}, ErrNotFound
}

func (s *Store) Update(usr User) error {
	s.Lock()
	defer s.Unlock()

	if _, ok := s.table[usr.Username]; !ok {
		return ErrNotFound
	}
	s.table[usr.Username] = &usr
	return nil
}

func (s *Store) Delete(username string) bool {
	s.Lock()
	defer s.Unlock()

	if _, ok := s.table[username]; !ok {
		return false
	}
	delete(s.table, username)
	return true
}

// All returns every user ordered by id.
func (s *Store) All() []User {
	s.RLock()
	defer s.RUnlock()

	users := make([]User, 0, len(s.table))
	for _, u := range s.table {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool { return core.LessID(users[i].ID, users[j].ID) })
	return users
}

func (s *Store) Len() int {
	s.RLock()
	defer s.RUnlock()
	return len(s.table)
}

// Merge restores every user of `other` into the store.
func (s *Store) Merge(other *Store) {
	users := other.All()

	s.Lock()
	defer s.Unlock()
	for _, usr := range users {
		s.restore(usr)
	}
}
