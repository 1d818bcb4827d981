package main

import (
	"encoding/json"
	"sort"
	"strings"

	badger "github.com/dgraph-io/badger/v3"
	"github.com/pkg/errors"
)

// Key scheme:
//
//	user:<lower>                    → userRecord
//	group:<lower>                   → groupRecord
//	member:<lowergroup>:<loweruser> → memberRecord
//
// Keys are lowercased so lookups compare case-insensitively; records keep
// the original casing for display.
type badgerStore struct {
	db *badger.DB
}

type userRecord struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type groupRecord struct {
	Name   string `json:"name"`
	Leader string `json:"leader"`
}

type memberRecord struct {
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// OpenBadgerStore opens (or creates) the durable store under dir.
func OpenBadgerStore(dir string) (Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "open store at %s", dir)
	}
	return &badgerStore{db: db}, nil
}

func userKey(username string) []byte {
	return []byte("user:" + strings.ToLower(username))
}

func groupKey(name string) []byte {
	return []byte("group:" + strings.ToLower(name))
}

func memberKey(group, username string) []byte {
	return []byte("member:" + strings.ToLower(group) + ":" + strings.ToLower(username))
}

func (s *badgerStore) getJSON(key []byte, v any) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		data, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		return json.Unmarshal(data, v)
	})
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "get %s", key)
	}
	return true, nil
}

func (s *badgerStore) GetPassword(username string) (string, bool) {
	var rec userRecord
	ok, err := s.getJSON(userKey(username), &rec)
	if err != nil || !ok {
		return "", false
	}
	return rec.Password, true
}

func (s *badgerStore) SetPassword(username, password string) error {
	data, err := json.Marshal(userRecord{Name: username, Password: password})
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(userKey(username), data)
	})
}

func (s *badgerStore) AllUsernames() ([]string, error) {
	names := make([]string, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte("user:")
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var rec userRecord
			err := it.Item().Value(func(data []byte) error {
				return json.Unmarshal(data, &rec)
			})
			if err != nil {
				return err
			}
			names = append(names, rec.Name)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "list users")
	}
	sort.Strings(names)
	return names, nil
}

func (s *badgerStore) GetGroupLeader(name string) (string, bool) {
	var rec groupRecord
	ok, err := s.getJSON(groupKey(name), &rec)
	if err != nil || !ok {
		return "", false
	}
	return rec.Leader, true
}

func (s *badgerStore) CreateGroup(name, leader string) error {
	group, err := json.Marshal(groupRecord{Name: name, Leader: leader})
	if err != nil {
		return err
	}
	member, err := json.Marshal(memberRecord{Name: leader, Role: RoleLeader})
	if err != nil {
		return err
	}

	// Group record and leader membership land in one transaction so a
	// group can never exist without its leader.
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(groupKey(name), group); err != nil {
			return err
		}
		return txn.Set(memberKey(name, leader), member)
	})
}

func (s *badgerStore) AllGroupNames() ([]string, error) {
	names := make([]string, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte("group:")
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var rec groupRecord
			err := it.Item().Value(func(data []byte) error {
				return json.Unmarshal(data, &rec)
			})
			if err != nil {
				return err
			}
			names = append(names, rec.Name)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "list groups")
	}
	sort.Strings(names)
	return names, nil
}

func (s *badgerStore) GetMembers(group string) (map[string]Role, error) {
	members := make(map[string]Role)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte("member:" + strings.ToLower(group) + ":")
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var rec memberRecord
			err := it.Item().Value(func(data []byte) error {
				return json.Unmarshal(data, &rec)
			})
			if err != nil {
				return err
			}
			members[rec.Name] = rec.Role
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "members of %s", group)
	}
	return members, nil
}

func (s *badgerStore) AddMember(group, username string, role Role) error {
	data, err := json.Marshal(memberRecord{Name: username, Role: role})
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(memberKey(group, username), data)
	})
}

func (s *badgerStore) Close() error {
	return s.db.Close()
}
