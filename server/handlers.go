package main

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/nguyenvanduc62915/network/common"
)

// Server holds the shared state every connection goroutine works against.
// The store and session table are internally locked; filesystem mutations
// inside one group serialize on a per-group mutex, since concurrent writes
// to the same directory are the only filesystem races this protocol can
// produce.
type Server struct {
	storageRoot string
	store       Store
	sessions    *SessionTable

	lockMu     sync.Mutex
	groupLocks map[string]*sync.Mutex
}

func NewServer(storageRoot string, store Store) *Server {
	return &Server{
		storageRoot: storageRoot,
		store:       store,
		sessions:    NewSessionTable(),
		groupLocks:  make(map[string]*sync.Mutex),
	}
}

func (s *Server) groupLock(group string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()

	key := strings.ToLower(group)
	mu, ok := s.groupLocks[key]
	if !ok {
		mu = &sync.Mutex{}
		s.groupLocks[key] = mu
	}
	return mu
}

// dispatch routes one inbound frame and returns exactly one response
// payload, or nil for unrecognized opcodes, which are logged and dropped.
func (s *Server) dispatch(connID string, frame []byte) []byte {
	opcode, body, ok := common.ParseHeader(frame)
	if !ok {
		log.Printf("%s> unparsable header (%d bytes), dropped", connID, len(frame))
		return nil
	}

	req := common.Request(opcode)
	if req == common.RequestNone || req > common.RequestDelete {
		log.Printf("%s> unknown opcode %d (%d bytes), dropped", connID, opcode, len(body))
		return nil
	}

	log.Printf("%s> %s(%d)", connID, req, len(body))

	var respBody []byte
	var perr *common.ProtocolError

	// Connection sanity comes before everything else: a frame from a
	// connection the registry does not know cannot be served.
	if _, ok := s.sessions.Lookup(connID); !ok {
		perr = common.Errf(common.KindInternal, "An error occurred")
		log.Printf("%s> %s: [%s] %s", connID, req, perr.Kind, perr.Message)
		return common.BuildResponse(common.ErrorOf(req), []byte(perr.Message))
	}

	switch req {
	case common.RequestSignIn:
		respBody, perr = s.handleSignIn(connID, body)
	case common.RequestSignUp:
		respBody, perr = s.handleSignUp(body)
	case common.RequestSignOut:
		respBody, perr = s.handleSignOut(connID)
	case common.RequestGet:
		respBody, perr = s.handleGet(connID)
	case common.RequestCreateGroup:
		respBody, perr = s.handleCreateGroup(connID, body)
	case common.RequestJoinGroup:
		respBody, perr = s.handleJoinGroup(connID, body)
	case common.RequestCreateFolder:
		respBody, perr = s.handleCreateFolder(connID, body)
	case common.RequestUploadFile:
		respBody, perr = s.handleUploadFile(connID, body)
	case common.RequestDownloadFile:
		respBody, perr = s.handleDownloadFile(connID, body)
	case common.RequestDelete:
		respBody, perr = s.handleDelete(connID, body)
	}

	if perr != nil {
		log.Printf("%s> %s: [%s] %s", connID, req, perr.Kind, perr.Message)
		return common.BuildResponse(common.ErrorOf(req), []byte(perr.Message))
	}

	log.Printf("%s> %s: Success!", connID, req)
	return common.BuildResponse(common.SuccessOf(req), respBody)
}

// requireUser enforces the authentication gate; every opcode except
// SignIn, SignUp and SignOut runs through it first.
func (s *Server) requireUser(connID string) (string, *common.ProtocolError) {
	user, ok := s.sessions.Username(connID)
	if !ok {
		return "", common.Errf(common.KindInternal, "An error occurred")
	}
	if user == "" {
		return "", common.Errf(common.KindUnauthenticated, "You are not signed in")
	}
	return user, nil
}

func (s *Server) handleSignIn(connID string, body []byte) ([]byte, *common.ProtocolError) {
	username, password, ok := common.SplitCredentials(body)
	if !ok {
		return nil, common.Errf(common.KindValidation, "Invalid data")
	}

	stored, exists := s.store.GetPassword(username)
	if !exists {
		return nil, common.Errf(common.KindNotFound, "%s doesn't exist", username)
	}

	// Passwords compare case-sensitively even though usernames do not.
	if password != stored {
		return nil, common.Errf(common.KindValidation, "%sThe password is incorrect", username)
	}

	if !s.sessions.Bind(connID, username) {
		return nil, common.Errf(common.KindConflict, "%s already signed in", username)
	}

	return []byte("SignIn success"), nil
}

func (s *Server) handleSignUp(body []byte) ([]byte, *common.ProtocolError) {
	username, password, ok := common.SplitCredentials(body)
	if !ok {
		return nil, common.Errf(common.KindValidation, "Invalid data")
	}

	if _, exists := s.store.GetPassword(username); exists {
		return nil, common.Errf(common.KindConflict, "%s already exist", username)
	}

	if err := s.store.SetPassword(username, password); err != nil {
		return nil, common.Errf(common.KindIOFailure, "An error occurred")
	}

	return []byte("SignUp success"), nil
}

// handleSignOut clears the session's username unconditionally; an already
// anonymous session signing out is still a success.
func (s *Server) handleSignOut(connID string) ([]byte, *common.ProtocolError) {
	s.sessions.Clear(connID)
	return []byte("SignOut success"), nil
}

func (s *Server) handleGet(connID string) ([]byte, *common.ProtocolError) {
	user, perr := s.requireUser(connID)
	if perr != nil {
		return nil, perr
	}

	return s.treeResponse(user)
}

func (s *Server) handleCreateGroup(connID string, body []byte) ([]byte, *common.ProtocolError) {
	user, perr := s.requireUser(connID)
	if perr != nil {
		return nil, perr
	}

	groupName := string(body)
	if !common.ValidGroupName(groupName) {
		return nil, common.Errf(common.KindValidation, "Group name is invalid")
	}

	// The existence check has to sit under the group lock, or two
	// concurrent creators both pass it and the loser silently overwrites
	// the winner's leadership.
	mu := s.groupLock(groupName)
	mu.Lock()
	defer mu.Unlock()

	if _, exists := s.store.GetGroupLeader(groupName); exists {
		return nil, common.Errf(common.KindConflict, "%s already exist", groupName)
	}

	// A stale directory left over from a crashed run must not leak its
	// contents into the new group.
	dir := filepath.Join(s.storageRoot, groupName)
	if _, err := os.Stat(dir); err == nil {
		os.RemoveAll(dir)
	}
	if err := os.Mkdir(dir, 0755); err != nil {
		return nil, common.Errf(common.KindIOFailure, "Cannot create folder")
	}

	if err := s.store.CreateGroup(groupName, user); err != nil {
		return nil, common.Errf(common.KindIOFailure, "An error occurred")
	}

	return s.treeResponse(user)
}

func (s *Server) handleJoinGroup(connID string, body []byte) ([]byte, *common.ProtocolError) {
	user, perr := s.requireUser(connID)
	if perr != nil {
		return nil, perr
	}

	groupName := string(body)
	if _, exists := s.store.GetGroupLeader(groupName); !exists {
		return nil, common.Errf(common.KindNotFound, "%s not exist", groupName)
	}

	// Groups are never unregistered, so the existence check can stay
	// outside the lock; the membership check-then-add cannot.
	mu := s.groupLock(groupName)
	mu.Lock()
	defer mu.Unlock()

	members, err := s.store.GetMembers(groupName)
	if err != nil {
		return nil, common.Errf(common.KindIOFailure, "An error occurred")
	}
	if _, already := memberRole(members, user); already {
		return nil, common.Errf(common.KindConflict, "%s already in group", groupName)
	}

	if err := s.store.AddMember(groupName, user, RoleMember); err != nil {
		return nil, common.Errf(common.KindIOFailure, "An error occurred")
	}

	return s.treeResponse(user)
}

// checkPath runs the shared path validation pipeline: the path must contain
// at least two non-empty segments, none of them "." or ".." (which would let
// a path name the group root or escape the storage root after Join's
// cleaning), its leading segment must name an existing group, and the
// requester must be a member. Returns the group name and the requester's
// role.
func (s *Server) checkPath(user, path string) (string, Role, *common.ProtocolError) {
	groupName, ok := groupOfPath(path)
	if !ok {
		return "", RoleMember, common.Errf(common.KindValidation, "Invalid folder path")
	}

	if _, exists := s.store.GetGroupLeader(groupName); !exists {
		return "", RoleMember, common.Errf(common.KindNotFound, "%s not exist", groupName)
	}

	members, err := s.store.GetMembers(groupName)
	if err != nil {
		return "", RoleMember, common.Errf(common.KindIOFailure, "An error occurred")
	}
	role, isMember := memberRole(members, user)
	if !isMember {
		return "", RoleMember, common.Errf(common.KindPermissionDenied, "Access denied")
	}

	return groupName, role, nil
}

func (s *Server) handleCreateFolder(connID string, body []byte) ([]byte, *common.ProtocolError) {
	user, perr := s.requireUser(connID)
	if perr != nil {
		return nil, perr
	}

	folderPath := string(body)
	groupName, _, perr := s.checkPath(user, folderPath)
	if perr != nil {
		return nil, perr
	}

	mu := s.groupLock(groupName)
	mu.Lock()
	defer mu.Unlock()

	dir := filepath.Join(s.storageRoot, filepath.FromSlash(folderPath))
	if _, err := os.Stat(dir); err == nil {
		return nil, common.Errf(common.KindConflict, "Folder already exists")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, common.Errf(common.KindIOFailure, "Cannot create folder")
	}

	return s.treeResponse(user)
}

func (s *Server) handleUploadFile(connID string, body []byte) ([]byte, *common.ProtocolError) {
	user, perr := s.requireUser(connID)
	if perr != nil {
		return nil, perr
	}

	filePath, content, ok := common.SplitUploadBody(body)
	if !ok || !strings.Contains(filePath, common.Separator) {
		return nil, common.Errf(common.KindValidation, "Invalid folder path")
	}

	groupName, _, perr := s.checkPath(user, filePath)
	if perr != nil {
		return nil, perr
	}

	mu := s.groupLock(groupName)
	mu.Lock()
	defer mu.Unlock()

	target := filepath.Join(s.storageRoot, filepath.FromSlash(filePath))
	if _, err := os.Stat(target); err == nil {
		return nil, common.Errf(common.KindConflict, "File already exists")
	}

	if err := os.WriteFile(target, content, 0644); err != nil {
		return nil, common.Errf(common.KindIOFailure, "An error occurred while trying to write the file")
	}

	return s.treeResponse(user)
}

func (s *Server) handleDownloadFile(connID string, body []byte) ([]byte, *common.ProtocolError) {
	user, perr := s.requireUser(connID)
	if perr != nil {
		return nil, perr
	}

	filePath := string(body)
	if _, _, perr := s.checkPath(user, filePath); perr != nil {
		return nil, perr
	}

	target := filepath.Join(s.storageRoot, filepath.FromSlash(filePath))
	info, err := os.Stat(target)
	if err != nil || info.IsDir() {
		return nil, common.Errf(common.KindNotFound, "Invalid data")
	}

	content, err := os.ReadFile(target)
	if err != nil {
		return nil, common.Errf(common.KindIOFailure, "Couldn't open the file")
	}

	return common.EncodeDownloadBody(filepath.Base(target), info.Size(), content), nil
}

func (s *Server) handleDelete(connID string, body []byte) ([]byte, *common.ProtocolError) {
	user, perr := s.requireUser(connID)
	if perr != nil {
		return nil, perr
	}

	path := string(body)
	groupName, role, perr := s.checkPath(user, path)
	if perr != nil {
		return nil, perr
	}

	// Only the group leader may delete content.
	if role != RoleLeader {
		return nil, common.Errf(common.KindPermissionDenied, "Access denied")
	}

	mu := s.groupLock(groupName)
	mu.Lock()
	defer mu.Unlock()

	// A missing target is a silent success: deletes are idempotent and
	// clients depend on that.
	target := filepath.Join(s.storageRoot, filepath.FromSlash(path))
	if info, err := os.Stat(target); err == nil {
		if info.IsDir() {
			if err := os.RemoveAll(target); err != nil {
				return nil, common.Errf(common.KindIOFailure, "Cannot delete folder")
			}
		} else {
			if err := os.Remove(target); err != nil {
				return nil, common.Errf(common.KindIOFailure, "Cannot delete file")
			}
		}
	}

	return s.treeResponse(user)
}

// treeResponse projects the acting user's full membership tree. Every
// mutating success returns the whole tree rather than the touched subtree,
// so the client always holds a consistent snapshot.
func (s *Server) treeResponse(user string) ([]byte, *common.ProtocolError) {
	root, err := Project(s.storageRoot, s.store, user)
	if err != nil {
		return nil, common.Errf(common.KindIOFailure, "An error occurred")
	}

	data, err := common.MarshalTree(root)
	if err != nil {
		return nil, common.Errf(common.KindInternal, "An error occurred")
	}

	return data, nil
}
