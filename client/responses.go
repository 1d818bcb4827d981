package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/nguyenvanduc62915/network/common"
)

// pendingUser remembers the username of an in-flight SignIn so a success
// response can bind it to State.
var pendingUser string

// downloadDir is where DownloadFile responses are written.
var downloadDir = "downloads"

// processResponse interprets one server response frame against the client
// state. Mirrors the dispatcher on the receiving side: one switch over the
// response opcode.
func processResponse(payload []byte) error {
	opcode, body, ok := common.ParseHeader(payload)
	if !ok {
		return fmt.Errorf("unparsable response header")
	}

	switch common.Response(opcode) {
	case common.ResponseSignInSuccess:
		State.CurrentUser = pendingUser
		State.Tree = nil
		State.Current = nil
		fmt.Println(string(body))

	case common.ResponseSignUpSuccess:
		fmt.Println(string(body))

	case common.ResponseSignOutSuccess:
		State.Reset()
		fmt.Println(string(body))

	case common.ResponseGetSuccess,
		common.ResponseCreateGroupSuccess,
		common.ResponseJoinGroupSuccess,
		common.ResponseCreateFolderSuccess,
		common.ResponseUploadFileSuccess,
		common.ResponseDeleteSuccess:
		root, err := common.UnmarshalTree(body)
		if err != nil {
			return fmt.Errorf("bad tree payload: %v", err)
		}
		State.SetTree(root)

	case common.ResponseDownloadFileSuccess:
		name, size, content, ok := common.SplitDownloadBody(body)
		if !ok {
			return fmt.Errorf("bad download payload")
		}
		if err := os.MkdirAll(downloadDir, 0755); err != nil {
			return err
		}
		target := filepath.Join(downloadDir, name)
		if err := os.WriteFile(target, content, 0644); err != nil {
			return err
		}
		fmt.Printf("Downloaded %s (%d bytes) to %s\n", name, size, target)

	case common.ResponseSignInError,
		common.ResponseSignUpError,
		common.ResponseSignOutError,
		common.ResponseGetError,
		common.ResponseCreateGroupError,
		common.ResponseJoinGroupError,
		common.ResponseCreateFolderError,
		common.ResponseUploadFileError,
		common.ResponseDownloadFileError,
		common.ResponseDeleteError:
		fmt.Printf("Error: %s\n", string(body))

	default:
		fmt.Printf("Unexpected response %d (%d bytes)\n", opcode, len(body))
	}

	return nil
}
