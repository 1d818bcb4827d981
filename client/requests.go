package main

import (
	"os"
	"path/filepath"

	"github.com/nguyenvanduc62915/network/common"
)

// Request builders. Each returns a complete payload ready for framing:
// the 8-byte opcode header followed by the opcode-specific body.

func buildSignIn(username, password string) []byte {
	return common.BuildRequest(common.RequestSignIn, common.EncodeCredentials(username, password))
}

func buildSignUp(username, password string) []byte {
	return common.BuildRequest(common.RequestSignUp, common.EncodeCredentials(username, password))
}

func buildSignOut() []byte {
	return common.BuildRequest(common.RequestSignOut, nil)
}

func buildGet() []byte {
	return common.BuildRequest(common.RequestGet, nil)
}

func buildCreateGroup(name string) []byte {
	return common.BuildRequest(common.RequestCreateGroup, []byte(name))
}

func buildJoinGroup(name string) []byte {
	return common.BuildRequest(common.RequestJoinGroup, []byte(name))
}

func buildCreateFolder(path string) []byte {
	return common.BuildRequest(common.RequestCreateFolder, []byte(path))
}

// buildUploadFile reads a local file and targets destDir (a tree path
// inside a group) with the file's base name.
func buildUploadFile(destDir, localPath string) ([]byte, error) {
	content, err := os.ReadFile(localPath)
	if err != nil {
		return nil, err
	}

	dest := destDir + common.Separator + filepath.Base(localPath)
	return common.BuildRequest(common.RequestUploadFile, common.EncodeUploadBody(dest, content)), nil
}

func buildDownloadFile(path string) []byte {
	return common.BuildRequest(common.RequestDownloadFile, []byte(path))
}

func buildDelete(path string) []byte {
	return common.BuildRequest(common.RequestDelete, []byte(path))
}
