package common

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Request opcodes. The numbering is part of the wire format.
type Request int

const (
	RequestNone Request = iota
	RequestSignIn
	RequestSignUp
	RequestSignOut
	RequestGet
	RequestCreateGroup
	RequestJoinGroup
	RequestCreateFolder
	RequestUploadFile
	RequestDownloadFile
	RequestDelete
)

// Response opcodes. Every request has a Success/Error pair.
type Response int

const (
	ResponseNone Response = iota
	ResponseSignInSuccess
	ResponseSignInError
	ResponseSignUpSuccess
	ResponseSignUpError
	ResponseSignOutSuccess
	ResponseSignOutError
	ResponseGetSuccess
	ResponseGetError
	ResponseCreateGroupSuccess
	ResponseCreateGroupError
	ResponseJoinGroupSuccess
	ResponseJoinGroupError
	ResponseCreateFolderSuccess
	ResponseCreateFolderError
	ResponseUploadFileSuccess
	ResponseUploadFileError
	ResponseDownloadFileSuccess
	ResponseDownloadFileError
	ResponseDeleteSuccess
	ResponseDeleteError
	ResponseSuccess
	ResponseError
)

const (
	// HeaderSize is the fixed width of the opcode header: the decimal ASCII
	// text of the opcode, zero-filled to 8 bytes on encode. Decoders parse
	// the leading digits and ignore whatever padding follows.
	HeaderSize = 8

	// UploadPathSize is the fixed-width destination path field that follows
	// the opcode header of an UploadFile request.
	UploadPathSize = 256

	// DownloadInfoSize is the fixed-width "<filename>,<size>" field that
	// follows the opcode header of a DownloadFile success response.
	DownloadInfoSize = 128

	// Separator is the canonical path separator on the wire, on every
	// platform.
	Separator = "/"
)

var requestNames = map[Request]string{
	RequestNone:         "None",
	RequestSignIn:       "SignIn",
	RequestSignUp:       "SignUp",
	RequestSignOut:      "SignOut",
	RequestGet:          "Get",
	RequestCreateGroup:  "CreateGroup",
	RequestJoinGroup:    "JoinGroup",
	RequestCreateFolder: "CreateFolder",
	RequestUploadFile:   "UploadFile",
	RequestDownloadFile: "DownloadFile",
	RequestDelete:       "Delete",
}

func (r Request) String() string {
	if name, ok := requestNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Request(%d)", int(r))
}

// SuccessOf returns the success response opcode paired with req.
func SuccessOf(req Request) Response {
	return Response(2*int(req) - 1)
}

// ErrorOf returns the error response opcode paired with req.
func ErrorOf(req Request) Response {
	return Response(2 * int(req))
}

// EncodeHeader renders an opcode as the fixed-width header field.
func EncodeHeader(opcode int) []byte {
	header := make([]byte, HeaderSize)
	copy(header, fmt.Sprintf("%d", opcode))
	return header
}

// ParseHeader splits a payload into its opcode and body. The opcode is the
// leading run of decimal digits within the first 8 bytes; trailing padding
// bytes are ignored for wire compatibility with older encoders that left
// them unspecified.
func ParseHeader(payload []byte) (int, []byte, bool) {
	if len(payload) < HeaderSize {
		return 0, nil, false
	}

	field := payload[:HeaderSize]
	end := 0
	for end < len(field) && field[end] >= '0' && field[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, nil, false
	}

	opcode := 0
	for _, c := range field[:end] {
		opcode = opcode*10 + int(c-'0')
	}

	return opcode, payload[HeaderSize:], true
}

// BuildRequest assembles a request payload: opcode header plus body.
func BuildRequest(req Request, body []byte) []byte {
	return append(EncodeHeader(int(req)), body...)
}

// BuildResponse assembles a response payload: opcode header plus body.
func BuildResponse(resp Response, body []byte) []byte {
	return append(EncodeHeader(int(resp)), body...)
}

// EncodeCredentials joins a username and password into the "<user>;<pass>"
// payload used by SignIn and SignUp. The delimiter makes ';' illegal inside
// either field; that is an accepted limitation of the format.
func EncodeCredentials(username, password string) []byte {
	return []byte(username + ";" + password)
}

// SplitCredentials parses a "<user>;<pass>" payload. Both parts must be
// non-empty.
func SplitCredentials(body []byte) (string, string, bool) {
	parts := strings.SplitN(string(body), ";", 2)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// PadField zero-fills s into a fixed-width field. Content longer than the
// field is truncated.
func PadField(s string, width int) []byte {
	field := make([]byte, width)
	copy(field, s)
	return field
}

// TrimField recovers the text of a fixed-width field, dropping trailing
// padding (NUL or space, either of which older encoders emitted).
func TrimField(field []byte) string {
	return string(bytes.TrimRight(field, "\x00 "))
}

// EncodeUploadBody prepends the fixed-width destination path field to the
// raw file content of an UploadFile request.
func EncodeUploadBody(path string, content []byte) []byte {
	return append(PadField(path, UploadPathSize), content...)
}

// SplitUploadBody strips the fixed-width path field from an UploadFile
// request body.
func SplitUploadBody(body []byte) (string, []byte, bool) {
	if len(body) < UploadPathSize {
		return "", nil, false
	}
	return TrimField(body[:UploadPathSize]), body[UploadPathSize:], true
}

// EncodeDownloadBody prepends the fixed-width "<filename>,<size>" field to
// the raw file content of a DownloadFile success response.
func EncodeDownloadBody(filename string, size int64, content []byte) []byte {
	info := fmt.Sprintf("%s,%d", filename, size)
	return append(PadField(info, DownloadInfoSize), content...)
}

// SplitDownloadBody strips the fixed-width info field from a DownloadFile
// success body and parses it into filename and declared size.
func SplitDownloadBody(body []byte) (string, int64, []byte, bool) {
	if len(body) < DownloadInfoSize {
		return "", 0, nil, false
	}

	info := TrimField(body[:DownloadInfoSize])
	idx := strings.LastIndex(info, ",")
	if idx < 0 {
		return "", 0, nil, false
	}

	var size int64
	if _, err := fmt.Sscanf(info[idx+1:], "%d", &size); err != nil {
		return "", 0, nil, false
	}

	return info[:idx], size, body[DownloadInfoSize:], true
}

var groupNamePattern = regexp.MustCompile(`^[A-Za-z0-9_\- ]+$`)

// ValidGroupName reports whether name satisfies the group naming rule.
func ValidGroupName(name string) bool {
	err := validation.Validate(name,
		validation.Required,
		validation.Match(groupNamePattern),
	)
	return err == nil
}
