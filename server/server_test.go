package main

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyenvanduc62915/network/common"
)

func startTestListener(t *testing.T) (*Server, string) {
	t.Helper()
	srv := NewServer(t.TempDir(), NewMemoryStore())
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })
	go srv.Serve(ln)
	return srv, ln.Addr().String()
}

func roundTrip(t *testing.T, conn net.Conn, frame []byte) (common.Response, []byte) {
	t.Helper()
	require.NoError(t, common.WriteFrame(conn, frame))
	resp, err := common.ReadFrame(conn)
	require.NoError(t, err)
	opcode, body, ok := common.ParseHeader(resp)
	require.True(t, ok)
	return common.Response(opcode), body
}

// TestServe_EndToEnd drives a real connection through sign-up, sign-in,
// group creation and a tree fetch.
func TestServe_EndToEnd(t *testing.T) {
	_, addr := startTestListener(t)

	conn, err := net.DialTimeout("tcp", addr, time.Second)
	require.NoError(t, err)
	defer conn.Close()

	code, body := roundTrip(t, conn,
		common.BuildRequest(common.RequestSignUp, common.EncodeCredentials("alice", "pw1")))
	require.Equal(t, common.ResponseSignUpSuccess, code)
	assert.Equal(t, "SignUp success", string(body))

	code, _ = roundTrip(t, conn,
		common.BuildRequest(common.RequestSignIn, common.EncodeCredentials("alice", "pw1")))
	require.Equal(t, common.ResponseSignInSuccess, code)

	code, body = roundTrip(t, conn,
		common.BuildRequest(common.RequestCreateGroup, []byte("team1")))
	require.Equal(t, common.ResponseCreateGroupSuccess, code)
	root, err := common.UnmarshalTree(body)
	require.NoError(t, err)
	require.Len(t, root.Children, 1)
	assert.Equal(t, "team1", root.Children[0].Name)
}

// TestServe_FrameSplitAcrossWrites verifies that a request delivered in
// tiny pieces still decodes into exactly one dispatch.
func TestServe_FrameSplitAcrossWrites(t *testing.T) {
	_, addr := startTestListener(t)

	conn, err := net.DialTimeout("tcp", addr, time.Second)
	require.NoError(t, err)
	defer conn.Close()

	frame := common.BuildRequest(common.RequestSignUp, common.EncodeCredentials("alice", "pw1"))
	wire := make([]byte, 0, 4+len(frame))
	wire = append(wire, byte(len(frame)>>24), byte(len(frame)>>16), byte(len(frame)>>8), byte(len(frame)))
	wire = append(wire, frame...)

	for _, b := range wire {
		_, err := conn.Write([]byte{b})
		require.NoError(t, err)
	}

	resp, err := common.ReadFrame(conn)
	require.NoError(t, err)
	opcode, body, ok := common.ParseHeader(resp)
	require.True(t, ok)
	assert.Equal(t, common.ResponseSignUpSuccess, common.Response(opcode))
	assert.Equal(t, "SignUp success", string(body))
}

// TestServe_DisconnectFreesUsername: dropping the connection releases the
// session so the username can sign in again immediately.
func TestServe_DisconnectFreesUsername(t *testing.T) {
	_, addr := startTestListener(t)

	first, err := net.DialTimeout("tcp", addr, time.Second)
	require.NoError(t, err)

	code, _ := roundTrip(t, first,
		common.BuildRequest(common.RequestSignUp, common.EncodeCredentials("alice", "pw1")))
	require.Equal(t, common.ResponseSignUpSuccess, code)
	code, _ = roundTrip(t, first,
		common.BuildRequest(common.RequestSignIn, common.EncodeCredentials("alice", "pw1")))
	require.Equal(t, common.ResponseSignInSuccess, code)

	first.Close()

	second, err := net.DialTimeout("tcp", addr, time.Second)
	require.NoError(t, err)
	defer second.Close()

	// The server tears the old session down asynchronously; retry briefly.
	deadline := time.Now().Add(2 * time.Second)
	for {
		code, body := roundTrip(t, second,
			common.BuildRequest(common.RequestSignIn, common.EncodeCredentials("alice", "pw1")))
		if code == common.ResponseSignInSuccess {
			break
		}
		require.Equal(t, "alice already signed in", string(body))
		if time.Now().After(deadline) {
			t.Fatal("username was never released after disconnect")
		}
		time.Sleep(20 * time.Millisecond)
	}
}
