package main

import (
	"net"
	"time"

	"github.com/nguyenvanduc62915/network/common"
)

// ServerConn is the persistent connection to the server. The protocol is
// strictly request/response on one connection, so every exchange is a
// frame out followed by exactly one frame back.
type ServerConn struct {
	conn net.Conn
}

// Connect dials the server with a short timeout.
func Connect(addr string) (*ServerConn, error) {
	conn, err := net.DialTimeout("tcp", addr, 3*time.Second)
	if err != nil {
		return nil, err
	}
	return &ServerConn{conn: conn}, nil
}

// RoundTrip sends one request frame and blocks for the single response the
// server produces for it.
func (c *ServerConn) RoundTrip(frame []byte) ([]byte, error) {
	if err := common.WriteFrame(c.conn, frame); err != nil {
		return nil, err
	}
	return common.ReadFrame(c.conn)
}

func (c *ServerConn) Close() error {
	return c.conn.Close()
}
