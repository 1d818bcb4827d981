package main

import (
	"log"
	"net"

	"github.com/google/uuid"

	"github.com/nguyenvanduc62915/network/common"
)

// Serve accepts connections until the listener is closed. One goroutine per
// connection; the session table and store carry their own locking.
func (s *Server) Serve(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			// Listener was closed, exit gracefully
			return
		}
		go s.handleConn(conn)
	}
}

// handleConn owns one client connection for its whole life: register a
// session, feed inbound bytes through this connection's decoder, dispatch
// each complete frame, and tear the session down on disconnect. A partial
// frame just waits for the next read; it never blocks other connections.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	connID := uuid.NewString()[:8]
	s.sessions.Add(connID)
	defer s.sessions.Drop(connID)

	log.Printf("Client(%s) has just connected from %s", connID, conn.RemoteAddr())

	var dec common.Decoder
	buf := make([]byte, 64*1024)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			log.Printf("Client(%s) has just disconnected", connID)
			return
		}
		dec.Feed(buf[:n])

		for {
			frame, ok := dec.Next()
			if !ok {
				if dec.Buffered() > 0 {
					log.Printf("%s> waiting for more data to come..", connID)
				}
				break
			}

			resp := s.dispatch(connID, frame)
			if resp == nil {
				continue
			}
			if err := common.WriteFrame(conn, resp); err != nil {
				log.Printf("%s> write failed: %v", connID, err)
				return
			}
		}
	}
}
