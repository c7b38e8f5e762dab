package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"boneyard.bar/internal/protocol"
	"boneyard.bar/internal/sim/bar"
)

type Server struct {
	bar *bar.Bar
	log *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(b *bar.Bar, logger *log.Logger) *Server {
	return &Server{
		bar: b,
		log: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sessionID, out := s.handshake(conn)
		if sessionID == "" {
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine. State frames and acks share the out channel so
		// a single writer owns the connection.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil {
				continue
			}
			if base.Type != protocol.TypeCmd {
				continue
			}
			var cmd protocol.CmdMsg
			if err := json.Unmarshal(msg, &cmd); err != nil {
				continue
			}
			if cmd.ProtocolVersion != protocol.Version {
				continue
			}

			resp := make(chan protocol.AckMsg, 1)
			s.bar.Submit(bar.CmdEnvelope{SessionID: sessionID, Cmd: cmd, Resp: resp})

			// Commands apply at the next tick boundary; the ack follows the
			// state frame order through the shared out channel.
			select {
			case ack := <-resp:
				b, err := json.Marshal(ack)
				if err != nil {
					continue
				}
				select {
				case out <- b:
				case <-ctx.Done():
				}
			case <-time.After(2 * time.Second):
				s.log.Printf("ack timeout session=%s cmd=%s", sessionID, cmd.Cmd)
			case <-ctx.Done():
			}
		}

		// Cleanup.
		s.bar.Leave(sessionID)
	}
}

func (s *Server) handshake(conn *websocket.Conn) (sessionID string, out chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return "", nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", nil
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return "", nil
	}
	if hello.ClientName == "" {
		hello.ClientName = "client"
	}

	sessionID = uuid.NewString()
	out = make(chan []byte, 16)

	resp := s.bar.Join(bar.JoinRequest{
		SessionID:    sessionID,
		ClientName:   hello.ClientName,
		WantCatalogs: hello.WantCatalogs,
		Out:          out,
	})

	// Send welcome + catalogs immediately.
	if err := writeJSON(conn, resp.Welcome); err != nil {
		s.bar.Leave(sessionID)
		return "", nil
	}
	for _, c := range resp.Catalogs {
		if err := writeJSON(conn, c); err != nil {
			s.bar.Leave(sessionID)
			return "", nil
		}
	}

	return sessionID, out
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
