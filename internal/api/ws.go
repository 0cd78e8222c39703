package api

import (
	"errors"
	"net/http"
	"slices"

	"github.com/gorilla/websocket"
	"github.com/nlopez/go-prodportal/internal/auth"
	"github.com/nlopez/go-prodportal/internal/chat"
)

// wsToken extracts the handshake credential. Browsers cannot set headers
// on websocket requests, so the token travels in the query string; the
// Authorization header is accepted for non-browser clients.
func wsToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}

	return bearerToken(r)
}

// serveWs is the realtime handshake. The credential is verified before
// the connection is upgraded, so a refused client sees an HTTP error with
// the specific reason and no session is ever created for it.
func (s *PortalApp) serveWs(w http.ResponseWriter, r *http.Request) {
	principal, err := s.auth.Verify(wsToken(r))
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, auth.ErrMissingCredential) {
			errResp = NewUnauthorizedError()
		} else {
			s.log.Printf("ws handshake refused: %v", err)
			errResp = NewForbiddenErrorWithMessage(err.Error())
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}

			return slices.Contains(s.allowedOrigins, origin)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Println("error upgrading connection:", err)
		return
	}

	client := chat.NewClient(conn, s.cs, s.log)
	sess, err := s.cs.Connect(client, principal)
	if err != nil {
		s.log.Println("join failed:", err)
		conn.Close()
		return
	}

	s.log.Printf("user %q connected with session %q", principal.Username, sess.Id)
	go client.Write()
	go client.Read()
}
