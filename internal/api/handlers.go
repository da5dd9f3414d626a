package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"

	"github.com/gorilla/websocket"
	"github.com/npezzotti/go-office/internal/server"
)

type CreateRoomRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Password    string `json:"password"`
	// AutoDispose defaults to true for rooms created over the API.
	AutoDispose *bool `json:"autoDispose"`
}

func (s *OfficeApp) writeJson(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("json encode: %v", err)
	}
}

func (s *OfficeApp) healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *OfficeApp) listRooms(w http.ResponseWriter, _ *http.Request) {
	s.writeJson(w, http.StatusOK, s.cs.ListRooms())
}

// createRoom opens a custom room.
func (s *OfficeApp) createRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	autoDispose := true
	if req.AutoDispose != nil {
		autoDispose = *req.AutoDispose
	}

	room, err := s.cs.CreateRoom(server.RoomOptions{
		Name:        req.Name,
		Description: req.Description,
		Password:    req.Password,
		AutoDispose: autoDispose,
	})
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, server.ErrInvalidRoomOptions) {
			errResp = NewValidationError(err)
		} else {
			s.log.Println("create room:", err)
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, room.Listing())
}

// serveWs admits a client into a room. The password is checked before the
// upgrade so a rejected client never becomes a player.
func (s *OfficeApp) serveWs(w http.ResponseWriter, r *http.Request) {
	roomId := r.URL.Query().Get("roomId")
	if roomId == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	room, err := s.cs.GetRoom(roomId)
	if err != nil {
		errResp := NewNotFoundError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := room.Authenticate(r.URL.Query().Get("password")); err != nil {
		var errResp *ApiError
		switch {
		case errors.Is(err, server.ErrIncorrectPassword):
			errResp = NewForbiddenError()
		case errors.Is(err, server.ErrRoomDisposed):
			errResp = NewNotFoundError()
		default:
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	sessionId, err := server.NewSessionId()
	if err != nil {
		errResp := NewInternalServerError(err)
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

	client := server.NewClient(sessionId, conn, room, s.log)
	if err := room.Join(client); err != nil {
		s.log.Printf("join room %q: %v", roomId, err)
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "room disposed"))
		conn.Close()
		return
	}

	go client.Write()
	go client.Read()
}
