package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/arnavs06/HackNYU/internal/scan"
)

// Message is the websocket envelope in both directions
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type wsClient struct {
	conn   *websocket.Conn
	cancel context.CancelFunc
}

// messageData holds every field a client message may carry
type messageData struct {
	UserID        string `json:"user_id"`
	TagImage      string `json:"tag_image"`
	ClothingImage string `json:"clothing_image"`
	ID            string `json:"id"`
	Limit         int    `json:"limit"`
	Rotation      int    `json:"rotation"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	tokenUser := ""
	if s.verifier != nil {
		user, err := s.verifier.UserFromRequest(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		tokenUser = user
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	// ctx ends when the client goes away or the server shuts down, which
	// cancels any scan still running for this connection.
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	clientID := uuid.New().String()
	s.clients.Store(clientID, &wsClient{conn: conn, cancel: cancel})
	defer s.clients.Delete(clientID)

	logger := s.logger.With("client", clientID)
	logger.Info("client connected")

	messages := make(chan Message)
	go func() {
		defer cancel()
		defer close(messages)
		for {
			var msg Message
			if err := conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					logger.Warn("websocket read failed", "error", err)
				}
				return
			}
			select {
			case messages <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()

	for msg := range messages {
		s.handleWebSocketMessage(ctx, conn, msg, tokenUser)
	}
	logger.Info("client disconnected")
}

func (s *Server) handleWebSocketMessage(ctx context.Context, conn *websocket.Conn, msg Message, tokenUser string) {
	var data messageData
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			s.sendError(conn, "Invalid message data")
			return
		}
	}
	userID := resolveUser(tokenUser, data.UserID)

	switch msg.Type {
	case "scan":
		tag, err := decodeImage(data.TagImage)
		if err != nil {
			s.sendError(conn, "Invalid tag image")
			return
		}
		clothing, err := decodeImage(data.ClothingImage)
		if err != nil {
			s.sendError(conn, "Invalid clothing image")
			return
		}
		result, err := s.scans.Scan(ctx, scan.Request{UserID: userID, TagImage: tag, ClothingImage: clothing})
		if err != nil {
			s.sendServiceError(conn, "scan", err)
			return
		}
		s.sendMessage(conn, "scan_result", result)

	case "get_history":
		history, err := s.scans.History(ctx, userID, historyLimit(data.Limit))
		if err != nil {
			s.sendServiceError(conn, "get_history", err)
			return
		}
		s.sendMessage(conn, "history", map[string]any{"scans": history})

	case "get_scan":
		result, err := s.ownedScan(ctx, data.ID, tokenUser)
		if err != nil {
			s.sendServiceError(conn, "get_scan", err)
			return
		}
		s.sendMessage(conn, "scan", result)

	case "delete_scan":
		if _, err := s.ownedScan(ctx, data.ID, tokenUser); err != nil {
			s.sendServiceError(conn, "delete_scan", err)
			return
		}
		if err := s.scans.Delete(ctx, data.ID); err != nil {
			s.sendServiceError(conn, "delete_scan", err)
			return
		}
		s.sendMessage(conn, "scan_deleted", map[string]string{"deletedId": data.ID})

	case "get_stats":
		stats, err := s.scans.Stats(ctx, userID)
		if err != nil {
			s.sendServiceError(conn, "get_stats", err)
			return
		}
		s.sendMessage(conn, "stats", stats)

	case "get_picks":
		picks, err := s.scans.Picks(ctx, userID, data.Rotation)
		if err != nil {
			s.sendServiceError(conn, "get_picks", err)
			return
		}
		s.sendMessage(conn, "picks", picks)

	default:
		s.sendError(conn, fmt.Sprintf("Unknown message type: %s", msg.Type))
	}
}

func (s *Server) sendMessage(conn *websocket.Conn, msgType string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		s.logger.Error("failed to encode message", "type", msgType, "error", err)
		s.sendError(conn, "Internal error")
		return
	}
	if err := conn.WriteJSON(Message{Type: msgType, Data: payload}); err != nil {
		s.logger.Warn("failed to send message", "type", msgType, "error", err)
	}
}

func (s *Server) sendError(conn *websocket.Conn, message string) {
	err := conn.WriteJSON(map[string]string{
		"type":    "error",
		"message": message,
	})
	if err != nil {
		s.logger.Warn("failed to send error", "error", err)
	}
}

func (s *Server) sendServiceError(conn *websocket.Conn, op string, err error) {
	_, message := s.classify(op, err)
	s.sendError(conn, message)
}

// decodeImage accepts raw base64 or a data URL. An empty string decodes to
// no image.
func decodeImage(encoded string) ([]byte, error) {
	if encoded == "" {
		return nil, nil
	}
	if _, rest, ok := cutDataURL(encoded); ok {
		encoded = rest
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, errors.New("invalid base64 image")
	}
	return data, nil
}
