package web

import (
	"encoding/binary"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/guslan/chipvm"
)

// KeysFrameSize is the size of a /keys message: the key mask as a big
// endian uint16, key 0 in the most significant bit.
const KeysFrameSize = 2

var upgrader = websocket.Upgrader{} // use default options

func (server *Server) setWs(conn *websocket.Conn) {
	server.wsMutex.Lock()
	server.socket = conn
	server.wsMutex.Unlock()
}

func (server *Server) unsetWs(conn *websocket.Conn) {
	server.wsMutex.Lock()
	if server.socket == conn {
		server.socket = nil
	}
	server.wsMutex.Unlock()
}

// Render implements Display. Frames are sent packed, one bit per pixel.
func (server *Server) Render(screen chipvm.Screen) error {
	server.wsMutex.Lock()
	defer server.wsMutex.Unlock()

	if server.socket == nil {
		return nil
	}

	return server.socket.WriteMessage(websocket.BinaryMessage, screen.Pack())
}

func (server *Server) serveDisplay(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		server.logger.Warn("Upgrade failed", slog.Any("error", err))
		return
	}
	defer conn.Close()

	server.logger.Info("Connecting to display")
	server.setWs(conn)
	defer server.unsetWs(conn)

	if err := server.Render(server.runner.Screen()); err != nil {
		server.logger.Warn("Error sending first frame", slog.Any("error", err))
		return
	}

	// The display is write only; reading just notices the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			server.logger.Info("Disconnecting from display")
			return
		}
	}
}

func (server *Server) serveKeys(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		server.logger.Warn("Upgrade failed", slog.Any("error", err))
		return
	}
	defer conn.Close()

	server.logger.Info("Connecting to keyboard")
	for {
		kind, msg, err := conn.ReadMessage()
		if err != nil {
			server.logger.Info("Disconnecting from keyboard")
			return
		}
		if kind != websocket.BinaryMessage || len(msg) != KeysFrameSize {
			server.logger.Warn("Malformed key frame", slog.Int("size", len(msg)))
			continue
		}

		server.Set(chipvm.KeyStateFromMask(binary.BigEndian.Uint16(msg)))
	}
}
