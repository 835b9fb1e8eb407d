package controllers

import (
	"context"
	"net/http"
	"time"

	"sysmon/internal/middleware"
	"sysmon/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const clickTimeout = 10 * time.Second

// WebSocketController streams panel updates and accepts clicks
type WebSocketController struct {
	hub         *services.WebSocketHub
	panels      *PanelController
	authEnabled bool
	clicks      *middleware.RateLimiter
	upgrader    websocket.Upgrader
}

// NewWebSocketController creates the controller. clicks is shared with the
// HTTP click route so both paths draw from the same per-IP budget.
func NewWebSocketController(hub *services.WebSocketHub, panels *PanelController, authEnabled bool,
	allowedOrigins []string, clicks *middleware.RateLimiter) *WebSocketController {
	return &WebSocketController{
		hub:         hub,
		panels:      panels,
		authEnabled: authEnabled,
		clicks:      clicks,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     middleware.WebSocketOriginChecker(allowedOrigins),
		},
	}
}

// HandleWebSocket handles incoming WebSocket connections
func (wc *WebSocketController) HandleWebSocket(c *gin.Context) {
	log := logrus.WithField("component", "ws")
	serverName := "anonymous"

	if wc.authEnabled {
		claims, err := middleware.Authenticate(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": middleware.AuthError(err)})
			return
		}
		serverName = claims.ServerName
	}

	ws, err := wc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Errorf("Upgrade error: %v", err)
		return
	}
	middleware.GlobalSecurityLogger.LogWebSocketConnected(c.ClientIP(), serverName)

	client := services.NewClientConnection(c.ClientIP()+"-"+uuid.NewString(), ws)
	wc.hub.Register(client)

	go wc.readPump(client, c.ClientIP())
	go writePump(client)
}

// readPump reads messages from the WebSocket client
func (wc *WebSocketController) readPump(client *services.ClientConnection, ip string) {
	log := logrus.WithField("component", "ws").WithField("client", client.ID)

	defer func() {
		wc.hub.Unregister(client.ID)
		client.Shutdown()
		client.Conn.Close()
		middleware.GlobalSecurityLogger.LogWebSocketDisconnected(ip, client.ID)
	}()

	for {
		var msg services.WebSocketMessage
		if err := client.Conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warnf("WebSocket error: %v", err)
			}
			return
		}

		switch msg.Type {
		case "ping":
			client.Deliver(services.WebSocketMessage{Type: "pong", Timestamp: time.Now()})

		case "click":
			if !wc.clicks.GetLimiter(ip).Allow() {
				log.Warnf("Click rate limit exceeded for IP: %s", ip)
				client.Deliver(services.WebSocketMessage{Type: "error", Timestamp: time.Now(), Error: "rate limit exceeded"})
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), clickTimeout)
			// the hub pushes the re-rendered panels once the click has run
			_, err := wc.panels.Click(ctx, msg.Page, msg.Button)
			cancel()
			if err != nil {
				client.Deliver(services.WebSocketMessage{Type: "error", Timestamp: time.Now(), Error: err.Error()})
			}

		case "unsubscribe":
			return

		default:
			log.Debugf("Unknown message type: %s", msg.Type)
		}
	}
}

// writePump writes messages to the WebSocket client
func writePump(client *services.ClientConnection) {
	log := logrus.WithField("component", "ws").WithField("client", client.ID)
	defer client.Conn.Close()

	for {
		select {
		case msg := <-client.Send:
			if err := client.Conn.WriteJSON(msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Warnf("Write error: %v", err)
				}
				return
			}

		case <-client.Close:
			_ = client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
