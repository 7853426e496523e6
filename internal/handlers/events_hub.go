package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"nutriplan-crm/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Для разработки разрешаем все источники
	},
}

// PlanEvent — событие перехода плана, рассылаемое подключённым клиентам
// панели. Доставка fire-and-forget: хаб не участвует в транзакциях ядра.
type PlanEvent struct {
	Type       string            `json:"type"`
	PlanID     uint              `json:"planId"`
	PlanCode   string            `json:"planCode"`
	FromStatus models.PlanStatus `json:"fromStatus"`
	ToStatus   models.PlanStatus `json:"toStatus"`
	At         time.Time         `json:"at"`
}

type eventClient struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID uint
}

// Hub раздаёт события планов всем подключённым клиентам.
type Hub struct {
	clients    map[uint]*eventClient
	broadcast  chan []byte
	register   chan *eventClient
	unregister chan *eventClient
	mu         sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan []byte, 16),
		register:   make(chan *eventClient),
		unregister: make(chan *eventClient),
		clients:    make(map[uint]*eventClient),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			// Повторное подключение того же пользователя вытесняет старое:
			// канал старого клиента закрывается, иначе его writePump повиснет.
			if old, ok := h.clients[client.userID]; ok && old != client {
				close(old.send)
			}
			h.clients[client.userID] = client
			h.mu.Unlock()
			slog.Info("Events client registered", "userID", client.userID)

		case client := <-h.unregister:
			h.mu.Lock()
			// Вытесненный клиент при закрытии соединения не должен снять
			// с учёта своего преемника.
			if current, ok := h.clients[client.userID]; ok && current == client {
				delete(h.clients, client.userID)
				close(client.send)
			}
			h.mu.Unlock()
			slog.Info("Events client unregistered", "userID", client.userID)

		case messageData := <-h.broadcast:
			h.mu.Lock()
			for userID, client := range h.clients {
				select {
				case client.send <- messageData:
				default:
					close(client.send)
					delete(h.clients, userID)
				}
			}
			h.mu.Unlock()
		}
	}
}

// PlanStatusChanged реализует workflow.EventSink.
func (h *Hub) PlanStatusChanged(planID uint, planCode string, from, to models.PlanStatus) {
	event := PlanEvent{
		Type:       "plan_status_changed",
		PlanID:     planID,
		PlanCode:   planCode,
		FromStatus: from,
		ToStatus:   to,
		At:         time.Now(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("Failed to marshal plan event", "error", err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		slog.Warn("Plan event dropped: broadcast buffer full", "plan_id", planID)
	}
}

func (c *eventClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	for {
		// Клиенты панели только слушают; входящие кадры игнорируем.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("Unexpected websocket close error", "error", err)
			}
			break
		}
	}
}

func (c *eventClient) writePump() {
	defer c.conn.Close()
	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// PlanEventsHandler апгрейдит соединение и подписывает клиента на события.
func (h *Handler) PlanEventsHandler(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Error("Failed to upgrade websocket connection", "error", err)
		return
	}

	client := &eventClient{
		hub:    h.Hub,
		conn:   conn,
		send:   make(chan []byte, 16),
		userID: actorID(c),
	}
	h.Hub.register <- client

	go client.writePump()
	go client.readPump()
}
