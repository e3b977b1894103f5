package ws

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/freelance-marketplace/internal/goroutine"
	"github.com/ignatzorin/freelance-marketplace/internal/logger"
)

const broadcastBuffer = 256

// Hub держит websocket соединения, сгруппированные по пользователю.
// Всё состояние меняется только в цикле Run.
type Hub struct {
	clients    map[uuid.UUID]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan message
	done       chan struct{}
	log        *logrus.Entry
}

type message struct {
	userID  uuid.UUID
	payload []byte
}

// envelope формат сообщения для клиента: имя события и полезная нагрузка.
type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// NewHub создаёт хаб.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan message, broadcastBuffer),
		done:       make(chan struct{}),
		log:        logger.Log.WithField("component", "ws_hub"),
	}
}

// Run обслуживает хаб до отмены ctx, затем закрывает все соединения.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, clients := range h.clients {
				for c := range clients {
					c.closeConn()
				}
			}
			h.clients = map[uuid.UUID]map[*Client]struct{}{}
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case msg := <-h.broadcast:
			h.send(msg)
		}
	}
}

// Register добавляет клиента.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.closeConn()
	}
}

// Unregister удаляет клиента.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// PushToUser ставит событие в очередь для всех соединений пользователя.
// При переполненной очереди событие отбрасывается: клиент получит его при опросе.
func (h *Hub) PushToUser(userID uuid.UUID, event string, data any) {
	raw, err := json.Marshal(envelope{Type: event, Data: data})
	if err != nil {
		h.log.WithError(err).Error("marshal event")
		return
	}

	select {
	case h.broadcast <- message{userID: userID, payload: raw}:
	default:
		h.log.WithFields(logrus.Fields{"user_id": userID, "event": event}).Warn("broadcast queue full, event dropped")
	}
}

// connections число открытых соединений пользователя. Только для цикла Run и тестов.
func (h *Hub) connections(userID uuid.UUID) int {
	return len(h.clients[userID])
}

func (h *Hub) addClient(client *Client) {
	if _, ok := h.clients[client.userID]; !ok {
		h.clients[client.userID] = make(map[*Client]struct{})
	}
	h.clients[client.userID][client] = struct{}{}
}

func (h *Hub) removeClient(client *Client) {
	clients, ok := h.clients[client.userID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.clients, client.userID)
	}
}

func (h *Hub) send(msg message) {
	for client := range h.clients[msg.userID] {
		select {
		case client.send <- msg.payload:
		default:
			// Медленный клиент: отключаем, он переподключится.
			h.removeClient(client)
			goroutine.SafeGo(client.closeConn)
		}
	}
}
