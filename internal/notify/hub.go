// gpay-mock-upi/internal/notify/hub.go

// Package notify доставляет события переводов подключённым клиентам по
// websocket. Каждый клиент подписан на свой платёжный адрес (upiId) -
// аналог комнат transaction:<upiId> в исходной системе.
package notify

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"gpay-mock-upi/internal/ledger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 25 * time.Second
)

// Message - кадр, уходящий клиенту.
type Message struct {
	Event string               `json:"event"` // transaction:<upiId>
	Data  ledger.TransferEvent `json:"data"`
}

type Client struct {
	hub   *Hub
	conn  *websocket.Conn
	send  chan []byte
	upiID string
}

// Hub хранит подключённых клиентов по платёжному адресу. У одного адреса
// может быть несколько подключений (телефон и браузер одновременно).
type Hub struct {
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	publish    chan publishReq
	mu         sync.Mutex
}

type publishReq struct {
	upiID string
	data  []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		publish:    make(chan publishReq),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.upiID] == nil {
				h.clients[client.upiID] = make(map[*Client]struct{})
			}
			h.clients[client.upiID][client] = struct{}{}
			h.mu.Unlock()
			slog.Info("Client registered", "upiId", client.upiID)

		case client := <-h.unregister:
			h.mu.Lock()
			if peers, ok := h.clients[client.upiID]; ok {
				if _, ok := peers[client]; ok {
					delete(peers, client)
					close(client.send)
					if len(peers) == 0 {
						delete(h.clients, client.upiID)
					}
				}
			}
			h.mu.Unlock()
			slog.Info("Client unregistered", "upiId", client.upiID)

		case req := <-h.publish:
			h.mu.Lock()
			for client := range h.clients[req.upiID] {
				select {
				case client.send <- req.data:
				default:
					// Медленный клиент не должен задерживать остальных.
					close(client.send)
					delete(h.clients[req.upiID], client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish реализует ledger.Notifier. Вызов не блокируется на медленных
// подписчиках и ничего не возвращает: доставка best-effort.
func (h *Hub) Publish(upiID string, event ledger.TransferEvent) {
	msg := Message{Event: "transaction:" + upiID, Data: event}
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("Failed to marshal transfer event", "error", err, "upiId", upiID)
		return
	}
	h.publish <- publishReq{upiID: upiID, data: data}
}

// Attach регистрирует новое websocket-подключение для адреса и запускает
// его читающую и пишущую горутины.
func (h *Hub) Attach(conn *websocket.Conn, upiID string) {
	client := &Client{
		hub:   h,
		conn:  conn,
		send:  make(chan []byte, 16),
		upiID: upiID,
	}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

// readPump держит соединение открытым и следит за pong-ответами.
// Входящие сообщения от клиента не обрабатываются - канал односторонний.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("Websocket read error", "error", err, "upiId", c.upiID)
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

var _ ledger.Notifier = (*Hub)(nil)
