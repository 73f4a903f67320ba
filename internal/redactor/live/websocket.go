// Рассылка изменений документов подписчикам по вебсокету.
//
// Основные возможности:
//   - Несколько активных сессий на каждый документ.
//   - Отправка событий документа в JSON всем сессиям документа.
//   - Пинг для поддержания соединений и удаление сессий, не ответивших на пинг.
package live

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gofrs/uuid"
)

const (
	pingPeriod = time.Second * 20
	timeout    = time.Minute
)

const (
	EventSaved   = "saved"
	EventDeleted = "deleted"
)

// Event - сообщение подписчикам документа.
type Event struct {
	Type       string    `json:"type"`
	DocumentID string    `json:"document_id"`
	Revision   int       `json:"revision,omitempty"`
	Data       any       `json:"data,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type Hub struct {
	sessions map[string]map[uuid.UUID]*websocket.Conn
	mutex    sync.RWMutex

	// OriginPatterns передаются в websocket.AcceptOptions. Пустой список разрешает только тот же хост.
	OriginPatterns []string
}

func NewHub(originPatterns ...string) *Hub {
	return &Hub{
		sessions:       make(map[string]map[uuid.UUID]*websocket.Conn),
		OriginPatterns: originPatterns,
	}
}

// Handle принимает соединение и держит его до закрытия клиентом.
func (h *Hub) Handle(docId string, w http.ResponseWriter, req *http.Request) {
	c, err := websocket.Accept(w, req, &websocket.AcceptOptions{
		OriginPatterns: h.OriginPatterns,
	})
	if err != nil {
		slog.Error("Open websocket connection", "docId", docId, "err", err)
		return
	}
	defer c.CloseNow()

	conId := uuid.Must(uuid.NewV4())
	h.add(docId, conId, c)

	ctx := c.CloseRead(req.Context())
	go h.pingLoop(ctx, docId, conId, c)
	<-ctx.Done()

	h.remove(docId, conId)
	c.Close(websocket.StatusNormalClosure, "")
}

func (h *Hub) add(docId string, conId uuid.UUID, c *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	cons, ok := h.sessions[docId]
	if !ok {
		cons = make(map[uuid.UUID]*websocket.Conn)
		h.sessions[docId] = cons
	}
	cons[conId] = c
}

func (h *Hub) remove(docId string, conId uuid.UUID) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	delete(h.sessions[docId], conId)
	if len(h.sessions[docId]) == 0 {
		delete(h.sessions, docId)
	}
}

// Sessions - число открытых сессий документа.
func (h *Hub) Sessions(docId string) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.sessions[docId])
}

// Send рассылает событие всем сессиям документа. Ошибки записи только логируются.
func (h *Hub) Send(event Event) {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	h.mutex.RLock()
	cons := make([]*websocket.Conn, 0, len(h.sessions[event.DocumentID]))
	for _, c := range h.sessions[event.DocumentID] {
		cons = append(cons, c)
	}
	h.mutex.RUnlock()

	for _, session := range cons {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		if err := wsjson.Write(ctx, session, event); err != nil {
			slog.Error("Write event to websocket", "docId", event.DocumentID, "err", err)
		}
		cancel()
	}
}

// CloseDocument закрывает все сессии документа.
func (h *Hub) CloseDocument(docId, reason string) {
	h.mutex.RLock()
	cons := make([]*websocket.Conn, 0, len(h.sessions[docId]))
	for _, c := range h.sessions[docId] {
		cons = append(cons, c)
	}
	h.mutex.RUnlock()

	for _, c := range cons {
		c.Close(websocket.StatusNormalClosure, reason)
	}
}

func (h *Hub) pingLoop(ctx context.Context, docId string, sessionId uuid.UUID, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		pingCtx, cancel := context.WithTimeout(ctx, timeout)
		err := conn.Ping(pingCtx)
		cancel()
		if err != nil {
			slog.Debug("Ping to websocket failed", "docId", docId, "err", err)
			h.remove(docId, sessionId)
			conn.Close(websocket.StatusNormalClosure, "Ping failed, connection closed")
			return
		}
	}
}
