package wsserver_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"chatter-server/services/chat-api/internal/config"
	"chatter-server/services/chat-api/internal/domain/chat"
	"chatter-server/services/chat-api/internal/infrastructure/authclient"
	"chatter-server/services/chat-api/internal/interfaces/wsserver"
)

// memoryRoomRepo is an in-memory chat.RoomRepository for transport tests.
type memoryRoomRepo struct {
	mu    sync.Mutex
	rooms map[uuid.UUID]*chat.Room
}

func newMemoryRoomRepo(ids ...uuid.UUID) *memoryRoomRepo {
	repo := &memoryRoomRepo{rooms: make(map[uuid.UUID]*chat.Room)}
	for _, id := range ids {
		repo.rooms[id] = &chat.Room{ID: id, Name: "room"}
	}
	return repo
}

func (r *memoryRoomRepo) Exists(ctx context.Context, roomID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.rooms[roomID]
	return ok, nil
}

func (r *memoryRoomRepo) FindByID(ctx context.Context, roomID uuid.UUID) (*chat.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[roomID]
	if !ok {
		return nil, chat.ErrRoomNotFound
	}
	return room, nil
}

func (r *memoryRoomRepo) Create(ctx context.Context, room *chat.Room, members []chat.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rooms[room.ID] = room
	return nil
}

func (r *memoryRoomRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]*chat.Room, error) {
	return nil, nil
}

func (r *memoryRoomRepo) GetOrCreateDirect(ctx context.Context, creator, other uuid.UUID, name string) (*chat.Room, bool, error) {
	room := &chat.Room{ID: uuid.New(), Name: name, CreatedBy: creator}
	if err := r.Create(ctx, room, nil); err != nil {
		return nil, false, err
	}
	return room, true, nil
}

// memoryMessageRepo is an in-memory chat.MessageRepository.
type memoryMessageRepo struct {
	mu       sync.Mutex
	messages map[uuid.UUID]*chat.Message
	statuses map[string]chat.DeliveryStatus
}

func newMemoryMessageRepo() *memoryMessageRepo {
	return &memoryMessageRepo{
		messages: make(map[uuid.UUID]*chat.Message),
		statuses: make(map[string]chat.DeliveryStatus),
	}
}

func (r *memoryMessageRepo) Create(ctx context.Context, msg *chat.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *msg
	stored.CreatedAt = time.Now()
	r.messages[msg.ID] = &stored
	*msg = stored
	return nil
}

func (r *memoryMessageRepo) SenderOf(ctx context.Context, messageID uuid.UUID) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg, ok := r.messages[messageID]
	if !ok {
		return uuid.Nil, chat.ErrMessageNotFound
	}
	return msg.SenderID, nil
}

func (r *memoryMessageRepo) ListByRoom(ctx context.Context, roomID uuid.UUID, limit, offset int) ([]*chat.Message, error) {
	return nil, nil
}

func (r *memoryMessageRepo) UpsertStatus(ctx context.Context, messageID, userID uuid.UUID, status chat.DeliveryStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.messages[messageID]; !ok {
		return chat.ErrMessageNotFound
	}
	r.statuses[messageID.String()+"/"+userID.String()] = status
	return nil
}

type noopActivityRepo struct{}

func (noopActivityRepo) Touch(ctx context.Context, userID, roomID uuid.UUID, isTyping bool) error {
	return nil
}

// fakeAuthServer mimics the auth-api verify-token endpoint with a static
// token-to-user table.
func fakeAuthServer(t *testing.T, users map[string]chat.Identity) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/users/verify-token/", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Token string `json:"token"`
		}
		_ = json.NewDecoder(req.Body).Decode(&body)

		identity, ok := users[body.Token]
		w.Header().Set("Content-Type", "application/json")
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]any{"valid": false})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"valid": true,
			"user": map[string]any{
				"id":       identity.ID.String(),
				"username": identity.Username,
				"email":    "",
			},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type testEnv struct {
	server *httptest.Server
	rooms  *memoryRoomRepo
	msgs   *memoryMessageRepo
}

func newTestEnv(t *testing.T, users map[string]chat.Identity, roomIDs ...uuid.UUID) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	auth := fakeAuthServer(t, users)
	cfg := &config.Config{
		ServiceName:     "chat-api",
		Environment:     "test",
		AuthServiceURL:  auth.URL,
		ServiceKey:      "test-key",
		AuthTimeout:     2 * time.Second,
		WSReadLimit:     65536,
		WSWriteTimeout:  2 * time.Second,
		WSPongTimeout:   30 * time.Second,
		MessagePageSize: 50,
	}

	rooms := newMemoryRoomRepo(roomIDs...)
	msgs := newMemoryMessageRepo()
	client := authclient.New(cfg, zerolog.Nop())
	svc := chat.NewService(rooms, msgs, noopActivityRepo{}, client, zerolog.Nop())

	hub := wsserver.NewHub(zerolog.Nop())
	handler := wsserver.NewHandler(cfg, hub, svc, client, zerolog.Nop())

	engine := gin.New()
	handler.Register(engine)

	server := httptest.NewServer(engine)
	t.Cleanup(server.Close)

	return &testEnv{server: server, rooms: rooms, msgs: msgs}
}

func (e *testEnv) dial(t *testing.T, roomID uuid.UUID, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.server.URL, "http") + "/ws/chat/" + roomID.String() + "/"

	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	// Consume the connection_established frame so tests start from a clean
	// stream.
	frame := readFrame(t, conn)
	if frame["type"] != "connection_established" {
		t.Fatalf("expected connection_established, got %v", frame)
	}
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	var frame map[string]any
	if err := json.Unmarshal(data, &frame); err != nil {
		t.Fatalf("frame not JSON: %v", err)
	}
	return frame
}

func sendFrame(t *testing.T, conn *websocket.Conn, frame any) {
	t.Helper()
	if err := conn.WriteJSON(frame); err != nil {
		t.Fatalf("write frame: %v", err)
	}
}

func TestConnectEstablishedCarriesIdentity(t *testing.T) {
	roomID := uuid.New()
	alice := chat.NewIdentity(uuid.New(), "alice", "alice@example.com")
	env := newTestEnv(t, map[string]chat.Identity{"tok-alice": alice}, roomID)

	url := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/ws/chat/" + roomID.String() + "/"
	header := http.Header{"Authorization": []string{"Bearer tok-alice"}}
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	frame := readFrame(t, conn)
	if frame["type"] != "connection_established" {
		t.Fatalf("expected connection_established, got %v", frame)
	}
	userInfo, ok := frame["user_info"].(map[string]any)
	if !ok {
		t.Fatalf("missing user_info: %v", frame)
	}
	if userInfo["username"] != "alice" {
		t.Fatalf("expected alice, got %v", userInfo["username"])
	}
}

func TestUnknownRoomClosesWith4404(t *testing.T) {
	env := newTestEnv(t, nil)

	url := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/ws/chat/" + uuid.NewString() + "/"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, _, err = conn.ReadMessage()
	closeErr, ok := err.(*websocket.CloseError)
	if !ok {
		t.Fatalf("expected close error, got %v", err)
	}
	if closeErr.Code != 4404 {
		t.Fatalf("expected close code 4404, got %d", closeErr.Code)
	}
}

func TestPingPong(t *testing.T) {
	roomID := uuid.New()
	env := newTestEnv(t, nil, roomID)
	conn := env.dial(t, roomID, "")

	sendFrame(t, conn, map[string]any{"type": "ping"})
	frame := readFrame(t, conn)
	if frame["type"] != "pong" {
		t.Fatalf("expected pong, got %v", frame)
	}
}

func TestInvalidJSONKeepsConnectionOpen(t *testing.T) {
	roomID := uuid.New()
	env := newTestEnv(t, nil, roomID)
	conn := env.dial(t, roomID, "")

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	frame := readFrame(t, conn)
	if frame["type"] != "error" || frame["code"] != "INVALID_JSON" {
		t.Fatalf("expected INVALID_JSON error, got %v", frame)
	}

	// Connection must survive the malformed frame.
	sendFrame(t, conn, map[string]any{"type": "ping"})
	frame = readFrame(t, conn)
	if frame["type"] != "pong" {
		t.Fatalf("connection unusable after invalid JSON: %v", frame)
	}
}

func TestUnknownFrameTypeIgnored(t *testing.T) {
	roomID := uuid.New()
	env := newTestEnv(t, nil, roomID)
	conn := env.dial(t, roomID, "")

	sendFrame(t, conn, map[string]any{"type": "jitter"})
	sendFrame(t, conn, map[string]any{"type": "ping"})

	// The unknown frame must produce no output; the next frame is the pong.
	frame := readFrame(t, conn)
	if frame["type"] != "pong" {
		t.Fatalf("unknown frame produced output: %v", frame)
	}
}

func TestAnonymousChatMessageValidation(t *testing.T) {
	roomID := uuid.New()
	env := newTestEnv(t, nil, roomID)
	conn := env.dial(t, roomID, "")

	// Blank content is reported before the auth check.
	sendFrame(t, conn, map[string]any{"type": "chat_message", "content": "   "})
	frame := readFrame(t, conn)
	if frame["code"] != "EMPTY_CONTENT" {
		t.Fatalf("expected EMPTY_CONTENT, got %v", frame)
	}

	sendFrame(t, conn, map[string]any{"type": "chat_message", "content": "hello"})
	frame = readFrame(t, conn)
	if frame["code"] != "AUTH_REQUIRED" {
		t.Fatalf("expected AUTH_REQUIRED, got %v", frame)
	}
}

func TestChatMessageFanOutExcludesOriginator(t *testing.T) {
	roomID := uuid.New()
	alice := chat.NewIdentity(uuid.New(), "alice", "alice@example.com")
	bob := chat.NewIdentity(uuid.New(), "bob", "bob@example.com")
	env := newTestEnv(t, map[string]chat.Identity{"tok-alice": alice, "tok-bob": bob}, roomID)

	aliceConn := env.dial(t, roomID, "tok-alice")
	bobConn := env.dial(t, roomID, "tok-bob")

	sendFrame(t, aliceConn, map[string]any{"type": "chat_message", "content": "hi bob"})

	frame := readFrame(t, bobConn)
	if frame["type"] != "new_message" {
		t.Fatalf("expected new_message, got %v", frame)
	}
	msg, ok := frame["message"].(map[string]any)
	if !ok {
		t.Fatalf("missing message payload: %v", frame)
	}
	if msg["content"] != "hi bob" {
		t.Fatalf("wrong content: %v", msg["content"])
	}
	sender, _ := msg["sender"].(map[string]any)
	if sender["username"] != "alice" {
		t.Fatalf("wrong sender: %v", sender)
	}

	// The originator must not receive their own message; a ping round trip
	// proves the stream is empty.
	sendFrame(t, aliceConn, map[string]any{"type": "ping"})
	frame = readFrame(t, aliceConn)
	if frame["type"] != "pong" {
		t.Fatalf("originator received fan-out: %v", frame)
	}
}

func TestTypingBroadcast(t *testing.T) {
	roomID := uuid.New()
	alice := chat.NewIdentity(uuid.New(), "alice", "alice@example.com")
	bob := chat.NewIdentity(uuid.New(), "bob", "bob@example.com")
	env := newTestEnv(t, map[string]chat.Identity{"tok-alice": alice, "tok-bob": bob}, roomID)

	aliceConn := env.dial(t, roomID, "tok-alice")
	bobConn := env.dial(t, roomID, "tok-bob")

	sendFrame(t, aliceConn, map[string]any{"type": "typing", "is_typing": true})

	frame := readFrame(t, bobConn)
	if frame["type"] != "user_typing" {
		t.Fatalf("expected user_typing, got %v", frame)
	}
	if frame["is_typing"] != true {
		t.Fatalf("expected is_typing true, got %v", frame)
	}
	userInfo, _ := frame["user"].(map[string]any)
	if userInfo["username"] != "alice" {
		t.Fatalf("wrong typist: %v", userInfo)
	}
}

func TestMessageStatusUpdateTargetsSender(t *testing.T) {
	roomID := uuid.New()
	alice := chat.NewIdentity(uuid.New(), "alice", "alice@example.com")
	bob := chat.NewIdentity(uuid.New(), "bob", "bob@example.com")
	env := newTestEnv(t, map[string]chat.Identity{"tok-alice": alice, "tok-bob": bob}, roomID)

	aliceConn := env.dial(t, roomID, "tok-alice")
	bobConn := env.dial(t, roomID, "tok-bob")

	sendFrame(t, aliceConn, map[string]any{"type": "chat_message", "content": "read me"})
	frame := readFrame(t, bobConn)
	msg, _ := frame["message"].(map[string]any)
	messageID, _ := msg["id"].(string)
	if messageID == "" {
		t.Fatalf("no message id in fan-out: %v", frame)
	}

	sendFrame(t, bobConn, map[string]any{"type": "message_status", "message_id": messageID, "status": "seen"})

	// Alice, the original sender, receives the update.
	frame = readFrame(t, aliceConn)
	if frame["type"] != "message_status_update" {
		t.Fatalf("expected message_status_update, got %v", frame)
	}
	if frame["message_id"] != messageID || frame["status"] != "seen" {
		t.Fatalf("wrong status update: %v", frame)
	}
	userInfo, _ := frame["user"].(map[string]any)
	if userInfo["username"] != "bob" {
		t.Fatalf("update must carry the acting user, got %v", userInfo)
	}

	// Bob, not being the sender, receives nothing.
	sendFrame(t, bobConn, map[string]any{"type": "ping"})
	frame = readFrame(t, bobConn)
	if frame["type"] != "pong" {
		t.Fatalf("non-sender received status update: %v", frame)
	}
}

func TestBroadcastAfterPeerDisconnect(t *testing.T) {
	roomID := uuid.New()
	alice := chat.NewIdentity(uuid.New(), "alice", "alice@example.com")
	bob := chat.NewIdentity(uuid.New(), "bob", "bob@example.com")
	carol := chat.NewIdentity(uuid.New(), "carol", "carol@example.com")
	env := newTestEnv(t, map[string]chat.Identity{
		"tok-alice": alice,
		"tok-bob":   bob,
		"tok-carol": carol,
	}, roomID)

	aliceConn := env.dial(t, roomID, "tok-alice")
	bobConn := env.dial(t, roomID, "tok-bob")
	carolConn := env.dial(t, roomID, "tok-carol")

	// Carol leaves with a clean close handshake.
	deadline := time.Now().Add(time.Second)
	if err := carolConn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline); err != nil {
		t.Fatalf("close carol: %v", err)
	}
	_ = carolConn.SetReadDeadline(deadline)
	for {
		if _, _, err := carolConn.ReadMessage(); err != nil {
			break
		}
	}
	// Give the read pump time to deregister the session.
	time.Sleep(100 * time.Millisecond)

	sendFrame(t, aliceConn, map[string]any{"type": "chat_message", "content": "still here"})

	frame := readFrame(t, bobConn)
	if frame["type"] != "new_message" {
		t.Fatalf("survivor did not receive the broadcast: %v", frame)
	}
	msg, _ := frame["message"].(map[string]any)
	if msg["content"] != "still here" {
		t.Fatalf("wrong content: %v", msg["content"])
	}

	// The departed session must not disturb the remaining streams; a ping
	// round trip on the originator proves its stream is still clean.
	sendFrame(t, aliceConn, map[string]any{"type": "ping"})
	frame = readFrame(t, aliceConn)
	if frame["type"] != "pong" {
		t.Fatalf("originator stream broken after peer disconnect: %v", frame)
	}
}

func TestMessageStatusValidation(t *testing.T) {
	roomID := uuid.New()
	alice := chat.NewIdentity(uuid.New(), "alice", "alice@example.com")
	env := newTestEnv(t, map[string]chat.Identity{"tok-alice": alice}, roomID)
	conn := env.dial(t, roomID, "tok-alice")

	sendFrame(t, conn, map[string]any{"type": "message_status"})
	frame := readFrame(t, conn)
	if frame["code"] != "MISSING_STATUS_FIELDS" {
		t.Fatalf("expected MISSING_STATUS_FIELDS, got %v", frame)
	}

	sendFrame(t, conn, map[string]any{"type": "message_status", "message_id": uuid.NewString(), "status": "bogus"})
	frame = readFrame(t, conn)
	if frame["code"] != "INVALID_STATUS" {
		t.Fatalf("expected INVALID_STATUS, got %v", frame)
	}

	sendFrame(t, conn, map[string]any{"type": "message_status", "message_id": uuid.NewString(), "status": "seen"})
	frame = readFrame(t, conn)
	if frame["code"] != "STATUS_UPDATE_FAILED" {
		t.Fatalf("expected STATUS_UPDATE_FAILED for unknown message, got %v", frame)
	}
}
