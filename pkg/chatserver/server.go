package chatserver

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	httpmetrics "github.com/slok/go-http-metrics/metrics/prometheus"
	httpmiddleware "github.com/slok/go-http-metrics/middleware"
	httpmiddlewarestd "github.com/slok/go-http-metrics/middleware/std"
	log "github.com/sirupsen/logrus"

	chatv1 "github.com/paglaai/paglachat/pkg/apis/chat/v1"
	"github.com/paglaai/paglachat/pkg/chat"
)

var turnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "paglachat_turns_total",
	Help: "Chat turns processed, by actor mode and result",
}, []string{"mode", "result"})

// TurnSender executes one chat turn. Satisfied by chat.Orchestrator.
type TurnSender interface {
	SendTurn(ctx context.Context, req chat.TurnRequest) (*chat.TurnResult, error)
}

type Server struct {
	listenAddr    string
	turns         TurnSender
	store         chat.ConversationStore
	conversations *ConversationCache
	httpServer    *http.Server
}

func NewServer(listenAddr string, turns TurnSender, store chat.ConversationStore, conversations *ConversationCache) *Server {
	return &Server{
		listenAddr:    listenAddr,
		turns:         turns,
		store:         store,
		conversations: conversations,
	}
}

// SendChatRequest is the single submission surface consumed by the
// presentation layer. GuestHistory is only read when IsGuest is set.
type SendChatRequest struct {
	Prompt       string           `json:"prompt"`
	ChatID       string           `json:"chatId,omitempty"`
	UserID       string           `json:"userId"`
	IsGuest      bool             `json:"isGuest"`
	GuestHistory []chatv1.Message `json:"guestHistory,omitempty"`
}

type SendChatResponse struct {
	AIMessage *chatv1.Message `json:"aiMessage,omitempty"`
	NewChatID string          `json:"newChatId,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// jsonSendChat handles POST /api/chat/send.
func (s *Server) jsonSendChat(w http.ResponseWriter, req *http.Request) {
	var request SendChatRequest
	if err := json.NewDecoder(req.Body).Decode(&request); err != nil {
		log.WithError(err).Error("error parsing send chat request")
		failureResponse(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}

	mode := "registered"
	if request.IsGuest {
		mode = "guest"
	}

	result, err := s.turns.SendTurn(req.Context(), chat.TurnRequest{
		Prompt:         request.Prompt,
		ConversationID: request.ChatID,
		UserID:         request.UserID,
		Guest:          request.IsGuest,
		GuestHistory:   request.GuestHistory,
	})
	if err != nil {
		turnsTotal.WithLabelValues(mode, "error").Inc()
		failureResponse(w, turnStatusCode(err), err.Error())
		return
	}

	turnsTotal.WithLabelValues(mode, "success").Inc()

	response := SendChatResponse{AIMessage: &result.AIMessage}
	if result.NewConversation {
		response.NewChatID = result.ConversationID
	}

	respondWithJSON(http.StatusOK, w, response)
}

// jsonListConversations handles GET /api/chat/conversations?user=. Responses
// are cached per user; turn processing invalidates the entry when the list
// changes.
func (s *Server) jsonListConversations(w http.ResponseWriter, req *http.Request) {
	user := req.URL.Query().Get("user")
	if user == "" {
		failureResponse(w, http.StatusBadRequest, "user is required")
		return
	}

	if cached, ok := s.conversations.Get(user); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(cached); err != nil {
			log.WithError(err).Error("could not write cached conversation list")
		}
		return
	}

	conversations, err := s.store.ListConversations(req.Context(), user)
	if err != nil {
		log.WithError(err).Error("error listing conversations")
		failureResponse(w, http.StatusInternalServerError, "Failed to list conversations")
		return
	}

	s.conversations.Put(user, conversations)
	respondWithJSON(http.StatusOK, w, conversations)
}

// jsonListMessages handles GET /api/chat/messages?user=&chatId=.
func (s *Server) jsonListMessages(w http.ResponseWriter, req *http.Request) {
	user := req.URL.Query().Get("user")
	chatID := req.URL.Query().Get("chatId")
	if user == "" || chatID == "" {
		failureResponse(w, http.StatusBadRequest, "user and chatId are required")
		return
	}

	messages, err := s.store.ListMessages(req.Context(), user, chatID)
	if err != nil {
		log.WithError(err).Error("error listing messages")
		failureResponse(w, http.StatusInternalServerError, "Failed to list messages")
		return
	}

	respondWithJSON(http.StatusOK, w, messages)
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	respondWithJSON(http.StatusOK, w, map[string]string{"status": "ok"})
}

func (s *Server) Serve() {
	router := mux.NewRouter()
	router.HandleFunc("/healthz", s.healthz).Methods(http.MethodGet)
	router.HandleFunc("/api/chat/send", s.jsonSendChat).Methods(http.MethodPost)
	router.HandleFunc("/api/chat/conversations", s.jsonListConversations).Methods(http.MethodGet)
	router.HandleFunc("/api/chat/messages", s.jsonListMessages).Methods(http.MethodGet)

	mdlw := httpmiddleware.New(httpmiddleware.Config{
		Recorder: httpmetrics.NewRecorder(httpmetrics.Config{}),
	})

	s.httpServer = &http.Server{
		Addr:    s.listenAddr,
		Handler: httpmiddlewarestd.Handler("", mdlw, router),
	}

	log.Infof("Serving chat API on %s", s.listenAddr)

	if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
		log.WithError(err).Fatal("server exited")
	}
}

func (s *Server) GetHTTPServer() *http.Server {
	return s.httpServer
}

// turnStatusCode maps the orchestrator's error taxonomy onto HTTP statuses.
func turnStatusCode(err error) int {
	switch err {
	case chat.ErrEmptyPrompt:
		return http.StatusBadRequest
	case chat.ErrAuthRequired:
		return http.StatusUnauthorized
	case chat.ErrQuotaExceeded:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func respondWithJSON(statusCode int, w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.WithError(err).Error("could not write json response")
	}
}

func failureResponse(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(statusCode, w, map[string]string{"error": message})
}
