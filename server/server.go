package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/tubewise/tubewise/internal/models"
	"github.com/tubewise/tubewise/pkg/llm"
	"github.com/tubewise/tubewise/pkg/pipeline"
	"github.com/tubewise/tubewise/pkg/upload"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Be careful with this in production
	},
}

// Message is the wire format in both directions. Inbound types are
// "ask", "video", "upload", and "summarize"; outbound types are
// "status", "stream", "response", "sources", and "error".
type Message struct {
	Type    string `json:"type"`
	Content string `json:"content"`
	Name    string `json:"name,omitempty"`  // upload filename
	Topic   string `json:"topic,omitempty"` // ask scope
	Style   string `json:"style,omitempty"` // summary style
}

type Config struct {
	Port      string
	Streaming bool
}

// WSServer exposes the pipeline over a WebSocket connection.
type WSServer struct {
	config   Config
	pipeline *pipeline.Pipeline
	uploads  *upload.Reader
}

func New(config Config, p *pipeline.Pipeline, uploads *upload.Reader) *WSServer {
	if config.Port == "" {
		config.Port = "8080"
	}
	return &WSServer{
		config:   config,
		pipeline: p,
		uploads:  uploads,
	}
}

// Run starts the server and blocks.
func Run(config Config, p *pipeline.Pipeline, uploads *upload.Reader) error {
	s := New(config, p, uploads)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.HandleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	log.Printf("Starting WebSocket server on port %s", s.config.Port)
	return http.ListenAndServe(":"+s.config.Port, mux)
}

func (s *WSServer) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			log.Printf("Error reading message: %v", err)
			break
		}

		s.handleMessage(r.Context(), conn, msg)
	}
}

func (s *WSServer) handleMessage(ctx context.Context, conn *websocket.Conn, msg Message) {
	switch msg.Type {
	case "video":
		s.handleVideo(ctx, conn, msg)
	case "upload":
		s.handleUpload(ctx, conn, msg)
	case "summarize":
		s.handleSummarize(ctx, conn, msg)
	case "ask":
		s.handleAsk(ctx, conn, msg)
	default:
		s.send(conn, "error", fmt.Sprintf("unknown message type: %s", msg.Type))
	}
}

func (s *WSServer) handleVideo(ctx context.Context, conn *websocket.Conn, msg Message) {
	s.send(conn, "status", fmt.Sprintf("Ingesting video %s", msg.Content))

	chunked, err := s.pipeline.Ingest(ctx, msg.Content)
	if err != nil {
		s.send(conn, "error", fmt.Sprintf("Failed to ingest video: %v", err))
		return
	}
	s.send(conn, "status", fmt.Sprintf("Ingested %q into %d chunks", chunked.Title, len(chunked.Chunks)))
}

func (s *WSServer) handleUpload(ctx context.Context, conn *websocket.Conn, msg Message) {
	doc, err := s.uploads.Parse(msg.Name, msg.Content)
	if err != nil {
		s.send(conn, "error", fmt.Sprintf("Failed to parse upload: %v", err))
		return
	}

	chunked, err := s.pipeline.IngestDocument(ctx, *doc)
	if err != nil {
		s.send(conn, "error", fmt.Sprintf("Failed to ingest upload: %v", err))
		return
	}
	s.send(conn, "status", fmt.Sprintf("Ingested %s into %d chunks", msg.Name, len(chunked.Chunks)))
}

func (s *WSServer) handleSummarize(ctx context.Context, conn *websocket.Conn, msg Message) {
	style := msg.Style
	if style == "" {
		style = "standard"
	}

	summary, err := s.pipeline.Summarize(ctx, msg.Content, llm.SummaryStyle(style))
	if err != nil {
		s.send(conn, "error", fmt.Sprintf("Failed to summarize: %v", err))
		return
	}
	s.send(conn, "response", summary)
}

func (s *WSServer) handleAsk(ctx context.Context, conn *websocket.Conn, msg Message) {
	if s.config.Streaming {
		stream, chunks, err := s.pipeline.AskStream(ctx, msg.Content, msg.Topic)
		if err != nil {
			s.send(conn, "error", fmt.Sprintf("Error: %v", err))
			return
		}

		for chunk := range stream {
			if strings.HasPrefix(chunk, "Error:") {
				s.send(conn, "error", chunk)
				return
			}
			s.send(conn, "stream", chunk)
		}
		s.sendSources(conn, chunks)
		return
	}

	answer, err := s.pipeline.Ask(ctx, msg.Content, msg.Topic)
	if err != nil {
		s.send(conn, "error", fmt.Sprintf("Error: %v", err))
		return
	}

	s.send(conn, "response", answer.Text)
	if len(answer.Sources) > 0 {
		s.send(conn, "sources", strings.Join(answer.Sources, "\n"))
	}
}

func (s *WSServer) send(conn *websocket.Conn, msgType, content string) {
	msg := Message{
		Type:    msgType,
		Content: content,
	}
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}

func (s *WSServer) sendSources(conn *websocket.Conn, chunks []models.Chunk) {
	if sources := llm.Sources(chunks); len(sources) > 0 {
		s.send(conn, "sources", strings.Join(sources, "\n"))
	}
}
