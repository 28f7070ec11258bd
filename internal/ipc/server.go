package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/austinkregel/constantq-go/internal/config"
	"github.com/austinkregel/constantq-go/internal/orchestrate"
	"github.com/austinkregel/constantq-go/internal/wire"
)

// Server is the daemon's control plane: a Unix-domain socket speaking
// newline-delimited JSON requests/responses, with status/data push
// messages streamed back to whichever connection submitted the analyze
// request. This is the concrete shape spec.md leaves to "external
// collaborators" for its status_sink/data_sink contracts.
type Server struct {
	socketPath string
	configMgr  *config.Manager

	listener net.Listener
	mu       sync.Mutex
	clients  map[net.Conn]struct{}

	runCounter atomic.Uint64
}

// NewServer creates a new IPC server.
func NewServer(socketPath string, configMgr *config.Manager) *Server {
	return &Server{
		socketPath: socketPath,
		configMgr:  configMgr,
		clients:    make(map[net.Conn]struct{}),
	}
}

// Start listens on the configured Unix socket and serves until ctx is
// cancelled.
func (s *Server) Start(ctx context.Context) error {
	if err := os.RemoveAll(s.socketPath); err != nil {
		return fmt.Errorf("failed to remove existing socket: %w", err)
	}

	log.Printf("[IPC] Creating socket at %s", s.socketPath)

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen on socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	log.Printf("[IPC] Server listening, waiting for connections...")
	go s.acceptLoop(ctx)

	<-ctx.Done()

	log.Printf("[IPC] Shutting down server...")
	s.mu.Lock()
	clientCount := len(s.clients)
	for conn := range s.clients {
		conn.Close()
	}
	s.mu.Unlock()
	log.Printf("[IPC] Closed %d client connections", clientCount)

	listener.Close()
	os.RemoveAll(s.socketPath)
	log.Printf("[IPC] Server stopped")
	return nil
}

func (s *Server) acceptLoop(ctx context.Context) {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				log.Printf("[IPC] Accept error: %v", err)
				continue
			}
		}

		s.mu.Lock()
		s.clients[conn] = struct{}{}
		clientCount := len(s.clients)
		s.mu.Unlock()
		log.Printf("[IPC] New client connection, active clients: %d", clientCount)

		go s.handleConnection(ctx, conn)
	}
}

func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer func() {
		conn.Close()
		s.mu.Lock()
		delete(s.clients, conn)
		clientCount := len(s.clients)
		s.mu.Unlock()
		log.Printf("[IPC] Client disconnected, active clients: %d", clientCount)
	}()

	reader := bufio.NewReader(conn)
	var writeMu sync.Mutex

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := reader.ReadBytes('\n')
		if err != nil {
			if err != io.EOF {
				log.Printf("[IPC] Read error: %v", err)
			}
			return
		}

		req, err := DecodeRequest(line)
		if err != nil {
			log.Printf("[IPC] Invalid request format: %v", err)
			s.sendError(conn, &writeMu, "invalid request format")
			continue
		}

		log.Printf("[IPC] Command: %s", req.Cmd)
		resp := s.handleRequest(ctx, conn, &writeMu, req)
		if !resp.Success {
			log.Printf("[IPC] Response: error=%q", resp.Error)
		}

		if err := s.sendResponse(conn, &writeMu, resp); err != nil {
			log.Printf("[IPC] Send error: %v", err)
			return
		}
	}
}

func (s *Server) handleRequest(ctx context.Context, conn net.Conn, writeMu *sync.Mutex, req *Request) *Response {
	switch req.Cmd {
	case CmdAnalyze:
		return s.handleAnalyze(ctx, conn, writeMu, req)
	case CmdGetConfig:
		return s.handleGetConfig()
	case CmdSetConfig:
		return s.handleSetConfig(req)
	default:
		return NewErrorResponse(fmt.Sprintf("unknown command %q", req.Cmd))
	}
}

func (s *Server) handleAnalyze(ctx context.Context, conn net.Conn, writeMu *sync.Mutex, req *Request) *Response {
	// Fields the client leaves out keep the configured defaults.
	defaults := s.configMgr.Get()
	ar := AnalyzeRequest{
		SampleRate:    defaults.Analysis.SampleRate,
		MinFrequency:  defaults.Analysis.MinFrequency,
		MaxFrequency:  defaults.Analysis.MaxFrequency,
		BinsPerOctave: defaults.Analysis.BinsPerOctave,
		Threshold:     defaults.Analysis.Threshold,
		FrameInterval: defaults.Analysis.FrameInterval,
		WorkerCount:   defaults.Workers.Count,
	}
	if err := json.Unmarshal(req.Data, &ar); err != nil {
		return NewErrorResponse("invalid analyze payload: " + err.Error())
	}

	runID := strconv.FormatUint(s.runCounter.Add(1), 10)

	params := orchestrate.Params{
		FS:            ar.SampleRate,
		FMin:          ar.MinFrequency,
		FMax:          ar.MaxFrequency,
		BinsPerOctave: ar.BinsPerOctave,
		Threshold:     ar.Threshold,
		FrameInterval: ar.FrameInterval,
		WorkerCount:   ar.WorkerCount,
	}

	status := wire.StatusSinkFunc(func(code wire.StatusCode, payload int) {
		s.pushStatus(conn, writeMu, runID, code, payload)
	})
	data := newBatchingDataSink(func(reply DataPush) {
		s.pushData(conn, writeMu, runID, reply)
	})

	go func() {
		err := orchestrate.Run(ctx, params, ar.Samples, status, data)
		data.Flush()
		if err != nil {
			log.Printf("[IPC] run %s failed: %v", runID, err)
		}
	}()

	resp, _ := NewSuccessResponse(AnalyzeAccepted{RunID: runID})
	return resp
}

func (s *Server) handleGetConfig() *Response {
	cfg := s.configMgr.Get()
	resp, _ := NewSuccessResponse(ConfigResponse{
		ConfigPath:    s.configMgr.GetPath(),
		SocketPath:    cfg.SocketPath,
		SampleRate:    cfg.Analysis.SampleRate,
		MinFrequency:  cfg.Analysis.MinFrequency,
		MaxFrequency:  cfg.Analysis.MaxFrequency,
		BinsPerOctave: cfg.Analysis.BinsPerOctave,
		Threshold:     cfg.Analysis.Threshold,
		FrameInterval: cfg.Analysis.FrameInterval,
		WorkerCount:   cfg.Workers.Count,
	})
	return resp
}

func (s *Server) handleSetConfig(req *Request) *Response {
	var cr ConfigRequest
	if err := json.Unmarshal(req.Data, &cr); err != nil {
		return NewErrorResponse("invalid config payload: " + err.Error())
	}

	cfg := *s.configMgr.Get()
	if cr.SampleRate != nil {
		cfg.Analysis.SampleRate = *cr.SampleRate
	}
	if cr.MinFrequency != nil {
		cfg.Analysis.MinFrequency = *cr.MinFrequency
	}
	if cr.MaxFrequency != nil {
		cfg.Analysis.MaxFrequency = *cr.MaxFrequency
	}
	if cr.BinsPerOctave != nil {
		cfg.Analysis.BinsPerOctave = *cr.BinsPerOctave
	}
	if cr.Threshold != nil {
		cfg.Analysis.Threshold = *cr.Threshold
	}
	if cr.FrameInterval != nil {
		cfg.Analysis.FrameInterval = *cr.FrameInterval
	}
	if cr.WorkerCount != nil {
		cfg.Workers.Count = *cr.WorkerCount
	}

	if err := s.configMgr.Update(&cfg); err != nil {
		return NewErrorResponse("failed to save config: " + err.Error())
	}
	resp, _ := NewSuccessResponse(nil)
	return resp
}

func (s *Server) sendResponse(conn net.Conn, writeMu *sync.Mutex, resp *Response) error {
	data, err := EncodeResponse(resp)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	writeMu.Lock()
	defer writeMu.Unlock()
	_, err = conn.Write(data)
	return err
}

func (s *Server) sendError(conn net.Conn, writeMu *sync.Mutex, msg string) {
	s.sendResponse(conn, writeMu, NewErrorResponse(msg))
}

func (s *Server) pushStatus(conn net.Conn, writeMu *sync.Mutex, runID string, code wire.StatusCode, payload int) {
	msg, err := NewPushMessage("status", StatusPush{RunID: runID, Code: int(code), Payload: payload})
	if err != nil {
		return
	}
	msg = append(msg, '\n')
	writeMu.Lock()
	defer writeMu.Unlock()
	conn.Write(msg)
}

func (s *Server) pushData(conn net.Conn, writeMu *sync.Mutex, runID string, dp DataPush) {
	dp.RunID = runID
	msg, err := NewPushMessage("data", dp)
	if err != nil {
		return
	}
	msg = append(msg, '\n')
	writeMu.Lock()
	defer writeMu.Unlock()
	conn.Write(msg)
}
