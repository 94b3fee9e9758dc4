// Copyright 2024 The go-equa Authors

// Package api exposes the engine's operations as an HTTP/JSON surface
// for clients, peers, and the miner process. It is a thin adapter: it
// owns no consensus logic of its own.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/rs/cors"

	"github.com/equa/go-equa-chain/internal/chain"
	"github.com/equa/go-equa-chain/internal/engine"
	"github.com/equa/go-equa-chain/internal/logutil"
)

var log = logutil.New("api")

// Server wraps an *engine.Engine with an http.Handler implementing the
// node's wire protocol.
type Server struct {
	eng     *engine.Engine
	handler http.Handler
}

// New builds a Server bound to eng.
func New(eng *engine.Engine) *Server {
	s := &Server{eng: eng}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /block_template", s.handleBlockTemplate)
	mux.HandleFunc("GET /blocks", s.handleGetBlocks)
	mux.HandleFunc("POST /blocks", s.handlePostBlock)
	mux.HandleFunc("GET /transactions", s.handleGetTransactions)
	mux.HandleFunc("POST /transactions", s.handlePostTransaction)
	mux.HandleFunc("GET /stats", s.handleStats)
	mux.HandleFunc("GET /network", s.handleNetwork)

	s.handler = recoverMiddleware(cors.Default().Handler(mux))
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error("handler panic", "path", r.URL.Path, "recovered", rec)
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	http.Error(w, err.Error(), status)
}

func (s *Server) handleBlockTemplate(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.eng.BlockTemplate())
}

func (s *Server) handleGetBlocks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.eng.AllBlocks())
}

func (s *Server) handlePostBlock(w http.ResponseWriter, r *http.Request) {
	var block chain.Block
	if err := json.NewDecoder(r.Body).Decode(&block); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	// The incoming hash is never trusted: operators may submit blocks by
	// hand without pre-hashing, so the server recomputes it before
	// validation.
	block.Hash = block.CalculateHash()

	if err := s.eng.AppendBlock(block); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleGetTransactions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.eng.MempoolTransactions())
}

func (s *Server) handlePostTransaction(w http.ResponseWriter, r *http.Request) {
	var tx chain.Transaction
	if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.eng.AddMempoolTransaction(tx); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.eng.Stats())
}

func (s *Server) handleNetwork(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.eng.Network())
}
