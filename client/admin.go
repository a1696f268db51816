package client

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// AdminHandler 本地管理接口：
//
//	GET  /state                   当前 View
//	GET  /metrics                 计数器
//	POST /actions/heal            发送 HealSelf
//	POST /actions/attack?target=  发送 AttackPlayer
//	GET  /healthz                 存活检查
func AdminHandler(s *Session) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/state", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, s.View())
	})
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"session": s.ID(),
			"phase":   s.Phase().String(),
			"version": s.Store().Version(),
			"metrics": s.Metrics().Snapshot(),
		})
	})
	mux.HandleFunc("/actions/heal", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeActionResult(w, s.HealSelf())
	})
	mux.HandleFunc("/actions/attack", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		target := strings.TrimSpace(r.URL.Query().Get("target"))
		if target == "" {
			http.Error(w, "missing target query", http.StatusBadRequest)
			return
		}
		writeActionResult(w, s.AttackPlayer(PlayerID(target)))
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

func writeActionResult(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, map[string]any{"ok": true})
	case errors.Is(err, ErrNotConnected), errors.Is(err, ErrSendQueueFull):
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
