package tracker

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"train-tracker/internal/status"
)

// Handler serves the cached snapshots as JSON for the display surface.
func (m *Manager) Handler() http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/trains", m.listTrains).Methods(http.MethodGet)
	router.HandleFunc("/trains/{id:[0-9]+}", m.getTrain).Methods(http.MethodGet)
	return router
}

func (m *Manager) listTrains(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, m.All())
}

func (m *Manager) getTrain(w http.ResponseWriter, r *http.Request) {
	trainID := mux.Vars(r)["id"]
	if !m.tracks(trainID) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "train not tracked"})
		return
	}
	snap, ok := m.Latest(trainID)
	if !ok {
		snap = Snapshot{TrainID: trainID}
	}
	if snap.Statuses == nil {
		snap.Statuses = []status.TrainStatus{}
	}
	writeJSON(w, http.StatusOK, snap)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

// Serve starts an HTTP server for Handler on addr.
func (m *Manager) Serve(addr string) *http.Server {
	srv := &http.Server{Addr: addr, Handler: m.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("status server error: %v", err)
		}
	}()
	log.Printf("status listening on %s", addr)
	return srv
}
