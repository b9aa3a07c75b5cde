package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sort"

	"github.com/gorilla/mux"
)

type roomSummary struct {
	RoomID   string            `json:"room_id"`
	Members  map[string]string `json:"members"`
	Schedule string            `json:"schedule,omitempty"`
}

type memberDetail struct {
	MemberID string  `json:"member_id"`
	Name     string  `json:"name"`
	Yday     *string `json:"yday"`
	Today    *string `json:"today"`
	Blockers *string `json:"blockers"`
}

type roomDetail struct {
	RoomID   string         `json:"room_id"`
	Schedule string         `json:"schedule,omitempty"`
	Members  []memberDetail `json:"members"`
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
	})
}

func (a *API) handleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := a.db.AllRooms(r.Context())
	if err != nil {
		log.Printf("api: listing rooms failed: %v", err)
		http.Error(w, "failed to list rooms", http.StatusInternalServerError)
		return
	}

	summaries := make([]roomSummary, 0, len(rooms))
	for _, room := range rooms {
		s := roomSummary{RoomID: room.RoomID, Members: room.Members}
		if room.Rule != nil {
			s.Schedule = room.Rule.CronSpec()
		}
		summaries = append(summaries, s)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summaries)
}

func (a *API) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	roomID := vars["room_id"]

	room, err := a.db.Room(r.Context(), roomID)
	if err != nil {
		log.Printf("api: loading room %s failed: %v", roomID, err)
		http.Error(w, "failed to load room", http.StatusInternalServerError)
		return
	}

	detail := roomDetail{RoomID: room.RoomID, Members: []memberDetail{}}
	if room.Rule != nil {
		detail.Schedule = room.Rule.CronSpec()
	}

	for memberID, name := range room.Members {
		rec, err := a.db.Interview(r.Context(), roomID, memberID)
		if err != nil {
			log.Printf("api: loading interview for %s in room %s failed: %v", memberID, roomID, err)
			continue
		}
		detail.Members = append(detail.Members, memberDetail{
			MemberID: memberID,
			Name:     name,
			Yday:     rec.Yday,
			Today:    rec.Today,
			Blockers: rec.Blockers,
		})
	}
	sort.Slice(detail.Members, func(i, j int) bool {
		return detail.Members[i].Name < detail.Members[j].Name
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(detail)
}
