package hub

import (
	"time"

	"Voxline/internal/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MonitorService summarises the registry and the tracked calls
type MonitorService struct {
	hub *Hub
}

func NewMonitorService(hub *Hub) *MonitorService {
	return &MonitorService{hub: hub}
}

// GetStats takes one snapshot of sessions and calls and folds both into
// the monitor response
func (ms *MonitorService) GetStats() model.MonitorResponse {
	sessions := ms.hub.registry.Snapshot()
	active := ms.hub.calls.ActiveCalls()

	resp := model.MonitorResponse{
		Status:      "healthy",
		Calls:       callStats(active),
		Clients:     make([]model.ClientInfo, 0, len(sessions)),
		StatusCount: map[string]int{model.StatusOnline: 0, model.StatusAway: 0},
	}
	if len(sessions) == 0 {
		resp.Status = "idle"
	}

	inCall := make(map[primitive.ObjectID]bool, 2*len(active))
	for _, ac := range active {
		inCall[ac.CallerID] = true
		inCall[ac.ReceiverID] = true
	}

	resp.Connections.TotalConnected = len(sessions)
	for _, c := range sessions {
		status := c.GetStatus()
		resp.StatusCount[status]++
		switch status {
		case model.StatusOnline:
			resp.Connections.TotalOnline++
		case model.StatusAway:
			resp.Connections.TotalAway++
		}
		if inCall[c.userID] {
			resp.Connections.TotalInCall++
		}

		resp.Clients = append(resp.Clients, model.ClientInfo{
			ClientID:    c.ID,
			UserID:      c.userID.Hex(),
			Status:      status,
			ConnectedAt: c.connectedAt.Format(time.RFC3339),
			InCall:      inCall[c.userID],
		})
	}

	return resp
}

// ConnectionCount returns the number of live sessions
func (ms *MonitorService) ConnectionCount() int {
	return ms.hub.registry.Len()
}

func callStats(active []ActiveCall) model.CallStats {
	stats := model.CallStats{
		TotalActiveCalls: len(active),
		CallDetails:      make([]model.CallInfo, 0, len(active)),
	}
	for _, ac := range active {
		switch ac.Status {
		case model.CallStatusInitiated:
			stats.TotalRinging++
		case model.CallStatusOngoing:
			stats.TotalOngoing++
		}
		stats.CallDetails = append(stats.CallDetails, model.CallInfo{
			CallID:     ac.CallID.Hex(),
			CallerID:   ac.CallerID.Hex(),
			ReceiverID: ac.ReceiverID.Hex(),
			CallType:   ac.CallType,
			Status:     ac.Status,
			CreatedAt:  ac.CreatedAt.Format(time.RFC3339),
		})
	}
	return stats
}
