package model

// -----------------------------------------------------------------
// Monitor API Response Models
// -----------------------------------------------------------------

// MonitorResponse is the main response for the monitor API
type MonitorResponse struct {
	Status      string          `json:"status"`      // "healthy", "idle"
	Connections ConnectionStats `json:"connections"` // Client connection stats
	Calls       CallStats       `json:"calls"`       // Active call stats
	Clients     []ClientInfo    `json:"clients"`     // List of connected clients
	StatusCount map[string]int  `json:"statusCount"` // Count by presence status
}

// ConnectionStats holds connection-related statistics
type ConnectionStats struct {
	TotalConnected int `json:"totalConnected"` // Live connections in the registry
	TotalOnline    int `json:"totalOnline"`
	TotalAway      int `json:"totalAway"`
	TotalInCall    int `json:"totalInCall"` // Users taking part in an active call
}

// CallStats holds active call statistics
type CallStats struct {
	TotalActiveCalls int        `json:"totalActiveCalls"`
	TotalRinging     int        `json:"totalRinging"`
	TotalOngoing     int        `json:"totalOngoing"`
	CallDetails      []CallInfo `json:"callDetails"`
}

// CallInfo contains information about a single active call
type CallInfo struct {
	CallID     string     `json:"callId"`
	CallerID   string     `json:"callerId"`
	ReceiverID string     `json:"receiverId"`
	CallType   string     `json:"callType"`
	Status     CallStatus `json:"status"`
	CreatedAt  string     `json:"createdAt"` // ISO timestamp
}

// ClientInfo contains information about a connected client
type ClientInfo struct {
	ClientID    string `json:"clientId"`
	UserID      string `json:"userId"`
	Status      string `json:"status"`
	ConnectedAt string `json:"connectedAt"`
	InCall      bool   `json:"inCall"`
}
