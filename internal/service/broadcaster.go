package service

// Broadcaster delivers named events to rooms and single connections (avoids import cycle)
type Broadcaster interface {
	BroadcastToRoom(room string, msgType string, payload interface{})
	SendToConnection(connID string, msgType string, payload interface{})
	DisconnectRoom(room string)
}
