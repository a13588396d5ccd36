// internal/handlers/ws_codes.go
package handlers

// Custom WebSocket close codes used by the lobby subscription handler.
// These provide more specific reasons for closure than standard codes.
const (
	BadSubprotocolError   = 3000 // Client connected with an unsupported subprotocol.
	InvalidAuthTokenError = 3001 // Token was required for the channel but missing or invalid.
	NotAMemberError       = 3002 // Private lobby channels are only open to members.
	InvalidLobbyIDError   = 3003 // Target lobby ID specified in the WS URL does not exist or is invalid.
)
