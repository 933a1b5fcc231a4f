package domain

// ReferredProduct identifies a catalog item the user tapped on before
// sending the message.
type ReferredProduct struct {
	CatalogID         string `json:"catalog_id"`
	ProductRetailerID string `json:"product_retailer_id"`
}

// RouteRequest is the normalized inbound message handed to the router by
// the messaging-transport adapter. The transport has already unwrapped the
// wire envelope and marked the message as read.
type RouteRequest struct {
	SenderID        string
	SenderName      string
	GroupID         string
	OriginalText    string
	ReferredProduct *ReferredProduct
}

// RouteResult is the outcome of one conversational turn. It is a projection
// of the session after the triggering event, never persisted on its own.
type RouteResult struct {
	Intent       Intent         `json:"intent"`
	HandlerUsed  string         `json:"handler_used"`
	ResponseText string         `json:"response_text,omitempty"`
	SessionState map[string]any `json:"session_state,omitempty"`
}
