package domain

// ThreadQuery carries the filters forwarded to the message-thread service.
// Cursor and Date are opaque to this service.
type ThreadQuery struct {
	BotID  string
	Cursor string
	Limit  int
	Date   string
}
