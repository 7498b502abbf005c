package domain

// Email is a single-recipient HTML message.
type Email struct {
	From     string
	To       string
	Subject  string
	HTMLBody string
}
