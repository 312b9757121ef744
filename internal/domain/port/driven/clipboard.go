package driven

// Clipboard defines the driven port for the system clipboard.
type Clipboard interface {
	WriteText(text string) error
}
