package generator

// UsageError reports invalid command-line input. Its message is shown to
// the user as is.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string { return e.Msg }
