package ui

// quietRenderer draws nothing. Prompts and failures still reach the user.
type quietRenderer struct{}

func (quietRenderer) status(string) {}
func (quietRenderer) progress(int)  {}
func (quietRenderer) clear()        {}
