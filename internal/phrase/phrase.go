package phrase

// Phrase is one parsed, ordered step of a test case.
type Phrase struct {
	Index int
	Body  string
	Tags  []string
}

// Indexed assigns each body its position in the list.
func Indexed(bodies ...string) []Phrase {
	out := make([]Phrase, 0, len(bodies))
	for i, body := range bodies {
		out = append(out, Phrase{Index: i, Body: body})
	}
	return out
}
