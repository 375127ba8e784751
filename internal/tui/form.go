package tui

import (
	"fmt"
	"io"
	"strings"

	"taskboard/internal/board"
	"taskboard/internal/service"
)

type formField struct {
	Label string
	Value string
}

const (
	fieldTitle = iota
	fieldDescription
	fieldPriority
	fieldDeadline
)

type formState struct {
	fields []formField
	index  int
}

func newFormState() *formState {
	return &formState{fields: []formField{
		{Label: "Title"},
		{Label: "Description"},
		{Label: "Priority (space/←→)", Value: string(service.PriorityMedium)},
		{Label: "Deadline (YYYY-MM-DDTHH:MM)"},
	}}
}

func (f *formState) values() board.FormFields {
	return board.FormFields{
		Title:       f.fields[fieldTitle].Value,
		Description: f.fields[fieldDescription].Value,
		Priority:    f.fields[fieldPriority].Value,
		Deadline:    f.fields[fieldDeadline].Value,
	}
}

func (f *formState) current() *formField {
	return &f.fields[f.index]
}

func (f *formState) next() {
	if f.index < len(f.fields)-1 {
		f.index++
	}
}

func (f *formState) prev() {
	if f.index > 0 {
		f.index--
	}
}

// render writes one line per field and returns the cursor position.
func (f *formState) render(w io.Writer) (int, int) {
	for index, field := range f.fields {
		prefix := "  "
		if index == f.index {
			prefix = "> "
		}
		fmt.Fprintf(w, "%s%s: %s\n", prefix, field.Label, field.Value)
	}
	field := f.fields[f.index]
	cursorX := len([]rune(field.Label)) + len([]rune(field.Value)) + 4
	return cursorX, f.index
}

// submittedForm is the copy of the form handed to the board.
// The board may call Reset off the UI loop, so it only records the request.
type submittedForm struct {
	fields board.FormFields
	reset  bool
}

func (s *submittedForm) Fields() board.FormFields { return s.fields }
func (s *submittedForm) Reset()                   { s.reset = true }

func isPriorityField(label string) bool {
	return strings.HasPrefix(label, "Priority")
}

func cyclePriority(current string, delta int) string {
	return cycle(priorityChoices(), current, delta)
}

func priorityChoices() []string {
	choices := make([]string, 0, len(service.Priorities))
	for _, p := range service.Priorities {
		choices = append(choices, string(p))
	}
	return choices
}

// cycle returns the option delta steps from current, wrapping around.
// An unknown current value starts from the first option.
func cycle(options []string, current string, delta int) string {
	index := 0
	for i, option := range options {
		if option == current {
			index = i
			break
		}
	}
	index = (index + delta + len(options)) % len(options)
	return options[index]
}
