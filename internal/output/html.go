package output

import (
	"embed"
	"html/template"
	"io"

	"taskboard/internal/service"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"badge":       Badge,
	"toggleLabel": ToggleLabel,
	"deleteLabel": func() string { return DeleteLabel },
	"emptyTitle":  func() string { return EmptyTitle },
	"emptyHint":   func() string { return EmptyHint },
}).ParseFS(templateFS, "templates/*.tmpl"))

// Element identifiers of the page.
const (
	IDFilterStatus   = "filterStatus"
	IDFilterPriority = "filterPriority"
	IDSearchQuery    = "searchQuery"
	IDAddTaskForm    = "addTaskForm"
	IDTitle          = "title"
	IDDescription    = "description"
	IDPriority       = "priority"
	IDDeadline       = "deadline"
	IDTasksList      = "tasksList"
)

type card struct {
	Task     service.Task
	Created  string
	Deadline string
}

type option struct {
	Value    string
	Selected bool
}

// RenderTasks writes the inner HTML of the list container: one card per task,
// or the empty-state block.
func RenderTasks(w io.Writer, tasks []service.Task, opts Options) error {
	return templates.ExecuteTemplate(w, "cards", cards(tasks, opts))
}

// RenderPage writes a complete page: filter controls reflecting filter,
// the add form and the list container holding the cards.
func RenderPage(w io.Writer, tasks []service.Task, filter service.Filter, opts Options) error {
	status := filter.Status
	if status == "" {
		status = service.StatusAll
	}
	priority := filter.Priority
	if priority == "" {
		priority = service.PriorityAll
	}

	data := struct {
		Statuses   []option
		Priorities []option
		Choices    []service.Priority
		Search     string
		Cards      []card
	}{
		Statuses:   options(service.Statuses, status),
		Priorities: options(append([]string{service.PriorityAll}, priorityNames()...), priority),
		Choices:    service.Priorities,
		Search:     filter.Search,
		Cards:      cards(tasks, opts),
	}
	return templates.ExecuteTemplate(w, "page", data)
}

func cards(tasks []service.Task, opts Options) []card {
	result := make([]card, 0, len(tasks))
	for _, task := range tasks {
		c := card{Task: task, Created: FormatTime(task.CreatedAt, opts)}
		if task.Deadline != nil && !task.Deadline.IsZero() {
			c.Deadline = FormatTime(*task.Deadline, opts)
		}
		result = append(result, c)
	}
	return result
}

func options(values []string, selected string) []option {
	result := make([]option, 0, len(values))
	for _, v := range values {
		result = append(result, option{Value: v, Selected: v == selected})
	}
	return result
}

func priorityNames() []string {
	names := make([]string, 0, len(service.Priorities))
	for _, p := range service.Priorities {
		names = append(names, string(p))
	}
	return names
}
