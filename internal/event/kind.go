package event

// Kind is the category a tool falls into for aggregate counts.
type Kind int

const (
	KindOther Kind = iota
	KindEdit
	KindWrite
	KindRead
	KindCommand
	KindTask
)

func (k Kind) String() string {
	switch k {
	case KindEdit:
		return "edits"
	case KindWrite:
		return "writes"
	case KindRead:
		return "reads"
	case KindCommand:
		return "commands"
	case KindTask:
		return "tasks"
	default:
		return "other"
	}
}

// Classify maps a tool name onto its Kind. Unrecognised tools are KindOther.
func Classify(tool string) Kind {
	switch tool {
	case ToolEdit, ToolMultiEdit:
		return KindEdit
	case ToolWrite:
		return KindWrite
	case ToolRead:
		return KindRead
	case ToolBash:
		return KindCommand
	case ToolTaskUpdate, ToolTaskCreate:
		return KindTask
	default:
		return KindOther
	}
}

// meaningful is the set of tools that count toward the session action counter.
var meaningful = map[string]bool{
	ToolEdit:         true,
	ToolWrite:        true,
	ToolMultiEdit:    true,
	ToolNotebookEdit: true,
	ToolBash:         true,
	ToolTaskUpdate:   true,
}

// IsMeaningful reports whether tool counts as a meaningful action.
func IsMeaningful(tool string) bool {
	return meaningful[tool]
}
