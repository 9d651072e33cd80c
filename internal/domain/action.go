package domain

import "strings"

// Action is the closed set of intents a technician message can resolve to.
type Action string

const (
	ActionCreateOne  Action = "CREATE_ONE"
	ActionCreateBulk Action = "CREATE_BULK"
	ActionAddComment Action = "ADD_COMMENT"
	ActionAddImage   Action = "ADD_IMAGE"
	ActionUpdate     Action = "UPDATE"
	ActionDelete     Action = "DELETE"
	ActionList       Action = "LIST"
	ActionSearch     Action = "SEARCH"
	ActionGetImages  Action = "GET_IMAGES"
	ActionHelp       Action = "HELP"
	ActionError      Action = "ERROR"
)

// Actions lists every action in grammar order.
var Actions = []Action{
	ActionCreateOne,
	ActionCreateBulk,
	ActionAddComment,
	ActionAddImage,
	ActionUpdate,
	ActionDelete,
	ActionList,
	ActionSearch,
	ActionGetImages,
	ActionHelp,
	ActionError,
}

// ParseAction maps a tag (case-insensitive) to a known Action.
func ParseAction(s string) (Action, bool) {
	tag := Action(strings.ToUpper(strings.TrimSpace(s)))
	for _, a := range Actions {
		if a == tag {
			return a, true
		}
	}
	return "", false
}

func (a Action) String() string {
	return string(a)
}

// ListScope selects the date window of a LIST action.
type ListScope string

const (
	ScopeToday ListScope = "TODAY"
	ScopeWeek  ListScope = "WEEK"
	ScopeMonth ListScope = "MONTH"
	ScopeDate  ListScope = "DATE"
)

// ParseListScope accepts both the English tags and the French words
// the fallback grammar and technicians use.
func ParseListScope(s string) (ListScope, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TODAY", "AUJOURD'HUI", "AUJOURDHUI", "":
		return ScopeToday, true
	case "WEEK", "SEMAINE":
		return ScopeWeek, true
	case "MONTH", "MOIS":
		return ScopeMonth, true
	case "DATE":
		return ScopeDate, true
	default:
		return "", false
	}
}

// DateToday is the placeholder date the classifier emits when a message
// carries no explicit date. The executor substitutes the current day.
const DateToday = "TODAY"
