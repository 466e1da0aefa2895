package domain

// CommandType classifies what the user wants the browser to do.
type CommandType int

const (
	CommandUnknown CommandType = iota
	CommandAddFacet
	CommandRemoveFacet
	CommandSort
	CommandReset
	CommandSearch
	CommandMore
	CommandChips
	CommandRefresh
	CommandCategories
	CommandShow
	CommandHelp
	CommandQuit
)

// String returns a human-readable command type.
func (c CommandType) String() string {
	switch c {
	case CommandAddFacet:
		return "add_facet"
	case CommandRemoveFacet:
		return "remove_facet"
	case CommandSort:
		return "sort"
	case CommandReset:
		return "reset"
	case CommandSearch:
		return "search"
	case CommandMore:
		return "more"
	case CommandChips:
		return "chips"
	case CommandRefresh:
		return "refresh"
	case CommandCategories:
		return "categories"
	case CommandShow:
		return "show"
	case CommandHelp:
		return "help"
	case CommandQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// Command represents a parsed user action.
type Command struct {
	Type  CommandType
	Facet FacetKey // for add/remove
	Value string   // facet value, sort key, search text, or raw input for unknown
}
