package domain

import "context"

// RecipeProvider fetches pages of recipes matching a compiled query.
// Implementations can be in-memory, SQLite-backed, or a remote HTTP API.
// Transport failures are reported as ErrProviderUnavailable and
// non-success responses as ErrProviderError.
type RecipeProvider interface {
	FetchRecipes(ctx context.Context, q Query, offset, limit int) (ResultPage, error)
}

// Catalog lists the facet vocabulary a provider knows about. Optional;
// used to suggest values in the terminal browser and by the HTTP API.
type Catalog interface {
	Categories(ctx context.Context) ([]string, error)
	Tags(ctx context.Context) ([]string, error)
}

// Notifier delivers messages to the user. Implementations can write to
// stdout or to the terminal UI scrollback.
type Notifier interface {
	Notify(ctx context.Context, message string) error
	NotifyUrgent(ctx context.Context, message string) error
}

// CommandParser converts raw user input into structured commands.
type CommandParser interface {
	Parse(ctx context.Context, input string) (*Command, error)
}
