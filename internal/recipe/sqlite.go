package recipe

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/hammamikhairi/ottobrowse/internal/domain"
	"github.com/hammamikhairi/ottobrowse/internal/logger"
)

//go:embed schema.sql
var schemaSQL string

// driverName is go-sqlite3 with the case-folding functions the recipe
// queries rely on, so text matching follows Matches rather than SQLite's
// ASCII-only NOCASE and LIKE.
const driverName = "sqlite3_recipes"

func init() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			if err := conn.RegisterFunc("fold", strings.ToLower, true); err != nil {
				return err
			}
			if err := conn.RegisterFunc("fold_contains", containsFold, true); err != nil {
				return err
			}
			return conn.RegisterFunc("fold_equal", strings.EqualFold, true)
		},
	})
}

// Compile-time interface checks.
var (
	_ domain.RecipeProvider = (*SQLiteSource)(nil)
	_ domain.Catalog        = (*SQLiteSource)(nil)
)

// SQLiteSource serves recipes from a SQLite database. Sequence fields are
// stored as JSON arrays and filtered with json_each.
type SQLiteSource struct {
	db  *sql.DB
	log *logger.Logger
}

// OpenSQLite creates or opens the database at path and applies the schema.
// Idempotent.
func OpenSQLite(path string, log *logger.Logger) (*SQLiteSource, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("opening recipe database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to recipe database: %w", err)
	}

	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("executing %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying recipe schema: %w", err)
	}

	log.Debug("recipe database open at %s", path)
	return &SQLiteSource{db: db, log: log}, nil
}

// Close closes the database.
func (s *SQLiteSource) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Insert stores recipes in one transaction, replacing any with the same id.
func (s *SQLiteSource) Insert(ctx context.Context, recipes ...domain.Recipe) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO recipes
		(id, title, description, category, tags, ingredients, instructions, step_count, prep, cook, servings, published)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range recipes {
		if r.ID == "" {
			return fmt.Errorf("inserting recipe %q: empty id", r.Title)
		}
		tags, err := encodeJSON(r.Tags, "[]")
		if err != nil {
			return fmt.Errorf("encoding tags of %s: %w", r.ID, err)
		}
		ings, err := encodeJSON(r.Ingredients, "[]")
		if err != nil {
			return fmt.Errorf("encoding ingredients of %s: %w", r.ID, err)
		}
		steps, err := encodeJSON(r.Instructions, "[]")
		if err != nil {
			return fmt.Errorf("encoding instructions of %s: %w", r.ID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			r.ID, r.Title, r.Description, r.Category, tags, ings, steps,
			len(r.Instructions), r.PrepMinutes, r.CookMinutes, r.Servings, r.Published.Unix(),
		); err != nil {
			return fmt.Errorf("inserting recipe %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing insert: %w", err)
	}
	s.log.Debug("inserted %d recipes", len(recipes))
	return nil
}

// FetchRecipes returns one page of the recipes matching q.
func (s *SQLiteSource) FetchRecipes(ctx context.Context, q domain.Query, offset, limit int) (domain.ResultPage, error) {
	compiled, err := compileSQL(q, offset, limit)
	if err != nil {
		return domain.ResultPage{}, fmt.Errorf("compiling query: %w", err)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, compiled.Count, compiled.CountArgs...).Scan(&total); err != nil {
		return domain.ResultPage{}, fmt.Errorf("counting recipes: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, compiled.Select, compiled.SelectArgs...)
	if err != nil {
		return domain.ResultPage{}, fmt.Errorf("querying recipes: %w", err)
	}
	defer rows.Close()

	items := []domain.Recipe{}
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return domain.ResultPage{}, err
		}
		items = append(items, r)
	}
	if err := rows.Err(); err != nil {
		return domain.ResultPage{}, fmt.Errorf("reading recipes: %w", err)
	}

	s.log.Debug("sqlite fetch %s offset=%d limit=%d -> %d/%d", q, offset, limit, len(items), total)
	return domain.ResultPage{Items: items, TotalCount: total}, nil
}

// Get returns a recipe by ID.
func (s *SQLiteSource) Get(ctx context.Context, id string) (*domain.Recipe, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM recipes WHERE id = ?", id)
	r, err := scanRecipe(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Categories returns the distinct non-empty categories, sorted.
func (s *SQLiteSource) Categories(ctx context.Context) ([]string, error) {
	return s.listStrings(ctx, "SELECT DISTINCT category FROM recipes WHERE category != '' ORDER BY category")
}

// Tags returns the distinct tags, sorted.
func (s *SQLiteSource) Tags(ctx context.Context) ([]string, error) {
	return s.listStrings(ctx, "SELECT DISTINCT json_each.value FROM recipes, json_each(recipes.tags) ORDER BY 1")
}

func (s *SQLiteSource) listStrings(ctx context.Context, query string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing values: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scanning value: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecipe(sc scanner) (domain.Recipe, error) {
	var (
		r                        domain.Recipe
		tags, ings, instructions string
		published                int64
	)
	err := sc.Scan(&r.ID, &r.Title, &r.Description, &r.Category, &tags, &ings, &instructions,
		&r.PrepMinutes, &r.CookMinutes, &r.Servings, &published)
	if err != nil {
		return domain.Recipe{}, fmt.Errorf("scanning recipe: %w", err)
	}
	if err := json.Unmarshal([]byte(tags), &r.Tags); err != nil {
		return domain.Recipe{}, fmt.Errorf("decoding tags of %s: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(ings), &r.Ingredients); err != nil {
		return domain.Recipe{}, fmt.Errorf("decoding ingredients of %s: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(instructions), &r.Instructions); err != nil {
		return domain.Recipe{}, fmt.Errorf("decoding instructions of %s: %w", r.ID, err)
	}
	r.Published = time.Unix(published, 0).UTC()
	return r, nil
}

func encodeJSON(v any, empty string) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	if string(b) == "null" {
		return empty, nil
	}
	return string(b), nil
}
