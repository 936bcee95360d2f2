package search

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// RecipeIndex wraps a Bleve index of recipe documents.
//
// All public methods are safe for concurrent use. The mutex keeps normal
// operations off the index while Rebuild swaps it out.
type RecipeIndex struct {
	index  bleve.Index
	path   string
	logger *slog.Logger
	mu     sync.RWMutex
}

// Options configures the search index.
type Options struct {
	DataPath string       // Directory for index storage
	Logger   *slog.Logger // Uses discard if nil
}

// mappingVersion is bumped whenever buildIndexMapping changes so existing
// indexes are recreated on startup.
const mappingVersion = "1"

const (
	indexDirName    = "search.bleve"
	versionFileName = "search.version"
	batchSize       = 500
	docIDPrefix     = "recipe:"
)

// DefaultLimit and MaxLimit bound the page size of Search.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// NewRecipeIndex creates or opens the index under opts.DataPath.
// A corrupted index or one written with an older mapping is removed and
// recreated empty; callers detect that through DocumentCount and reindex.
func NewRecipeIndex(opts Options) (*RecipeIndex, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	indexPath := filepath.Join(opts.DataPath, indexDirName)
	versionPath := filepath.Join(opts.DataPath, versionFileName)

	var index bleve.Index
	needsRebuild := false

	indexExists := false
	if _, statErr := os.Stat(indexPath); statErr == nil {
		indexExists = true
	}

	if indexExists {
		existingVersion, readErr := os.ReadFile(versionPath)
		switch {
		case readErr != nil:
			logger.Info("search index has no version file, will rebuild",
				"new_version", mappingVersion,
			)
			needsRebuild = true
		case strings.TrimSpace(string(existingVersion)) != mappingVersion:
			logger.Info("search index mapping version changed, will rebuild",
				"old_version", string(existingVersion),
				"new_version", mappingVersion,
			)
			needsRebuild = true
		}
	}

	if !needsRebuild && indexExists {
		var err error
		index, err = bleve.Open(indexPath)
		if err != nil {
			logger.Warn("failed to open existing index, will recreate",
				"path", indexPath,
				"error", err,
			)
			needsRebuild = true
		}
	}

	if needsRebuild {
		if err := os.RemoveAll(indexPath); err != nil {
			return nil, fmt.Errorf("remove old index: %w", err)
		}
		index = nil
	}

	if index == nil {
		var err error
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		if err := os.WriteFile(versionPath, []byte(mappingVersion), 0o644); err != nil {
			logger.Warn("failed to write search version file", "error", err)
		}
		logger.Info("created new search index", "path", indexPath, "mapping_version", mappingVersion)
	} else {
		logger.Info("opened existing search index", "path", indexPath)
	}

	return &RecipeIndex{
		index:  index,
		path:   indexPath,
		logger: logger,
	}, nil
}

// Close closes the index and releases resources.
func (s *RecipeIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// IndexRecipe adds or replaces a single recipe document.
func (s *RecipeIndex) IndexRecipe(doc *RecipeDocument) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Index(doc.DocID(), doc.ToMap())
}

// IndexRecipes indexes documents in batches of batchSize.
func (s *RecipeIndex) IndexRecipes(docs []*RecipeDocument) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := 0; i < len(docs); i += batchSize {
		end := min(i+batchSize, len(docs))

		batch := s.index.NewBatch()
		for _, doc := range docs[i:end] {
			if err := batch.Index(doc.DocID(), doc.ToMap()); err != nil {
				return fmt.Errorf("batch index recipe %d: %w", doc.ID, err)
			}
		}
		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}
	return nil
}

// DeleteRecipe removes a recipe document. Missing documents are not an error.
func (s *RecipeIndex) DeleteRecipe(recipeID int64) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Delete(docID(recipeID))
}

// DocumentCount returns the total number of indexed documents.
func (s *RecipeIndex) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Rebuild drops the index and creates an empty one with the current mapping.
// It blocks every other operation until done.
func (s *RecipeIndex) Rebuild() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}
	if err := os.RemoveAll(s.path); err != nil {
		return fmt.Errorf("remove index: %w", err)
	}

	index, err := bleve.New(s.path, buildIndexMapping())
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	s.index = index
	s.logger.Info("rebuilt search index", "path", s.path)
	return nil
}

// SearchParams configures a recipe query.
type SearchParams struct {
	OwnerID int64
	Query   string
	Limit   int
	Offset  int
}

// SearchResult holds matching recipe IDs ordered by relevance.
type SearchResult struct {
	Total     uint64
	RecipeIDs []int64
}

// Search runs a relevance-ordered query restricted to one owner's recipes.
func (s *RecipeIndex) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	limit = min(limit, MaxLimit)
	offset := max(params.Offset, 0)

	req := bleve.NewSearchRequestOptions(buildSearchQuery(params), limit, offset, false)
	req.SortBy([]string{"-_score", "-updated_at"})

	s.mu.RLock()
	res, err := s.index.SearchInContext(ctx, req)
	s.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &SearchResult{
		Total:     res.Total,
		RecipeIDs: make([]int64, 0, len(res.Hits)),
	}
	for _, hit := range res.Hits {
		id, err := strconv.ParseInt(strings.TrimPrefix(hit.ID, docIDPrefix), 10, 64)
		if err != nil {
			s.logger.Warn("skipping search hit with malformed id", "doc_id", hit.ID)
			continue
		}
		result.RecipeIDs = append(result.RecipeIDs, id)
	}
	return result, nil
}

// buildSearchQuery matches the text against title, tags and ingredients
// and ANDs that with the owner filter.
func buildSearchQuery(params SearchParams) query.Query {
	owner := bleve.NewTermQuery(ownerTerm(params.OwnerID))
	owner.SetField("owner_id")

	text := strings.TrimSpace(params.Query)
	if text == "" {
		return owner
	}

	titleMatch := bleve.NewMatchQuery(text)
	titleMatch.SetField("title")
	titleMatch.SetBoost(3.0)

	tagMatch := bleve.NewMatchQuery(text)
	tagMatch.SetField("tags")
	tagMatch.SetBoost(1.5)

	ingredientMatch := bleve.NewMatchQuery(text)
	ingredientMatch.SetField("ingredients")
	ingredientMatch.SetBoost(1.5)

	// Typo tolerance on title
	fuzzyTitle := bleve.NewMatchQuery(text)
	fuzzyTitle.SetField("title")
	fuzzyTitle.SetFuzziness(1)
	fuzzyTitle.SetBoost(0.8)

	textQueries := []query.Query{titleMatch, tagMatch, ingredientMatch, fuzzyTitle}

	// Prefix query for autocomplete on single words
	if len(text) >= 2 && !strings.ContainsAny(text, " \t") {
		prefix := bleve.NewPrefixQuery(strings.ToLower(text))
		prefix.SetField("title")
		prefix.SetBoost(0.5)
		textQueries = append(textQueries, prefix)
	}

	return bleve.NewConjunctionQuery(owner, bleve.NewDisjunctionQuery(textQueries...))
}
