package curated

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
)

const textField = "text"

// Hit is a search result pointing at a dataset row.
type Hit struct {
	Row    int               `json:"row"`
	Score  float64           `json:"score"`
	Fields map[string]string `json:"fields"`
}

// SearchOptions tune a search. Nil means exact term matching with a limit of 20.
type SearchOptions struct {
	Limit int
	// Fuzzy matches terms within Fuzziness edits (default 1).
	Fuzzy     bool
	Fuzziness int
}

// Index is a bleve full-text index over the rows of a Dataset.
type Index struct {
	index   bleve.Index
	dataset *Dataset
}

func newMapping() *mapping.IndexMappingImpl {
	im := bleve.NewIndexMapping()
	doc := bleve.NewDocumentMapping()
	doc.Dynamic = false
	text := bleve.NewTextFieldMapping()
	text.Analyzer = standard.Name
	text.Store = false
	doc.AddFieldMappingsAt(textField, text)
	im.DefaultMapping = doc
	return im
}

// NewIndex indexes ds. An empty path builds an in-memory index; otherwise the index at
// path is opened (or created) and its rows are rewritten from ds.
func NewIndex(ctx context.Context, path string, ds *Dataset) (*Index, error) {
	var (
		index bleve.Index
		err   error
	)
	switch {
	case path == "":
		index, err = bleve.NewMemOnly(newMapping())
	default:
		if _, statErr := os.Stat(path); statErr == nil {
			index, err = bleve.Open(path)
		} else {
			index, err = bleve.New(path, newMapping())
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open curated index: %w", err)
	}
	idx := &Index{index: index, dataset: ds}
	if err := idx.rebuild(ctx); err != nil {
		_ = index.Close()
		return nil, err
	}
	return idx, nil
}

func (x *Index) rebuild(ctx context.Context) error {
	existing, err := x.index.DocCount()
	if err != nil {
		return err
	}
	batch := x.index.NewBatch()
	for i, row := range x.dataset.Rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := batch.Index(strconv.Itoa(i), map[string]interface{}{textField: strings.Join(row, " ")}); err != nil {
			return fmt.Errorf("failed to index row %d: %w", i, err)
		}
	}
	for i := uint64(len(x.dataset.Rows)); i < existing; i++ {
		batch.Delete(strconv.FormatUint(i, 10))
	}
	if err := x.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to write curated index: %w", err)
	}
	return nil
}

// Dataset returns the indexed dataset.
func (x *Index) Dataset() *Dataset {
	return x.dataset
}

// Search returns rows matching query, best first.
func (x *Index) Search(ctx context.Context, query string, opts *SearchOptions) ([]Hit, error) {
	limit, fuzzy, fuzziness := 20, false, 1
	if opts != nil {
		if opts.Limit > 0 {
			limit = opts.Limit
		}
		fuzzy = opts.Fuzzy
		if opts.Fuzziness > 0 {
			fuzziness = opts.Fuzziness
		}
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return []Hit{}, nil
	}

	var q blevequery.Query
	if fuzzy {
		q = fuzzyQuery(query, fuzziness)
	} else {
		mq := bleve.NewMatchQuery(query)
		mq.SetField(textField)
		q = mq
	}
	req := bleve.NewSearchRequest(q)
	req.Size = limit
	res, err := x.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("curated search failed: %w", err)
	}
	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		row, err := strconv.Atoi(h.ID)
		if err != nil || row >= x.dataset.Len() {
			continue
		}
		hits = append(hits, Hit{Row: row, Score: h.Score, Fields: x.dataset.Record(row)})
	}
	return hits, nil
}

// fuzzyQuery ORs a fuzzy term query per lowercase token.
func fuzzyQuery(query string, fuzziness int) blevequery.Query {
	terms := strings.Fields(strings.ToLower(query))
	queries := make([]blevequery.Query, 0, len(terms))
	for _, term := range terms {
		fq := bleve.NewFuzzyQuery(term)
		fq.SetFuzziness(fuzziness)
		fq.SetField(textField)
		queries = append(queries, fq)
	}
	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewDisjunctionQuery(queries...)
}

// DocCount returns the number of indexed rows.
func (x *Index) DocCount() (uint64, error) {
	return x.index.DocCount()
}

// Close closes the bleve index.
func (x *Index) Close() error {
	return x.index.Close()
}
