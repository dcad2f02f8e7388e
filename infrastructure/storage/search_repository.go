//go:generate go run go.uber.org/mock/mockgen -source=search_repository.go -destination=../../mocks/mock_search_repository.go -package=mocks
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"mediscribe/domain"

	"github.com/blugelabs/bluge"
)

// SearchHit is one transcript or note-section fragment matched by a query.
type SearchHit struct {
	ConsultationID domain.ConsultationID
	Kind           string // "transcript" or "section"
	Ref            string // audio ref or section name
	Sequence       uint64
	Text           string
}

type ISearchRepository interface {
	IndexTranscript(cid domain.ConsultationID, ref domain.AudioRef, sequence uint64, text string) error
	IndexSection(cid domain.ConsultationID, section domain.Section, sequence uint64, text string) error
	Search(ctx context.Context, query string, limit int) ([]SearchHit, error)
}

// SearchRepository maintains a Bluge full-text index over transcript text
// and note sections. The index is a derived read model: it can always be
// rebuilt by replaying events, so indexing failures degrade search, never
// the record of care.
type SearchRepository struct {
	writer *bluge.Writer
	config bluge.Config
	log    *slog.Logger
}

func NewSearchRepository(writer *bluge.Writer, config bluge.Config, log *slog.Logger) *SearchRepository {
	return &SearchRepository{writer: writer, config: config, log: log}
}

var _ ISearchRepository = (*SearchRepository)(nil)

func (r *SearchRepository) IndexTranscript(cid domain.ConsultationID, ref domain.AudioRef, sequence uint64, text string) error {
	return r.index(fmt.Sprintf("transcript:%s:%s:%d", cid, ref, sequence),
		cid, "transcript", string(ref), sequence, text)
}

func (r *SearchRepository) IndexSection(cid domain.ConsultationID, section domain.Section, sequence uint64, text string) error {
	// One live document per section: a later update replaces the text the
	// way the projection's last-write-wins rule does.
	return r.index(fmt.Sprintf("section:%s:%s", cid, section),
		cid, "section", string(section), sequence, text)
}

func (r *SearchRepository) index(id string, cid domain.ConsultationID, kind, ref string, sequence uint64, text string) error {
	doc := bluge.NewDocument(id).
		AddField(bluge.NewTextField("text", text).StoreValue()).
		AddField(bluge.NewKeywordField("consultation_id", string(cid)).StoreValue()).
		AddField(bluge.NewKeywordField("kind", kind).StoreValue()).
		AddField(bluge.NewKeywordField("ref", ref).StoreValue()).
		AddField(bluge.NewKeywordField("sequence", strconv.FormatUint(sequence, 10)).StoreValue())

	if err := r.writer.Update(doc.ID(), doc); err != nil {
		return fmt.Errorf("index %s: %w", id, err)
	}
	return nil
}

// Search runs a match query over the indexed text and returns up to limit
// hits, best score first.
func (r *SearchRepository) Search(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	reader, err := bluge.OpenReader(r.config)
	if err != nil {
		return nil, fmt.Errorf("open search reader: %w", err)
	}
	defer func() {
		if err := reader.Close(); err != nil {
			r.log.Warn("Failed to close search reader", "error", err)
		}
	}()

	match := bluge.NewMatchQuery(query).SetField("text")
	request := bluge.NewTopNSearch(limit, match)

	iterator, err := reader.Search(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	var hits []SearchHit
	for {
		next, err := iterator.Next()
		if err != nil {
			return nil, err
		}
		if next == nil {
			return hits, nil
		}

		var hit SearchHit
		err = next.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "text":
				hit.Text = string(value)
			case "consultation_id":
				hit.ConsultationID = domain.ConsultationID(value)
			case "kind":
				hit.Kind = string(value)
			case "ref":
				hit.Ref = string(value)
			case "sequence":
				if seq, err := strconv.ParseUint(string(value), 10, 64); err == nil {
					hit.Sequence = seq
				}
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
}
