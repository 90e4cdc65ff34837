package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/docs-extractor/constants"
	"github.com/joseph-ayodele/docs-extractor/internal/common"
	"github.com/joseph-ayodele/docs-extractor/internal/entity"
)

// SaveRequest wraps the validated fields and the stored upload location.
type SaveRequest struct {
	Fields   entity.DocumentFields
	FilePath string // empty -> NULL
}

type DocumentRepository interface {
	// Save inserts one row in a transaction. It never returns an error:
	// failures roll back and come back as an error Result.
	Save(ctx context.Context, req SaveRequest) entity.Result
	Get(ctx context.Context, docType constants.DocumentType, id int64) (*entity.StoredDocument, error)
	List(ctx context.Context, docType constants.DocumentType) ([]*entity.StoredDocument, error)
}

var insertColumns = []string{
	"vendor_name", "amount", "products", "total_amount",
	"date", "date_defaulted", "created_at", "file_path",
}

var selectColumns = append([]string{"id"}, insertColumns...)

type documentRepository struct {
	db     *DB
	now    func() time.Time
	logger *slog.Logger
}

func NewDocumentRepository(db *DB, logger *slog.Logger) DocumentRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &documentRepository{db: db, now: time.Now, logger: logger}
}

func (r *documentRepository) Save(ctx context.Context, req SaveRequest) entity.Result {
	start := time.Now()
	runID := common.RunIDFromContext(ctx)
	docType := req.Fields.DocumentType

	table, ok := docType.Table()
	if !ok {
		r.logger.Error("db.save.unknown_type", "run_id", runID, "type", docType)
		return entity.Failure(docType, common.UnsupportedTypef("unknown document_type: %q", docType))
	}

	tx, err := r.db.drv.Tx(ctx)
	if err != nil {
		r.logger.Error("db.save.begin_failed", "run_id", runID, "table", table, "error", err)
		return entity.Failure(docType, common.PersistenceError("begin transaction", err))
	}

	id, err := r.insert(ctx, tx, table, req)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			r.logger.Error("db.save.rollback_failed", "run_id", runID, "table", table, "error", rbErr)
		}
		r.logger.Error("db.save.failed", "run_id", runID, "table", table, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return entity.Failure(docType, common.PersistenceError("insert into "+table, err))
	}
	if err := tx.Commit(); err != nil {
		r.logger.Error("db.save.commit_failed", "run_id", runID, "table", table, "error", err)
		return entity.Failure(docType, common.PersistenceError("commit", err))
	}

	res := entity.Success(docType, id)
	res.DateDefaulted = req.Fields.DateDefaulted
	r.logger.Info("db.save.ok",
		"run_id", runID,
		"table", table,
		"id", id,
		"date_defaulted", req.Fields.DateDefaulted,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res
}

func (r *documentRepository) insert(ctx context.Context, tx dialect.Tx, table string, req SaveRequest) (int64, error) {
	f := req.Fields
	products := f.ProductsJSON
	if len(products) == 0 {
		products = []byte("[]")
	}

	query, args := entsql.Dialect(r.db.Dialect()).
		Insert(table).
		Columns(insertColumns...).
		Values(
			nullable(f.VendorName),
			nullable(f.Amount),
			string(products),
			nullable(f.TotalAmount),
			f.Date.UTC(),
			f.DateDefaulted,
			r.now().UTC(),
			nullableString(req.FilePath),
		).
		Returning("id").
		Query()

	rows := &entsql.Rows{}
	if err := tx.Query(ctx, query, args, rows); err != nil {
		return 0, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return 0, err
		}
		return 0, errors.New("insert returned no id")
	}
	var id int64
	if err := rows.Scan(&id); err != nil {
		return 0, err
	}
	return id, rows.Err()
}

func (r *documentRepository) Get(ctx context.Context, docType constants.DocumentType, id int64) (*entity.StoredDocument, error) {
	table, ok := docType.Table()
	if !ok {
		return nil, common.UnsupportedTypef("unknown document_type: %q", docType)
	}
	query, args := entsql.Dialect(r.db.Dialect()).
		Select(selectColumns...).
		From(entsql.Table(table)).
		Where(entsql.EQ("id", id)).
		Query()
	docs, err := r.query(ctx, docType, query, args)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, common.NotFoundf("%s %d not found", docType, id)
	}
	return docs[0], nil
}

func (r *documentRepository) List(ctx context.Context, docType constants.DocumentType) ([]*entity.StoredDocument, error) {
	table, ok := docType.Table()
	if !ok {
		return nil, common.UnsupportedTypef("unknown document_type: %q", docType)
	}
	query, args := entsql.Dialect(r.db.Dialect()).
		Select(selectColumns...).
		From(entsql.Table(table)).
		OrderBy("id").
		Query()
	return r.query(ctx, docType, query, args)
}

func (r *documentRepository) query(ctx context.Context, docType constants.DocumentType, query string, args []any) ([]*entity.StoredDocument, error) {
	rows := &entsql.Rows{}
	if err := r.db.drv.Query(ctx, query, args, rows); err != nil {
		r.logger.Error("db.query.failed", "type", docType, "error", err)
		return nil, common.PersistenceError("query "+docType.String(), err)
	}
	defer rows.Close()

	var out []*entity.StoredDocument
	for rows.Next() {
		var (
			doc      = &entity.StoredDocument{DocumentType: docType}
			products []byte
			date     any
			created  any
			filePath sql.NullString
		)
		if err := rows.Scan(&doc.ID, &doc.VendorName, &doc.Amount, &products, &doc.TotalAmount,
			&date, &doc.DateDefaulted, &created, &filePath); err != nil {
			return nil, common.PersistenceError("scan "+docType.String(), err)
		}
		if err := json.Unmarshal(products, &doc.Products); err != nil {
			return nil, common.PersistenceError(fmt.Sprintf("decode products of %s %d", docType, doc.ID), err)
		}
		var err error
		if doc.Date, err = parseStoredTime(date); err != nil {
			return nil, common.PersistenceError(fmt.Sprintf("decode date of %s %d", docType, doc.ID), err)
		}
		if doc.CreatedAt, err = parseStoredTime(created); err != nil {
			return nil, common.PersistenceError(fmt.Sprintf("decode created_at of %s %d", docType, doc.ID), err)
		}
		if filePath.Valid {
			p := filePath.String
			doc.FilePath = &p
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, common.PersistenceError("iterate "+docType.String(), err)
	}
	return out, nil
}

func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

var storedTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// parseStoredTime reads a timestamp column whichever way the driver returns it.
func parseStoredTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case int64:
		return time.Unix(t, 0).UTC(), nil
	case []byte:
		return parseStoredTime(string(t))
	case string:
		s := strings.TrimSpace(t)
		if i := strings.Index(s, " m="); i > 0 {
			s = s[:i]
		}
		for _, layout := range storedTimeLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognized timestamp %q", t)
	default:
		return time.Time{}, fmt.Errorf("unsupported timestamp type %T", v)
	}
}
