package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/domain"
	"fintrack/internal/repository"
	"fintrack/internal/storage"
)

// Export describes a CSV statement stored in object storage.
type Export struct {
	Key          string
	Location     string
	URL          string
	Transactions int
	Size         int64
	CreatedAt    time.Time
}

// ExportOptions configures where statements are written.
type ExportOptions struct {
	Bucket    string
	KeyPrefix string
	URLExpiry time.Duration
}

// ExportService writes a user's ledger as a CSV statement to object storage.
type ExportService interface {
	Export(ctx context.Context, ownerID int64) (*Export, error)
	List(ctx context.Context, ownerID int64) ([]Export, error)
	Purge(ctx context.Context, ownerID int64) error
}

type exportService struct {
	txs   repository.TransactionRepository
	store storage.Service
	opts  ExportOptions
	now   func() time.Time
}

func NewExportService(txs repository.TransactionRepository, store storage.Service, opts ExportOptions) ExportService {
	if opts.URLExpiry <= 0 {
		opts.URLExpiry = 15 * time.Minute
	}
	opts.KeyPrefix = strings.Trim(opts.KeyPrefix, "/")
	return &exportService{
		txs:   txs,
		store: store,
		opts:  opts,
		now:   time.Now,
	}
}

func (s *exportService) ownerPrefix(ownerID int64) string {
	return path.Join(s.opts.KeyPrefix, strconv.FormatInt(ownerID, 10)) + "/"
}

func (s *exportService) Export(ctx context.Context, ownerID int64) (*Export, error) {
	txs, err := s.txs.Query(ctx, ownerID, repository.TransactionFilter{})
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := WriteStatement(&buf, txs); err != nil {
		return nil, err
	}
	size := int64(buf.Len())

	createdAt := s.now().UTC()
	key := s.ownerPrefix(ownerID) + fmt.Sprintf("%s-%s.csv", createdAt.Format("20060102T150405Z"), uuid.NewString())
	location, err := s.store.Upload(ctx, s.opts.Bucket, key, &buf, "text/csv")
	if err != nil {
		return nil, fmt.Errorf("upload statement: %w", err)
	}

	url, err := s.store.GetObjectURL(ctx, s.opts.Bucket, key, s.opts.URLExpiry)
	if err != nil {
		return nil, err
	}

	return &Export{
		Key:          key,
		Location:     location,
		URL:          url,
		Transactions: len(txs),
		Size:         size,
		CreatedAt:    createdAt,
	}, nil
}

// List returns the owner's stored statements, newest first.
func (s *exportService) List(ctx context.Context, ownerID int64) ([]Export, error) {
	objects, err := s.store.ListObjects(ctx, s.opts.Bucket, s.ownerPrefix(ownerID))
	if err != nil {
		return nil, err
	}

	exports := make([]Export, 0, len(objects))
	for _, obj := range objects {
		url, err := s.store.GetObjectURL(ctx, s.opts.Bucket, obj.Key, s.opts.URLExpiry)
		if err != nil {
			return nil, err
		}
		exp := Export{
			Key:      obj.Key,
			Location: fmt.Sprintf("s3://%s/%s", s.opts.Bucket, obj.Key),
			URL:      url,
			Size:     obj.Size,
		}
		if obj.LastModified != nil {
			exp.CreatedAt = obj.LastModified.UTC()
		}
		exports = append(exports, exp)
	}

	sort.SliceStable(exports, func(i, j int) bool {
		return exports[i].Key > exports[j].Key
	})
	return exports, nil
}

func (s *exportService) Purge(ctx context.Context, ownerID int64) error {
	return s.store.DeletePrefix(ctx, s.opts.Bucket, s.ownerPrefix(ownerID))
}

var statementHeader = []string{"id", "date", "kind", "category", "description", "amount"}

// WriteStatement encodes transactions as CSV with a header row.
func WriteStatement(w io.Writer, txs []domain.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(statementHeader); err != nil {
		return fmt.Errorf("write statement header: %w", err)
	}
	for _, tx := range txs {
		record := []string{
			strconv.FormatInt(tx.ID, 10),
			tx.Date.String(),
			string(tx.Kind),
			tx.Category,
			tx.Description,
			tx.Amount.StringFixed(2),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write statement row %d: %w", tx.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush statement: %w", err)
	}
	return nil
}
