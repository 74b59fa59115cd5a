package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"interview-emotion-engine/internal/models"
	"interview-emotion-engine/internal/observability/metrics"
)

const (
	prefixRecord = "record:"
	prefixBlob   = "blob:"
)

// ErrReportNotFound is returned when no report exists for an id or ref.
var ErrReportNotFound = errors.New("report not found")

// Store persists reports in Badger under two key families: the scalar
// record under "record:<id>" and the prediction blob under
// "blob:<ref>". The blob is written first; a record never references a
// blob that is not durable.
type Store struct {
	db      *badger.DB
	log     zerolog.Logger
	metrics *metrics.Metrics
}

// NewStore opens a disk-backed store at the given path.
func NewStore(path string, log zerolog.Logger, m *metrics.Metrics) (*Store, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	opts := badger.DefaultOptions(filepath.Join(path, "badger"))
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}
	return newStore(db, log, m), nil
}

// NewInMemoryStore opens a store that lives only for the process.
// Used by tests and the session simulator.
func NewInMemoryStore(log zerolog.Logger, m *metrics.Metrics) (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory badger database: %w", err)
	}
	return newStore(db, log, m), nil
}

func newStore(db *badger.DB, log zerolog.Logger, m *metrics.Metrics) *Store {
	if m == nil {
		m = metrics.DefaultMetrics
	}
	return &Store{db: db, log: log, metrics: m}
}

// SaveReport persists a finished session in two phases: the prediction
// blob first, then the record referencing it. A record failure after a
// successful blob write leaves an orphan blob, which is logged and
// harmless; the caller keeps the session data and may retry.
func (s *Store) SaveReport(rec models.ReportRecord, preds models.ReportPredictions) (models.ReportRecord, error) {
	ref := uuid.NewString()

	blob, err := json.Marshal(preds)
	if err != nil {
		s.metrics.RecordReportSaveError("blob")
		return models.ReportRecord{}, fmt.Errorf("failed to marshal predictions: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(prefixBlob+ref), blob)
	})
	if err != nil {
		s.metrics.RecordReportSaveError("blob")
		return models.ReportRecord{}, fmt.Errorf("failed to write prediction blob: %w", err)
	}

	rec.PredictionsRef = ref
	data, err := json.Marshal(rec)
	if err == nil {
		err = s.db.Update(func(txn *badger.Txn) error {
			return txn.Set([]byte(prefixRecord+rec.ID), data)
		})
	}
	if err != nil {
		s.metrics.RecordReportSaveError("record")
		s.log.Error().
			Str("reportId", rec.ID).
			Str("orphanBlobRef", ref).
			Err(err).
			Msg("Record write failed after blob write, blob orphaned")
		return models.ReportRecord{}, fmt.Errorf("failed to write report record: %w", err)
	}

	s.metrics.RecordReportSaved()
	s.log.Info().
		Str("reportId", rec.ID).
		Str("predictionsRef", ref).
		Msg("Report persisted")
	return rec, nil
}

// GetRecord loads one report record by id.
func (s *Store) GetRecord(id string) (models.ReportRecord, error) {
	var rec models.ReportRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefixRecord + id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return models.ReportRecord{}, ErrReportNotFound
	}
	if err != nil {
		return models.ReportRecord{}, fmt.Errorf("failed to get report record: %w", err)
	}
	return rec, nil
}

// GetPredictions loads the prediction blob a record references.
func (s *Store) GetPredictions(ref string) (models.ReportPredictions, error) {
	var preds models.ReportPredictions
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefixBlob + ref))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &preds)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return models.ReportPredictions{}, ErrReportNotFound
	}
	if err != nil {
		return models.ReportPredictions{}, fmt.Errorf("failed to get predictions: %w", err)
	}
	return preds, nil
}

// ListRecords returns all report records, newest first.
func (s *Store) ListRecords() ([]models.ReportRecord, error) {
	var records []models.ReportRecord
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(prefixRecord)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var rec models.ReportRecord
				if err := json.Unmarshal(val, &rec); err != nil {
					// Skip corrupt entries rather than failing the whole list.
					s.log.Warn().
						Str("key", strings.TrimPrefix(string(it.Item().Key()), prefixRecord)).
						Err(err).
						Msg("Skipping unreadable report record")
					return nil
				}
				records = append(records, rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list report records: %w", err)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].StartTime.After(records[j].StartTime)
	})
	return records, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
