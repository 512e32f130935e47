package store

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"papertrade-dash/internal/common"

	"go.etcd.io/bbolt"
)

const (
	equityBucket = "equity" // Bucket name for daily equity snapshots
	tradesBucket = "trades" // Bucket name for trade records
)

// Archive is a BoltDB mirror of the ingested equity and trade series.
// It gives the report generator efficient date-range queries over history
// that may span far more than the dashboard's lookback window.
type Archive struct {
	db *bbolt.DB
}

// OpenArchive opens (or creates) the archive database under dataPath and
// ensures both buckets exist.
func OpenArchive(dataPath string) (*Archive, error) {
	dbPath := filepath.Join(dataPath, "paperdash-archive.db")

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(equityBucket)); err != nil {
			return fmt.Errorf("create equity bucket: %w", err)
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(tradesBucket)); err != nil {
			return fmt.Errorf("create trades bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Archive{db: db}, nil
}

// Close closes the underlying database.
func (a *Archive) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// PutEquity stores one daily equity point, keyed by calendar date.
// Writing the same date again overwrites the previous value, which is
// exactly the last-write-wins rule used when aggregating daily logs.
func (a *Archive) PutEquity(point EquityPoint) error {
	return a.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(equityBucket))

		data, err := json.Marshal(point)
		if err != nil {
			return fmt.Errorf("marshal equity point: %w", err)
		}

		return b.Put([]byte(point.Date.Format(common.DateFormat)), data)
	})
}

// PutTrade stores one trade record. Trades share calendar dates, so keys
// get a per-bucket sequence suffix to keep them distinct while preserving
// date order.
func (a *Archive) PutTrade(trade Trade) error {
	return a.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(tradesBucket))

		data, err := json.Marshal(trade)
		if err != nil {
			return fmt.Errorf("marshal trade: %w", err)
		}

		seq, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("trade sequence: %w", err)
		}

		key := fmt.Sprintf("%s_%09d", trade.Date.Format(common.DateFormat), seq)
		return b.Put([]byte(key), data)
	})
}

// IngestSnapshot mirrors a loaded equity series and trade list into the
// archive in one pass.
func (a *Archive) IngestSnapshot(series []EquityPoint, trades []Trade) error {
	for _, point := range series {
		if err := a.PutEquity(point); err != nil {
			return err
		}
	}
	for _, trade := range trades {
		if err := a.PutTrade(trade); err != nil {
			return err
		}
	}
	return nil
}

// EquityRange retrieves equity points between start and end inclusive,
// ordered by date. Malformed stored records are skipped.
func (a *Archive) EquityRange(start, end time.Time) ([]EquityPoint, error) {
	var points []EquityPoint

	err := a.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(equityBucket)).Cursor()

		startKey := []byte(start.Format(common.DateFormat))
		endKey := []byte(end.Format(common.DateFormat))

		for k, v := c.Seek(startKey); k != nil && string(k[:len(endKey)]) <= string(endKey); k, v = c.Next() {
			var point EquityPoint
			if err := json.Unmarshal(v, &point); err != nil {
				continue // Skip malformed records
			}
			points = append(points, point)
		}

		return nil
	})

	return points, err
}

// TradesRange retrieves trades whose date falls between start and end
// inclusive, in insertion order within each date. Malformed stored
// records are skipped.
func (a *Archive) TradesRange(start, end time.Time) ([]Trade, error) {
	var trades []Trade

	err := a.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(tradesBucket)).Cursor()

		startKey := []byte(start.Format(common.DateFormat))
		endDate := end.Format(common.DateFormat)

		for k, v := c.Seek(startKey); k != nil && string(k[:len(endDate)]) <= endDate; k, v = c.Next() {
			var trade Trade
			if err := json.Unmarshal(v, &trade); err != nil {
				continue // Skip malformed records
			}
			trades = append(trades, trade)
		}

		return nil
	})

	return trades, err
}
