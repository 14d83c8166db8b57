package clickhouse

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"contract-risk-lab/internal/domain"
	"contract-risk-lab/internal/storage"
)

// EdgeStore implements storage.EdgeStore using ClickHouse.
type EdgeStore struct {
	conn *Conn
}

// NewEdgeStore creates a new EdgeStore.
func NewEdgeStore(conn *Conn) *EdgeStore {
	return &EdgeStore{conn: conn}
}

// Compile-time interface check.
var _ storage.EdgeStore = (*EdgeStore)(nil)

type snapshotKey struct {
	chain      domain.Chain
	center     string
	analyzedAt int64
}

type pairKey struct {
	from, to string
}

// InsertBulk appends edge records. Fails entire batch on duplicate
// (chain, center, analyzed_at, from, to).
// MergeTree does not enforce keys, so duplicates are checked before the insert.
func (s *EdgeStore) InsertBulk(ctx context.Context, edges []domain.EdgeRecord) error {
	if len(edges) == 0 {
		return nil
	}

	batchPairs := make(map[snapshotKey]map[pairKey]struct{})
	for _, e := range edges {
		if e.Center == "" || e.From == "" || e.To == "" {
			return storage.ErrInvalidInput
		}
		sk := snapshotKey{e.Chain, e.Center, e.AnalyzedAt}
		pairs, ok := batchPairs[sk]
		if !ok {
			pairs = make(map[pairKey]struct{})
			batchPairs[sk] = pairs
		}
		pk := pairKey{e.From, e.To}
		if _, exists := pairs[pk]; exists {
			return storage.ErrDuplicateKey
		}
		pairs[pk] = struct{}{}
	}

	for sk, pairs := range batchPairs {
		existing, err := s.snapshotPairs(ctx, sk)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		for pk := range pairs {
			if _, exists := existing[pk]; exists {
				return storage.ErrDuplicateKey
			}
		}
	}

	start := time.Now()
	err := s.send(ctx, edges)
	observe("insert_edges", start, err)
	return err
}

func (s *EdgeStore) send(ctx context.Context, edges []domain.EdgeRecord) error {
	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO interaction_edges (
			chain, center, from_address, to_address, tx_count, total_value, tx_types, analyzed_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, e := range edges {
		value := "0"
		if e.TotalValue != nil {
			value = e.TotalValue.String()
		}
		kinds := make([]string, len(e.TxTypes))
		for i, k := range e.TxTypes {
			kinds[i] = string(k)
		}
		err = batch.Append(
			string(e.Chain), e.Center, e.From, e.To,
			uint32(e.Count), value, kinds, e.AnalyzedAt,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// snapshotPairs returns the (from, to) pairs already stored for a snapshot.
func (s *EdgeStore) snapshotPairs(ctx context.Context, sk snapshotKey) (map[pairKey]struct{}, error) {
	query := `
		SELECT from_address, to_address
		FROM interaction_edges
		WHERE chain = ? AND center = ? AND analyzed_at = ?
	`
	rows, err := s.conn.Query(ctx, query, string(sk.chain), sk.center, sk.analyzedAt)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[pairKey]struct{})
	for rows.Next() {
		var pk pairKey
		if err := rows.Scan(&pk.from, &pk.to); err != nil {
			return nil, err
		}
		out[pk] = struct{}{}
	}
	return out, rows.Err()
}

const edgeColumns = `chain, center, from_address, to_address, tx_count, total_value, tx_types, analyzed_at`

// GetSnapshot retrieves the edges of one analysis, ordered by count DESC.
func (s *EdgeStore) GetSnapshot(ctx context.Context, chain domain.Chain, center string, analyzedAt int64) ([]domain.EdgeRecord, error) {
	query := `
		SELECT ` + edgeColumns + `
		FROM interaction_edges
		WHERE chain = ? AND center = ? AND analyzed_at = ?
		ORDER BY tx_count DESC, from_address ASC, to_address ASC
	`

	start := time.Now()
	rows, err := s.conn.Query(ctx, query, string(chain), center, analyzedAt)
	observe("get_edge_snapshot", start, err)
	if err != nil {
		return nil, fmt.Errorf("query edge snapshot: %w", err)
	}
	defer rows.Close()

	return scanEdges(rows)
}

// GetByCounterparty retrieves every edge touching addr across all centers, newest first.
func (s *EdgeStore) GetByCounterparty(ctx context.Context, chain domain.Chain, addr string) ([]domain.EdgeRecord, error) {
	query := `
		SELECT ` + edgeColumns + `
		FROM interaction_edges
		WHERE chain = ? AND (from_address = ? OR to_address = ?)
		ORDER BY analyzed_at DESC, tx_count DESC
	`

	start := time.Now()
	rows, err := s.conn.Query(ctx, query, string(chain), addr, addr)
	observe("get_edges_by_counterparty", start, err)
	if err != nil {
		return nil, fmt.Errorf("query edges by counterparty: %w", err)
	}
	defer rows.Close()

	return scanEdges(rows)
}

func scanEdges(rows chRows) ([]domain.EdgeRecord, error) {
	var edges []domain.EdgeRecord

	for rows.Next() {
		var (
			e     domain.EdgeRecord
			chain string
			count uint32
			value string
			kinds []string
		)
		err := rows.Scan(&chain, &e.Center, &e.From, &e.To, &count, &value, &kinds, &e.AnalyzedAt)
		if err != nil {
			return nil, fmt.Errorf("scan edge row: %w", err)
		}

		total, ok := new(big.Int).SetString(value, 10)
		if !ok {
			return nil, fmt.Errorf("invalid edge value %q", value)
		}
		e.Chain = domain.Chain(chain)
		e.Count = int(count)
		e.TotalValue = total
		for _, k := range kinds {
			e.TxTypes = append(e.TxTypes, domain.TxKind(k))
		}
		edges = append(edges, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate edge rows: %w", err)
	}
	return edges, nil
}
