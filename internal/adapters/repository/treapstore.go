package repository

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/okian/millcert/internal/domain/model"
	"github.com/okian/millcert/internal/domain/types"
	"github.com/okian/millcert/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: percentage DESC, then millID ASC. "less" means ranks earlier, so
// an in-order traversal yields the leaderboard from best to worst.

const (
	// pctScale keeps nine decimal places of a percentage in an int64.
	pctScale = 1_000_000_000

	defaultMetricsUpdateInterval = 5 * time.Second
)

type pctFP int64

func toFixedPoint(x float64) pctFP {
	switch {
	case math.IsNaN(x):
		return 0
	case x > math.MaxInt64/pctScale:
		return pctFP(math.MaxInt64)
	case x < math.MinInt64/pctScale:
		return pctFP(math.MinInt64)
	}
	return pctFP(math.Round(x * pctScale))
}

// stored is an audit record plus the save sequence used to break ScoredAt ties.
type stored struct {
	rec model.Record
	seq uint64
}

func (a stored) after(b stored) bool {
	if !a.rec.ScoredAt.Equal(b.rec.ScoredAt) {
		return a.rec.ScoredAt.After(b.rec.ScoredAt)
	}
	return a.seq > b.seq
}

// standing is the ranked view of a mill.
type standing struct {
	pct     pctFP
	auditID string
}

// treap node
type node struct {
	id    string
	pct   pctFP
	prio  uint64
	left  *node
	right *node
}

func less(aPct pctFP, aID string, bPct pctFP, bID string) bool {
	if aPct != bPct {
		return aPct > bPct
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	return y
}

func insert(n *node, id string, pct pctFP) *node {
	if n == nil {
		return &node{id: id, pct: pct, prio: rand.Uint64()} //nolint:gosec // treap balance, not security
	}
	if less(pct, id, n.pct, n.id) {
		n.left = insert(n.left, id, pct)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, pct)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	return n
}

func deleteNode(n *node, id string, pct pctFP) *node {
	if n == nil {
		return nil
	}
	switch {
	case pct == n.pct && id == n.id:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, pct)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, pct)
		}
	case less(pct, id, n.pct, n.id):
		n.left = deleteNode(n.left, id, pct)
	default:
		n.right = deleteNode(n.right, id, pct)
	}
	return n
}

// walk visits nodes in leaderboard order until visit returns false.
func walk(n *node, visit func(*node) bool) bool {
	if n == nil {
		return true
	}
	if !walk(n.left, visit) {
		return false
	}
	if !visit(n) {
		return false
	}
	return walk(n.right, visit)
}

// TreapStore keeps every scored audit in memory and ranks mills in a treap.
type TreapStore struct {
	mu      sync.RWMutex
	root    *node
	records map[string]stored              // audit id -> record
	byMill  map[string]map[string]struct{} // mill id -> audit ids
	current map[string]standing            // mill id -> ranked standing
	seq     uint64

	metricsUpdateInterval time.Duration

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopChan chan struct{}
}

// NewTreapStore constructs a treap store and starts its metrics updater.
func NewTreapStore(ctx context.Context, opts ...Option) *TreapStore {
	s := &TreapStore{
		records:               make(map[string]stored),
		byMill:                make(map[string]map[string]struct{}),
		current:               make(map[string]standing),
		metricsUpdateInterval: defaultMetricsUpdateInterval,
		stopChan:              make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.startMetricsUpdater(ctx)
	return s
}

// Close stops the metrics updater.
func (s *TreapStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

// Save implements Store in O(log m) expected time plus a scan of the mill's audits.
func (s *TreapStore) Save(_ context.Context, rec model.Record) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreLatency("save", float64(time.Since(start).Microseconds())/1000)
	}()

	if rec.AuditID == "" || rec.MillID == "" {
		metrics.RecordErrorByComponent("repository", "invalid_record")
		return fmt.Errorf("%w: audit and mill ids are required", ErrInvalidRecord)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	prev, replaced := s.records[rec.AuditID]
	s.records[rec.AuditID] = stored{rec: rec, seq: s.seq}

	if replaced && prev.rec.MillID != rec.MillID {
		delete(s.byMill[prev.rec.MillID], rec.AuditID)
		s.restand(prev.rec.MillID)
	}
	audits, ok := s.byMill[rec.MillID]
	if !ok {
		audits = make(map[string]struct{})
		s.byMill[rec.MillID] = audits
	}
	audits[rec.AuditID] = struct{}{}
	s.restand(rec.MillID)
	return nil
}

// restand recomputes a mill's standing from its latest audit. Must be called
// with s.mu held.
func (s *TreapStore) restand(millID string) {
	if old, ok := s.current[millID]; ok {
		s.root = deleteNode(s.root, millID, old.pct)
		delete(s.current, millID)
	}

	var latest stored
	found := false
	for auditID := range s.byMill[millID] {
		cand := s.records[auditID]
		if !found || cand.after(latest) {
			latest, found = cand, true
		}
	}
	if !found {
		delete(s.byMill, millID)
		return
	}

	pct := toFixedPoint(latest.rec.Result.OverallPercentage)
	s.current[millID] = standing{pct: pct, auditID: latest.rec.AuditID}
	s.root = insert(s.root, millID, pct)
}

// Get implements Store.
func (s *TreapStore) Get(_ context.Context, auditID string) (model.Record, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreLatency("get", float64(time.Since(start).Microseconds())/1000)
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.records[auditID]
	if !ok {
		return model.Record{}, ErrNotFound
	}
	return st.rec, nil
}

// Rank implements Store. Dense ranks require counting distinct percentages
// ahead of the mill, so this walks the prefix of the leaderboard.
func (s *TreapStore) Rank(_ context.Context, millID string) (types.Standing, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreLatency("rank", float64(time.Since(start).Microseconds())/1000)
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.current[millID]; !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return types.Standing{}, ErrMillNotFound
	}

	var (
		out      types.Standing
		rank     int
		last     pctFP
		hasFirst bool
	)
	walk(s.root, func(n *node) bool {
		if !hasFirst || n.pct != last {
			rank++
			last, hasFirst = n.pct, true
		}
		if n.id == millID {
			out = s.standingLocked(n.id)
			out.Rank = rank
			return false
		}
		return true
	})
	return out, nil
}

// TopN implements Store.
func (s *TreapStore) TopN(_ context.Context, n int) ([]types.Standing, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreLatency("top", float64(time.Since(start).Microseconds())/1000)
	}()

	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Standing, 0, min(n, len(s.current)))
	walk(s.root, func(nd *node) bool {
		out = append(out, s.standingLocked(nd.id))
		return len(out) < n
	})
	assignDenseRanks(out)
	return out, nil
}

// Count implements Store.
func (s *TreapStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.current)
}

func (s *TreapStore) standingLocked(millID string) types.Standing {
	cur := s.current[millID]
	rec := s.records[cur.auditID].rec
	return types.Standing{
		MillID:     millID,
		AuditID:    rec.AuditID,
		Percentage: rec.Result.OverallPercentage,
		Category:   string(rec.Result.Category),
	}
}

func (s *TreapStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.mu.RLock()
				records, mills := len(s.records), len(s.current)
				s.mu.RUnlock()
				metrics.UpdateStoreSize(records, mills)
			}
		}
	}()
}
