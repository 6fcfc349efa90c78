package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"

	"github.com/slateops/slate/service/approval"
	"github.com/slateops/slate/service/approval/ledger"
)

// Ledger is a filesystem-backed append-only decision ledger built on
// viant/afs. Each record is one JSON document whose name carries a
// zero-padded sequence prefix, so a lexical listing reproduces append order.
// The index of decided task ids is rebuilt from the directory at open time;
// a single-writer mutex makes the duplicate-check-then-append atomic, which
// is sufficient for the single-node deployment this pipeline targets.
type Ledger struct {
	fs      afs.Service
	baseURL string

	mu      sync.Mutex
	nextSeq int
	decided map[string]string // taskID -> record file name
}

// New opens (or creates) a ledger rooted at baseURL.
func New(ctx context.Context, fsService afs.Service, baseURL string) (*Ledger, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("ledger base URL cannot be empty")
	}
	l := &Ledger{
		fs:      fsService,
		baseURL: baseURL,
		decided: make(map[string]string),
	}
	exists, _ := fsService.Exists(ctx, baseURL)
	if !exists {
		if err := fsService.Create(ctx, baseURL, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}
	if err := l.loadIndex(ctx); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Ledger) loadIndex(ctx context.Context) error {
	names, err := l.recordNames(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		taskID, seq, ok := parseName(name)
		if !ok {
			continue
		}
		l.decided[taskID] = name
		if seq >= l.nextSeq {
			l.nextSeq = seq + 1
		}
	}
	return nil
}

// record file names: <8-digit-seq>-<taskID>.json
func recordName(seq int, taskID string) string {
	return fmt.Sprintf("%08d-%s.json", seq, taskID)
}

func parseName(name string) (taskID string, seq int, ok bool) {
	if !strings.HasSuffix(name, ".json") {
		return "", 0, false
	}
	trimmed := strings.TrimSuffix(name, ".json")
	sep := strings.Index(trimmed, "-")
	if sep != 8 {
		return "", 0, false
	}
	if _, err := fmt.Sscanf(trimmed[:sep], "%d", &seq); err != nil {
		return "", 0, false
	}
	return trimmed[sep+1:], seq, true
}

func (l *Ledger) recordNames(ctx context.Context) ([]string, error) {
	objects, err := l.fs.List(ctx, l.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger records: %w", err)
	}
	var names []string
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), ".json") {
			continue
		}
		names = append(names, object.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Append stores a record unless the task was already decided.
func (l *Ledger) Append(ctx context.Context, record *approval.DecisionRecord) error {
	if record == nil || record.TaskID == "" {
		return approval.ErrNotFound
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.decided[record.TaskID]; ok {
		return approval.ErrAlreadyDecided
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal decision %s: %w", record.TaskID, err)
	}
	name := recordName(l.nextSeq, record.TaskID)
	if err := l.fs.Upload(ctx, path.Join(l.baseURL, name), file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write decision %s: %w", record.TaskID, err)
	}
	l.decided[record.TaskID] = name
	l.nextSeq++
	return nil
}

// Get returns the record for taskID, or nil when absent.
func (l *Ledger) Get(ctx context.Context, taskID string) (*approval.DecisionRecord, error) {
	l.mu.Lock()
	name, ok := l.decided[taskID]
	l.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return l.read(ctx, name)
}

// List returns records in append order, optionally filtered by status.
func (l *Ledger) List(ctx context.Context, status approval.Status) ([]*approval.DecisionRecord, error) {
	names, err := l.recordNames(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*approval.DecisionRecord, 0, len(names))
	for _, name := range names {
		record, err := l.read(ctx, name)
		if err != nil {
			return nil, err
		}
		if !ledger.Matches(record, status) {
			continue
		}
		out = append(out, record)
	}
	return out, nil
}

func (l *Ledger) read(ctx context.Context, name string) (*approval.DecisionRecord, error) {
	data, err := l.fs.DownloadWithURL(ctx, path.Join(l.baseURL, name))
	if err != nil {
		return nil, fmt.Errorf("failed to read decision %s: %w", name, err)
	}
	var record approval.DecisionRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal decision %s: %w", name, err)
	}
	return &record, nil
}

var _ ledger.Ledger = (*Ledger)(nil)
