package application

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"sync"

	"ventasWs/internal/modules/livesync/domain"
	realtime "ventasWs/internal/modules/realtime/domain"
	"ventasWs/internal/shared/normalization"
)

// Record is one list row as decoded from JSON.
type Record = map[string]any

// Predicate selects the rows of the displayed view.
type Predicate func(Record) bool

type ListState int

const (
	ListLoading ListState = iota
	ListReady
)

func (s ListState) String() string {
	if s == ListReady {
		return "ready"
	}
	return "loading"
}

type ListOption func(*ReconcilingList)

// WithAppend adds created rows at the end instead of the front.
func WithAppend() ListOption {
	return func(l *ReconcilingList) { l.appendNew = true }
}

// WithPolicy overrides the identifier field and delete handling.
func WithPolicy(policy realtime.EntityPolicy) ListOption {
	return func(l *ReconcilingList) {
		policy.EntityType = normalization.CanonicalEntity(policy.EntityType)
		l.policy = policy
	}
}

// ReconcilingList keeps a working copy of one entity type consistent with the
// server using change events only. Events are merged into the full list in
// arrival order; the filtered view is derived from it after every change.
// Events received before Load are buffered and replayed on Load.
type ReconcilingList struct {
	mu        sync.Mutex
	policy    realtime.EntityPolicy
	appendNew bool
	state     ListState
	items     []Record
	pending   []realtime.ChangeEvent
	filter    Predicate
	search    string
	fields    []string
	view      []Record
	onChange  func(view []Record)
}

func NewReconcilingList(entityType string, opts ...ListOption) *ReconcilingList {
	l := &ReconcilingList{policy: realtime.PolicyFor(entityType)}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *ReconcilingList) Policy() realtime.EntityPolicy { return l.policy }

// OnChange registers fn to receive the displayed view after every change. It
// is called outside the list's lock.
func (l *ReconcilingList) OnChange(fn func(view []Record)) {
	l.mu.Lock()
	l.onChange = fn
	l.mu.Unlock()
}

// Load replaces the list with records, marks it ready and replays the events
// buffered while loading.
func (l *ReconcilingList) Load(records []Record) {
	l.mu.Lock()
	l.items = make([]Record, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		key, ok := l.keyOf(rec)
		if !ok {
			slog.Debug("reconciling list row without identifier skipped", slog.String("entity", l.policy.EntityType))
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		l.items = append(l.items, maps.Clone(rec))
	}
	l.state = ListReady
	pending := l.pending
	l.pending = nil
	for _, event := range pending {
		l.applyLocked(event)
	}
	notify := l.refreshLocked()
	l.mu.Unlock()
	notify()
}

// Handle lets the list subscribe to a topic registry directly.
func (l *ReconcilingList) Handle(event realtime.ChangeEvent) error {
	l.Apply(event)
	return nil
}

// Apply merges event and reports whether the list changed. Events for other
// entity types and malformed payloads are ignored.
func (l *ReconcilingList) Apply(event realtime.ChangeEvent) bool {
	if event.Topic() != l.policy.EntityType {
		return false
	}
	l.mu.Lock()
	if l.state == ListLoading {
		l.pending = append(l.pending, event)
		l.mu.Unlock()
		return false
	}
	changed := l.applyLocked(event)
	notify := func() {}
	if changed {
		notify = l.refreshLocked()
	}
	l.mu.Unlock()
	notify()
	return changed
}

func (l *ReconcilingList) applyLocked(event realtime.ChangeEvent) bool {
	switch event.Action {
	case realtime.ActionCreated:
		rec, ok := toRecord(event.Data)
		if !ok {
			return false
		}
		return l.insertLocked(rec)
	case realtime.ActionUpdated:
		rec, ok := toRecord(event.Data)
		if !ok {
			return false
		}
		key, ok := l.keyOf(rec)
		if !ok {
			return false
		}
		return l.mergeLocked(key, rec)
	case realtime.ActionDeleted:
		return l.deleteLocked(event)
	default:
		return false
	}
}

func (l *ReconcilingList) insertLocked(rec Record) bool {
	key, ok := l.keyOf(rec)
	if !ok || l.indexLocked(key) >= 0 {
		return false
	}
	if l.appendNew {
		l.items = append(l.items, maps.Clone(rec))
	} else {
		l.items = append([]Record{maps.Clone(rec)}, l.items...)
	}
	return true
}

func (l *ReconcilingList) mergeLocked(key string, fields Record) bool {
	idx := l.indexLocked(key)
	if idx < 0 {
		return false
	}
	merged := maps.Clone(l.items[idx])
	maps.Copy(merged, fields)
	l.items[idx] = merged
	return true
}

func (l *ReconcilingList) removeLocked(key string) bool {
	idx := l.indexLocked(key)
	if idx < 0 {
		return false
	}
	l.items = append(l.items[:idx:idx], l.items[idx+1:]...)
	return true
}

// deleteLocked applies the entity's delete policy. Soft deletes keep the row
// with the active flag cleared; removes drop it. Without a registered policy
// the payload decides: a record is a soft delete, a bare identifier a remove.
func (l *ReconcilingList) deleteLocked(event realtime.ChangeEvent) bool {
	rec, hasRecord := toRecord(event.Data)
	key, ok := normalization.IDKey(event.ID)
	if !ok && hasRecord {
		key, ok = l.keyOf(rec)
	}
	if !ok {
		if k, isID := normalization.IDKey(event.Data); isID {
			key, ok = k, true
		}
	}
	if !ok {
		return false
	}

	soft := false
	switch l.policy.Delete {
	case realtime.DeleteSoft:
		soft = l.policy.ActiveField != ""
	case realtime.DeleteByShape:
		soft = hasRecord && l.policy.ActiveField != ""
	}
	if !soft {
		return l.removeLocked(key)
	}

	fields := Record{}
	if hasRecord {
		fields = rec
	}
	fields[l.policy.ActiveField] = false
	return l.mergeLocked(key, fields)
}

// Upsert applies a local optimistic write: an existing row is merged, a new
// one inserted. A later event for the same row is reconciled normally.
func (l *ReconcilingList) Upsert(value any) bool {
	rec, ok := toRecord(value)
	if !ok {
		return false
	}
	key, ok := l.keyOf(rec)
	if !ok {
		return false
	}
	l.mu.Lock()
	changed := l.mergeLocked(key, rec) || l.insertLocked(rec)
	notify := func() {}
	if changed {
		notify = l.refreshLocked()
	}
	l.mu.Unlock()
	notify()
	return changed
}

// Remove drops the row identified by id.
func (l *ReconcilingList) Remove(id any) bool {
	key, ok := normalization.IDKey(id)
	if !ok {
		return false
	}
	l.mu.Lock()
	changed := l.removeLocked(key)
	notify := func() {}
	if changed {
		notify = l.refreshLocked()
	}
	l.mu.Unlock()
	notify()
	return changed
}

// SetFilter installs the view predicate; nil shows every row.
func (l *ReconcilingList) SetFilter(pred Predicate) {
	l.mu.Lock()
	l.filter = pred
	notify := l.refreshLocked()
	l.mu.Unlock()
	notify()
}

// SetSearch filters the view to rows whose fields contain term, ignoring
// case. With no fields every string value of the row is searched.
func (l *ReconcilingList) SetSearch(term string, fields ...string) {
	l.mu.Lock()
	l.search = strings.ToLower(strings.TrimSpace(term))
	l.fields = fields
	notify := l.refreshLocked()
	l.mu.Unlock()
	notify()
}

func (l *ReconcilingList) matchesLocked(rec Record) bool {
	if l.filter != nil && !l.filter(rec) {
		return false
	}
	if l.search == "" {
		return true
	}
	if len(l.fields) == 0 {
		for _, v := range rec {
			if s, ok := v.(string); ok && strings.Contains(strings.ToLower(s), l.search) {
				return true
			}
		}
		return false
	}
	for _, field := range l.fields {
		if v, ok := rec[field]; ok && v != nil && strings.Contains(strings.ToLower(fmt.Sprint(v)), l.search) {
			return true
		}
	}
	return false
}

// refreshLocked recomputes the view and returns the pending change callback.
func (l *ReconcilingList) refreshLocked() func() {
	view := make([]Record, 0, len(l.items))
	for _, rec := range l.items {
		if l.matchesLocked(rec) {
			view = append(view, rec)
		}
	}
	l.view = view
	fn := l.onChange
	if fn == nil || l.state != ListReady {
		return func() {}
	}
	snapshot := cloneRecords(view)
	return func() { fn(snapshot) }
}

func (l *ReconcilingList) indexLocked(key string) int {
	for i, rec := range l.items {
		if k, ok := l.keyOf(rec); ok && k == key {
			return i
		}
	}
	return -1
}

func (l *ReconcilingList) keyOf(rec Record) (string, bool) {
	return normalization.IDKey(rec[l.policy.IDField])
}

// Items returns a copy of the full, unfiltered list.
func (l *ReconcilingList) Items() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	return cloneRecords(l.items)
}

// View returns a copy of the filtered rows.
func (l *ReconcilingList) View() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	return cloneRecords(l.view)
}

// Page returns one page of the view and the view's total size. A size of zero
// or less returns the whole view.
func (l *ReconcilingList) Page(page, size int) ([]Record, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	total := len(l.view)
	if size <= 0 {
		return cloneRecords(l.view), total
	}
	if page < 1 {
		page = 1
	}
	start := min((page-1)*size, total)
	end := min(start+size, total)
	return cloneRecords(l.view[start:end]), total
}

func (l *ReconcilingList) Find(id any) (Record, bool) {
	key, ok := normalization.IDKey(id)
	if !ok {
		return nil, false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if idx := l.indexLocked(key); idx >= 0 {
		return maps.Clone(l.items[idx]), true
	}
	return nil, false
}

func (l *ReconcilingList) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

func (l *ReconcilingList) State() ListState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func cloneRecords(in []Record) []Record {
	out := make([]Record, len(in))
	for i, rec := range in {
		out[i] = maps.Clone(rec)
	}
	return out
}

// toRecord accepts decoded JSON objects, raw JSON, and structs that marshal
// to an object. Anything else, including bare identifiers, is not a record.
func toRecord(value any) (Record, bool) {
	switch typed := value.(type) {
	case nil:
		return nil, false
	case map[string]any:
		if typed == nil {
			return nil, false
		}
		return maps.Clone(typed), true
	case json.RawMessage:
		return decodeRecord(typed)
	case []byte:
		return decodeRecord(typed)
	case string, bool, float64, float32, int, int32, int64, uint, uint32, uint64, json.Number:
		return nil, false
	default:
		raw, err := json.Marshal(typed)
		if err != nil {
			return nil, false
		}
		return decodeRecord(raw)
	}
}

func decodeRecord(raw []byte) (Record, bool) {
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil || rec == nil {
		return nil, false
	}
	return rec, true
}

var _ domain.Handler = (*ReconcilingList)(nil)
