package store

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// TagCount is one entry of the dashboard tag distribution.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// WeekActivity is one bucket of the 8-week dashboard activity chart.
type WeekActivity struct {
	Week      string `json:"week"`
	Notes     int    `json:"notes"`
	Documents int    `json:"documents"`
}

// RecentNote is a lightweight dashboard entry.
type RecentNote struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RecentDocument is a lightweight dashboard entry.
type RecentDocument struct {
	ID           int64     `json:"id"`
	OriginalName string    `json:"original_name"`
	CreatedAt    time.Time `json:"created_at"`
}

// Stats aggregates one owner's dashboard numbers.
type Stats struct {
	TotalNotes      int              `json:"total_notes"`
	TotalDocuments  int              `json:"total_documents"`
	AISummaries     int              `json:"ai_summaries"`
	StorageBytes    int64            `json:"storage_bytes"`
	NotesWithTags   int              `json:"notes_with_tags"`
	TopTags         []TagCount       `json:"top_tags"`
	RecentNotes     []RecentNote     `json:"recent_notes"`
	RecentDocuments []RecentDocument `json:"recent_documents"`
	WeeklyActivity  []WeekActivity   `json:"weekly_activity"`
}

const (
	topTagsLimit  = 8
	recentLimit   = 5
	activityWeeks = 8
)

// StatsFor computes the dashboard aggregate for one owner.
func (s *Store) StatsFor(ctx context.Context, ownerID int64) (*Stats, error) {
	out := &Stats{
		TopTags:         []TagCount{},
		RecentNotes:     []RecentNote{},
		RecentDocuments: []RecentDocument{},
	}

	counts := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(*) FROM notes WHERE user_id = ?`, &out.TotalNotes},
		{`SELECT COUNT(*) FROM documents WHERE user_id = ?`, &out.TotalDocuments},
		{`SELECT COUNT(*) FROM documents WHERE user_id = ? AND summary != ''`, &out.AISummaries},
		{`SELECT COUNT(*) FROM notes WHERE user_id = ? AND tags != '[]'`, &out.NotesWithTags},
	}
	for _, c := range counts {
		if err := s.conn.QueryRowContext(ctx, c.query, ownerID).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("store: stats count: %w", err)
		}
	}

	if err := s.conn.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(file_size), 0) FROM documents WHERE user_id = ?`, ownerID,
	).Scan(&out.StorageBytes); err != nil {
		return nil, fmt.Errorf("store: stats storage: %w", err)
	}

	var err error
	if out.TopTags, err = s.topTags(ctx, ownerID); err != nil {
		return nil, err
	}
	if out.RecentNotes, err = s.recentNotes(ctx, ownerID); err != nil {
		return nil, err
	}
	if out.RecentDocuments, err = s.recentDocuments(ctx, ownerID); err != nil {
		return nil, err
	}
	if out.WeeklyActivity, err = s.weeklyActivity(ctx, ownerID); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) topTags(ctx context.Context, ownerID int64) ([]TagCount, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT tags FROM notes WHERE user_id = ? AND tags != '[]'`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("store: stats tags: %w", err)
	}
	defer rows.Close()

	counter := map[string]int{}
	var order []string
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("store: stats tags scan: %w", err)
		}
		for _, tag := range unmarshalTags(raw) {
			if counter[tag] == 0 {
				order = append(order, tag)
			}
			counter[tag]++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Highest count first, first-seen order on ties.
	sort.SliceStable(order, func(i, j int) bool { return counter[order[i]] > counter[order[j]] })
	if len(order) > topTagsLimit {
		order = order[:topTagsLimit]
	}
	top := make([]TagCount, 0, len(order))
	for _, tag := range order {
		top = append(top, TagCount{Tag: tag, Count: counter[tag]})
	}
	return top, nil
}

func (s *Store) recentNotes(ctx context.Context, ownerID int64) ([]RecentNote, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, title, updated_at FROM notes WHERE user_id = ? ORDER BY updated_at DESC LIMIT ?`,
		ownerID, recentLimit)
	if err != nil {
		return nil, fmt.Errorf("store: stats recent notes: %w", err)
	}
	defer rows.Close()

	out := []RecentNote{}
	for rows.Next() {
		var n RecentNote
		if err := rows.Scan(&n.ID, &n.Title, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("store: stats recent notes scan: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) recentDocuments(ctx context.Context, ownerID int64) ([]RecentDocument, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, original_name, created_at FROM documents WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`,
		ownerID, recentLimit)
	if err != nil {
		return nil, fmt.Errorf("store: stats recent documents: %w", err)
	}
	defer rows.Close()

	out := []RecentDocument{}
	for rows.Next() {
		var d RecentDocument
		if err := rows.Scan(&d.ID, &d.OriginalName, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: stats recent documents scan: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// weeklyActivity buckets note/document creation times into the last 8
// calendar weeks (Monday start), oldest bucket first.
func (s *Store) weeklyActivity(ctx context.Context, ownerID int64) ([]WeekActivity, error) {
	since := weekStart(time.Now().UTC()).AddDate(0, 0, -7*(activityWeeks-1))

	noteTimes, err := s.createdTimes(ctx, "notes", ownerID, since)
	if err != nil {
		return nil, err
	}
	docTimes, err := s.createdTimes(ctx, "documents", ownerID, since)
	if err != nil {
		return nil, err
	}

	buckets := make([]WeekActivity, activityWeeks)
	starts := make([]time.Time, activityWeeks)
	for i := 0; i < activityWeeks; i++ {
		start := since.AddDate(0, 0, 7*i)
		starts[i] = start
		buckets[i] = WeekActivity{Week: start.Format("Jan 02")}
	}
	bucketOf := func(t time.Time) int {
		for i := activityWeeks - 1; i >= 0; i-- {
			if !t.Before(starts[i]) {
				return i
			}
		}
		return -1
	}
	for _, t := range noteTimes {
		if i := bucketOf(t); i >= 0 {
			buckets[i].Notes++
		}
	}
	for _, t := range docTimes {
		if i := bucketOf(t); i >= 0 {
			buckets[i].Documents++
		}
	}
	return buckets, nil
}

func (s *Store) createdTimes(ctx context.Context, table string, ownerID int64, since time.Time) ([]time.Time, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT created_at FROM `+table+` WHERE user_id = ? AND created_at >= ?`, ownerID, since)
	if err != nil {
		return nil, fmt.Errorf("store: stats activity %s: %w", table, err)
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("store: stats activity scan: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func weekStart(t time.Time) time.Time {
	t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday belongs to the preceding Monday-start week
	}
	return t.AddDate(0, 0, -(weekday - 1))
}
