// Package domain holds the dashboard read model and the pure functions
// that derive it from raw wiki data.
package domain

import "time"

// WikiUser is an editor account as reported by the query API.
// Immutable once fetched within a cache window.
type WikiUser struct {
	Username         string    `json:"username"`
	UserID           int64     `json:"userId"`
	RegistrationDate time.Time `json:"registrationDate"`
	EditCount        int       `json:"editCount"`
	Groups           []string  `json:"groups"`
}

// Contribution is a single classified edit.
type Contribution struct {
	RevisionID   int64            `json:"revisionId"`
	ArticleTitle string           `json:"articleTitle"`
	ArticleURL   string           `json:"articleUrl"`
	Timestamp    time.Time        `json:"timestamp"`
	Type         ContributionType `json:"type"`
	ByteDiff     int              `json:"byteDiff"`
	Summary      string           `json:"summary"`
	IsMinor      bool             `json:"isMinor"`
	Tags         []string         `json:"tags"`
}

// EditorStats aggregates an editor's activity.
type EditorStats struct {
	TotalEdits      int             `json:"totalEdits"`
	ArticlesCreated int             `json:"articlesCreated"`
	MajorExpansions int             `json:"majorExpansions"`
	MinorEdits      int             `json:"minorEdits"`
	TalkPagePosts   int             `json:"talkPagePosts"`
	RecentActivity  []DailyActivity `json:"recentActivity"`
}

// DailyActivity is one calendar day with at least one contribution.
type DailyActivity struct {
	Date       string `json:"date"` // YYYY-MM-DD, UTC
	EditCount  int    `json:"editCount"`
	BytesAdded int    `json:"bytesAdded"`
}

// EditorDashboard is the aggregate root handed to the UI. It is created
// fresh on every refresh and replaced wholesale, never mutated in place.
// Drafts, Tasks and FocusAreas belong to outside collaborators; this core
// carries them empty.
type EditorDashboard struct {
	User                WikiUser         `json:"user"`
	Stats               EditorStats      `json:"stats"`
	RecentContributions []Contribution   `json:"recentContributions"`
	ArticleViews        map[string]int64 `json:"articleViews,omitempty"`
	Drafts              []string         `json:"drafts"`
	Tasks               []string         `json:"tasks"`
	FocusAreas          []string         `json:"focusAreas"`
	GeneratedAt         time.Time        `json:"generatedAt"`
}
