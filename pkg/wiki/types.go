package wiki

// DTOs for the query API. Field names follow the wire format
// (formatversion=2).

// UserDTO is one entry of list=users.
type UserDTO struct {
	UserID       int64    `json:"userid"`
	Name         string   `json:"name"`
	EditCount    int      `json:"editcount"`
	Registration string   `json:"registration"`
	Groups       []string `json:"groups"`
	Missing      bool     `json:"missing"`
}

// ContributionDTO is one entry of list=usercontribs.
type ContributionDTO struct {
	RevID     int64    `json:"revid"`
	ParentID  int64    `json:"parentid"`
	NS        int      `json:"ns"`
	Title     string   `json:"title"`
	Timestamp string   `json:"timestamp"`
	Comment   string   `json:"comment"`
	Minor     bool     `json:"minor"`
	SizeDiff  int      `json:"sizediff"`
	Tags      []string `json:"tags"`
}

// RecentChangeDTO is one entry of list=recentchanges.
type RecentChangeDTO struct {
	Type      string `json:"type"`
	NS        int    `json:"ns"`
	Title     string `json:"title"`
	RevID     int64  `json:"revid"`
	OldLen    int    `json:"oldlen"`
	NewLen    int    `json:"newlen"`
	User      string `json:"user"`
	Timestamp string `json:"timestamp"`
	Comment   string `json:"comment"`
}

// PageDTO is one entry of list=allpages.
type PageDTO struct {
	PageID int64  `json:"pageid"`
	NS     int    `json:"ns"`
	Title  string `json:"title"`
}

// LogEventDTO is one entry of list=logevents.
type LogEventDTO struct {
	LogID     int64  `json:"logid"`
	Type      string `json:"type"`
	Action    string `json:"action"`
	Title     string `json:"title"`
	Timestamp string `json:"timestamp"`
	Comment   string `json:"comment"`
}

// queryEnvelope is the response wrapper shared by every query action.
// The continue block, when present, is echoed back verbatim as request
// parameters to fetch the next page.
type queryEnvelope struct {
	Query    queryBody      `json:"query"`
	Continue map[string]any `json:"continue"`
}

type queryBody struct {
	Users         []UserDTO         `json:"users"`
	UserContribs  []ContributionDTO `json:"usercontribs"`
	RecentChanges []RecentChangeDTO `json:"recentchanges"`
	AllPages      []PageDTO         `json:"allpages"`
	LogEvents     []LogEventDTO     `json:"logevents"`
}
