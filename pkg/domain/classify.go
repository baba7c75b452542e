package domain

import "strings"

// ContributionType labels what kind of edit a contribution was.
type ContributionType string

const (
	// TypeTalkPage is an edit in a talk namespace.
	TypeTalkPage ContributionType = "talk_page"

	// TypeRevert undoes a previous edit.
	TypeRevert ContributionType = "revert"

	// TypeNewArticle created the page.
	TypeNewArticle ContributionType = "new_article"

	// TypeMajorExpansion changed the page by more than 1000 bytes.
	TypeMajorExpansion ContributionType = "major_expansion"

	// TypeMinorEdit is everything else.
	TypeMinorEdit ContributionType = "minor_edit"
)

// majorExpansionThreshold is the absolute byte diff beyond which an edit
// counts as a major expansion.
const majorExpansionThreshold = 1000

// talk namespaces: article talk, user talk, project talk.
var talkNamespaces = map[int]bool{1: true, 3: true, 5: true}

// ClassifyContribution derives the contribution type from raw revision
// fields. The priority order matters: a reverted page creation is a
// revert, not a new article.
func ClassifyContribution(ns int, tags []string, parentID int64, sizeDiff int) ContributionType {
	if talkNamespaces[ns] {
		return TypeTalkPage
	}

	for _, tag := range tags {
		lower := strings.ToLower(tag)
		if strings.Contains(lower, "revert") || strings.Contains(lower, "undo") {
			return TypeRevert
		}
	}

	if parentID == 0 {
		return TypeNewArticle
	}

	if sizeDiff > majorExpansionThreshold || sizeDiff < -majorExpansionThreshold {
		return TypeMajorExpansion
	}

	return TypeMinorEdit
}
