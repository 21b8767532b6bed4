package store

import (
	"sort"
	"strings"

	"helpdesk-system/models"
)

// Folder names. Each folder is a predicate over the ticket collection;
// every non-closed ticket lands in Inbox plus exactly one of
// Assigned-to-me / Unassigned, and closed tickets only in Closed.
const (
	FolderInbox      = "Inbox"
	FolderAssigned   = "Assigned to me"
	FolderUnassigned = "Unassigned"
	FolderClosed     = "Closed"
)

// FilterByFolder applies the folder predicate. userID is the viewer,
// only consulted for the Assigned-to-me folder. An unknown folder name
// passes everything through.
func FilterByFolder(tickets []models.Ticket, folder string, userID int64) []models.Ticket {
	filtered := make([]models.Ticket, 0, len(tickets))
	for _, t := range tickets {
		switch folder {
		case FolderInbox:
			if t.Status != models.StatusClosed {
				filtered = append(filtered, t)
			}
		case FolderAssigned:
			if t.AssignedTo != nil && *t.AssignedTo == userID && t.Status != models.StatusClosed {
				filtered = append(filtered, t)
			}
		case FolderUnassigned:
			if t.AssignedTo == nil && t.Status != models.StatusClosed {
				filtered = append(filtered, t)
			}
		case FolderClosed:
			if t.Status == models.StatusClosed {
				filtered = append(filtered, t)
			}
		default:
			filtered = append(filtered, t)
		}
	}
	return filtered
}

// SearchTickets keeps tickets whose title, ticket number, submitter
// name, or first message body contains the term, case-insensitively.
// A blank term keeps everything.
func SearchTickets(tickets []models.Ticket, term string) []models.Ticket {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return tickets
	}

	filtered := make([]models.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if strings.Contains(strings.ToLower(t.Title), term) ||
			strings.Contains(strings.ToLower(t.TicketNumber), term) ||
			strings.Contains(strings.ToLower(t.UserName), term) ||
			(len(t.Messages) > 0 && strings.Contains(strings.ToLower(t.Messages[0].Message), term)) {
			filtered = append(filtered, t)
		}
	}
	return filtered
}

// SortByRecency returns a copy sorted by UpdatedAt descending.
func SortByRecency(tickets []models.Ticket) []models.Ticket {
	sorted := make([]models.Ticket, len(tickets))
	copy(sorted, tickets)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].UpdatedAt.After(sorted[j].UpdatedAt)
	})
	return sorted
}

// VisibleTickets is the list a pane renders: folder filter, then
// search, then recency sort.
func VisibleTickets(tickets []models.Ticket, folder, term string, userID int64) []models.Ticket {
	return SortByRecency(SearchTickets(FilterByFolder(tickets, folder, userID), term))
}

// UnreadCount counts unread tickets, used for folder badges.
func UnreadCount(tickets []models.Ticket) int {
	count := 0
	for _, t := range tickets {
		if !t.IsRead {
			count++
		}
	}
	return count
}
