package application

import (
	"context"
	"strings"
)

// NotifyNewComment pushes a comment to the complaint author's live connection.
// It reports false when the author is offline or delivery failed.
func (s *Service) NotifyNewComment(ctx context.Context, recipientUserID, complaintText, content string) bool {
	recipientUserID = strings.TrimSpace(recipientUserID)
	if recipientUserID == "" || s.push == nil {
		return false
	}
	delivered, err := s.dispatcher.SendWith(ctx, s.push, recipientUserID, "New comment "+complaintText, content)
	return err == nil && delivered
}
