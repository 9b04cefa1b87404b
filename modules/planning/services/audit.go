package services

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/google/uuid"

	"github.com/openplanning/caseflow/modules/planning/domain/audit"
)

// recordActivity appends one audit entry inside the caller's
// transaction. activityInformation and comment may be empty.
func recordActivity(
	ctx context.Context,
	audits audit.Repository,
	applicationID uuid.UUID,
	actor audit.Actor,
	activityType string,
	activityInformation string,
	comment string,
) error {
	entry := &audit.Entry{
		ApplicationID: applicationID,
		UserID:        actor.UserID,
		ActivityType:  activityType,
	}
	if activityInformation != "" {
		info := activityInformation
		entry.ActivityInformation = &info
	}
	if comment != "" {
		c := comment
		entry.Comment = &c
	}
	return audits.Create(ctx, entry)
}

func sequenceInfo(sequence int) string {
	return strconv.Itoa(sequence)
}

// cancellationComment serializes the cancel reason into the structured
// audit comment payload.
func cancellationComment(reason string) string {
	b, err := json.Marshal(map[string]string{"reason": reason})
	if err != nil {
		return reason
	}
	return string(b)
}
