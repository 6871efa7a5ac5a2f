package requests

import "fmt"

// StaffingSummary reports assigned headcounts against needed headcounts for
// one event request.
type StaffingSummary struct {
	Assigned StaffingCounts `json:"assigned"`

	// Gaps holds one human-readable shortfall message per under-staffed
	// role, stating how many more people are needed.
	Gaps []string `json:"gaps"`

	// Complete is true when total assignments cover total needs AND there
	// is at least one need. An event with zero needs is never "complete":
	// there is nothing to be complete about.
	Complete bool `json:"complete"`
}

// StaffingCounts holds per-role assigned counts.
type StaffingCounts struct {
	Drivers    int `json:"drivers"`
	Speakers   int `json:"speakers"`
	Volunteers int `json:"volunteers"`
}

// ComputeStaffing derives the staffing summary for a request. Ids are
// treated as opaque strings here; display-name resolution belongs to the
// calling layer.
//
// The van driver is counted as a driver unless the same id already appears
// in the regular driver list. One person signed up for both roles is still
// one person.
func ComputeStaffing(req *EventRequest) StaffingSummary {
	drivers := len(req.AssignedDriverIDs)
	if req.AssignedVanDriverID != nil && *req.AssignedVanDriverID != "" {
		if !containsID(req.AssignedDriverIDs, *req.AssignedVanDriverID) {
			drivers++
		}
	}

	speakers := len(req.SpeakerDetails)
	volunteers := len(req.AssignedVolunteerIDs)

	summary := StaffingSummary{
		Assigned: StaffingCounts{
			Drivers:    drivers,
			Speakers:   speakers,
			Volunteers: volunteers,
		},
	}

	summary.Gaps = appendGap(summary.Gaps, req.DriversNeeded, drivers, "driver", "drivers")
	summary.Gaps = appendGap(summary.Gaps, req.SpeakersNeeded, speakers, "speaker", "speakers")
	summary.Gaps = appendGap(summary.Gaps, req.VolunteersNeeded, volunteers, "volunteer", "volunteers")

	totalNeeded := req.DriversNeeded + req.SpeakersNeeded + req.VolunteersNeeded
	totalAssigned := drivers + speakers + volunteers
	summary.Complete = totalNeeded > 0 && totalAssigned >= totalNeeded

	return summary
}

// appendGap adds a shortfall message when needed exceeds assigned. The
// message states the shortfall, not the assigned count.
func appendGap(gaps []string, needed, assigned int, singular, plural string) []string {
	shortfall := needed - assigned
	if shortfall <= 0 {
		return gaps
	}
	role := plural
	if shortfall == 1 {
		role = singular
	}
	return append(gaps, fmt.Sprintf("Need %d more %s", shortfall, role))
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
