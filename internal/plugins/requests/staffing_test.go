package requests

import "testing"

func TestComputeStaffing_VanDriverDeDup(t *testing.T) {
	van := "u2"
	req := &EventRequest{
		DriversNeeded:       2,
		AssignedDriverIDs:   []string{"u1", "u2"},
		AssignedVanDriverID: &van,
	}
	summary := ComputeStaffing(req)
	if summary.Assigned.Drivers != 2 {
		t.Errorf("van driver already in the driver list must not double-count, got %d", summary.Assigned.Drivers)
	}
	if !summary.Complete {
		t.Error("expected staffing complete")
	}
}

func TestComputeStaffing_VanDriverCountsWhenDistinct(t *testing.T) {
	van := "u3"
	req := &EventRequest{
		DriversNeeded:       3,
		AssignedDriverIDs:   []string{"u1", "u2"},
		AssignedVanDriverID: &van,
	}
	summary := ComputeStaffing(req)
	if summary.Assigned.Drivers != 3 {
		t.Errorf("distinct van driver should count, got %d", summary.Assigned.Drivers)
	}
}

func TestComputeStaffing_EmptyVanDriverIgnored(t *testing.T) {
	empty := ""
	req := &EventRequest{
		AssignedDriverIDs:   []string{"u1"},
		AssignedVanDriverID: &empty,
	}
	summary := ComputeStaffing(req)
	if summary.Assigned.Drivers != 1 {
		t.Errorf("empty van driver id must not count, got %d", summary.Assigned.Drivers)
	}
}

func TestComputeStaffing_Gaps(t *testing.T) {
	req := &EventRequest{
		DriversNeeded:     3,
		SpeakersNeeded:    1,
		VolunteersNeeded:  2,
		AssignedDriverIDs: []string{"u1"},
		SpeakerDetails:    map[string]SpeakerDetail{"u4": {Topic: "history"}},
		// No volunteers assigned.
	}
	summary := ComputeStaffing(req)

	want := []string{
		"Need 2 more drivers",
		"Need 2 more volunteers",
	}
	if len(summary.Gaps) != 2 {
		t.Fatalf("expected 2 gaps, got %v", summary.Gaps)
	}
	for i, w := range want {
		if summary.Gaps[i] != w {
			t.Errorf("gap %d: expected %q, got %q", i, w, summary.Gaps[i])
		}
	}
	if summary.Complete {
		t.Error("under-staffed event must not be complete")
	}
}

func TestComputeStaffing_SingularGapWording(t *testing.T) {
	req := &EventRequest{DriversNeeded: 1}
	summary := ComputeStaffing(req)
	if len(summary.Gaps) != 1 || summary.Gaps[0] != "Need 1 more driver" {
		t.Errorf("expected singular wording, got %v", summary.Gaps)
	}
}

func TestComputeStaffing_ZeroNeedsNeverComplete(t *testing.T) {
	// An event needing nobody is not "fully staffed": there is nothing to
	// be complete about.
	req := &EventRequest{AssignedDriverIDs: []string{"u1"}}
	summary := ComputeStaffing(req)
	if summary.Complete {
		t.Error("zero total needs must never report complete")
	}
	if len(summary.Gaps) != 0 {
		t.Errorf("zero needs should produce no gaps, got %v", summary.Gaps)
	}
}

func TestComputeStaffing_OverAssignedIsComplete(t *testing.T) {
	req := &EventRequest{
		DriversNeeded:     1,
		AssignedDriverIDs: []string{"u1", "u2", "u3"},
	}
	summary := ComputeStaffing(req)
	if !summary.Complete {
		t.Error("over-assignment still satisfies the need")
	}
	if len(summary.Gaps) != 0 {
		t.Errorf("expected no gaps, got %v", summary.Gaps)
	}
}

func TestComputeStaffing_CrossRoleTotals(t *testing.T) {
	// Completeness compares totals, not per-role: an extra driver can cover
	// a missing volunteer in the aggregate even while the volunteer gap is
	// still reported.
	req := &EventRequest{
		DriversNeeded:     1,
		VolunteersNeeded:  1,
		AssignedDriverIDs: []string{"u1", "u2"},
	}
	summary := ComputeStaffing(req)
	if !summary.Complete {
		t.Error("aggregate assignments cover aggregate needs")
	}
	if len(summary.Gaps) != 1 {
		t.Errorf("per-role volunteer gap should still be reported, got %v", summary.Gaps)
	}
}
