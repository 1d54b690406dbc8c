package trip_test

import (
	"testing"

	"github.com/touraibot/tourai/internal/trip"
)

func TestChildCount_ZeroIsKnown(t *testing.T) {
	if trip.UnknownChildren().Known() {
		t.Error("unknown count must not report as known")
	}
	if !trip.NoChildren().Known() {
		t.Error("explicit zero must report as known")
	}
	if trip.NoChildren().Count() != 0 {
		t.Errorf("expected count 0, got %d", trip.NoChildren().Count())
	}
	if c := trip.Children(2); !c.Known() || c.Count() != 2 {
		t.Errorf("expected known count 2, got known=%v count=%d", c.Known(), c.Count())
	}
	if c := trip.Children(-1); c.Count() != 0 {
		t.Errorf("negative counts should normalize to 0, got %d", c.Count())
	}
}

func TestSlotSet_CollectedCount(t *testing.T) {
	tests := []struct {
		name string
		set  trip.SlotSet
		want int
	}{
		{
			name: "empty",
			set:  trip.SlotSet{},
			want: 0,
		},
		{
			name: "all five with explicit zero children",
			set: trip.SlotSet{
				DepartureCity:      "Москва",
				DestinationCountry: "Турция",
				NightsFrom:         7,
				Adults:             2,
				Children:           trip.NoChildren(),
			},
			want: 5,
		},
		{
			name: "children unresolved counts four",
			set: trip.SlotSet{
				DepartureCity:      "Москва",
				DestinationCountry: "Турция",
				NightsFrom:         7,
				Adults:             2,
				Children:           trip.UnknownChildren(),
			},
			want: 4,
		},
		{
			name: "nightsTo alone does not count",
			set:  trip.SlotSet{NightsTo: 10},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.set.CollectedCount(); got != tt.want {
				t.Errorf("CollectedCount() = %d, want %d", got, tt.want)
			}
			if tt.want >= 5 != tt.set.Complete() {
				t.Errorf("Complete() = %v inconsistent with count %d", tt.set.Complete(), tt.want)
			}
		})
	}
}

func TestSlotSet_Merge(t *testing.T) {
	base := trip.SlotSet{
		DepartureCity: "Алматы",
		Adults:        2,
		Children:      trip.NoChildren(),
	}
	update := trip.SlotSet{
		DestinationCountry: "Египет",
		NightsFrom:         1,
		NightsTo:           8,
	}

	merged := base.Merge(update)

	if merged.DepartureCity != "Алматы" {
		t.Errorf("merge erased departure city: %q", merged.DepartureCity)
	}
	if merged.DestinationCountry != "Египет" {
		t.Errorf("merge dropped destination: %q", merged.DestinationCountry)
	}
	if !merged.Children.Known() {
		t.Error("merge must not unset an explicit zero child count")
	}
	if merged.NightsFrom != 1 || merged.NightsTo != 8 {
		t.Errorf("merge dropped night range: %d-%d", merged.NightsFrom, merged.NightsTo)
	}
}
