package parser

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestGroundTaskParser_Parse(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Record
	}{
		{
			name: "full grounding summary",
			text: readTestdata(t, "ground_task.log"),
			want: Record{
				"num_fluent_atoms":          int64(90901),
				"num_derived_atoms":         int64(0),
				"num_ground_actions":        int64(180600),
				"num_ground_axioms":         int64(0),
				"total_task_grounding_time": int64(5049),
				"dummy_attribute":           int64(1),
			},
		},
		{
			name: "empty log still sets marker",
			text: "",
			want: Record{"dummy_attribute": int64(1)},
		},
		{
			name: "partial summary",
			text: "Num ground actions: 12\n",
			want: Record{
				"num_ground_actions": int64(12),
				"dummy_attribute":    int64(1),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := NewRecord()
			if err := NewGroundTaskParser().Parse(tt.text, rec); err != nil {
				t.Fatalf("Parse() unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, rec); diff != "" {
				t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGroundTaskParser_CanParse(t *testing.T) {
	p := NewGroundTaskParser()

	if !p.CanParse("Total task grounding time: 5049 ms") {
		t.Error("CanParse() = false for grounding summary")
	}
	if p.CanParse("[GBFS] Plan cost: 3") {
		t.Error("CanParse() = true for search log")
	}
}
